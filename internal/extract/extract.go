// Package extract turns shortlisted source files into structural fragments:
// representative records from data collections and field lists from type
// declarations.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/infer"
	"github.com/v0xg/appscout/internal/model"
)

// Extractor front ends selectable from configuration.
const (
	KindText       = "text"
	KindTreeSitter = "treesitter"
)

// FragmentExtractor pulls fragments out of one file's content.
type FragmentExtractor interface {
	Name() string
	Extensions() []string
	Extract(ctx context.Context, path string, content []byte) ([]model.Fragment, error)
}

// Registry maps file extensions to extractors. The first registration for an
// extension wins.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]FragmentExtractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]FragmentExtractor)}
}

// Register adds e for each of its extensions not already claimed.
func (r *Registry) Register(e FragmentExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.Extensions() {
		ext = strings.ToLower(ext)
		if _, taken := r.byExt[ext]; !taken {
			r.byExt[ext] = e
		}
	}
}

// For returns the extractor responsible for path.
func (r *Registry) For(path string) (FragmentExtractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Extract dispatches path to its extractor. Files with no extractor yield
// no fragments.
func (r *Registry) Extract(ctx context.Context, path string, content []byte) ([]model.Fragment, error) {
	e, ok := r.For(path)
	if !ok {
		return nil, nil
	}
	frags, err := e.Extract(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("%s extractor: %w", e.Name(), err)
	}
	return frags, nil
}

// NewDefaultRegistry registers the JSON extractor and the source front end
// named by kind.
func NewDefaultRegistry(kind string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := NewRegistry()
	r.Register(NewJSONExtractor())
	switch kind {
	case "", KindText:
		r.Register(NewTextExtractor(logger))
	case KindTreeSitter:
		r.Register(NewTreeSitterExtractor(logger))
	default:
		return nil, fmt.Errorf("unknown extractor %q", kind)
	}
	return r, nil
}

// SourceExtensions are the script extensions handled by source extractors.
var SourceExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}

// fieldsFromPairs infers field types from a record's pairs.
func fieldsFromPairs(pairs []Pair) model.Fields {
	var fields model.Fields
	for _, p := range pairs {
		fields.Set(p.Key, infer.FromValue(p.Value))
	}
	return fields
}
