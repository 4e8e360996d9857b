package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/v0xg/appscout/internal/model"
)

// ErrInvalidJSON is returned for .json files that fail strict validation.
var ErrInvalidJSON = errors.New("invalid json")

// JSONExtractor reads static data files. A top-level array contributes its
// first element as the representative record; a top-level object contributes
// one fragment per key holding an array of records.
type JSONExtractor struct{}

// NewJSONExtractor returns the .json extractor.
func NewJSONExtractor() *JSONExtractor { return &JSONExtractor{} }

func (e *JSONExtractor) Name() string { return "json" }

func (e *JSONExtractor) Extensions() []string { return []string{".json"} }

func (e *JSONExtractor) Extract(ctx context.Context, path string, content []byte) ([]model.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !json.Valid(content) {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidJSON)
	}
	// encoding/json maps lose key order, the literal parser keeps it
	doc, err := parseDocument(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	switch v := doc.(type) {
	case []any:
		if frag, ok := firstRecord(FileModelName(path), v, path); ok {
			return []model.Fragment{frag}, nil
		}
	case *orderedObject:
		var out []model.Fragment
		for _, p := range v.pairs {
			arr, ok := p.Value.([]any)
			if !ok {
				continue
			}
			name := ModelName(p.Key)
			if name == "" {
				name = model.Capitalize(p.Key)
			}
			if frag, ok := firstRecord(name, arr, path); ok {
				out = append(out, frag)
			}
		}
		return out, nil
	}
	return nil, nil
}

func firstRecord(name string, arr []any, path string) (model.Fragment, bool) {
	if len(arr) == 0 {
		return model.Fragment{}, false
	}
	obj, ok := arr[0].(*orderedObject)
	if !ok || len(obj.pairs) == 0 {
		return model.Fragment{}, false
	}
	return model.Fragment{
		Name:       name,
		Fields:     fieldsFromPairs(recordPairs(obj)),
		OriginFile: path,
		Kind:       model.FragmentRecords,
	}, true
}
