// Package analyzer runs the inference pipeline over one project tree:
// scan, extract, synthesize and detect features.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/extract"
	"github.com/v0xg/appscout/internal/features"
	"github.com/v0xg/appscout/internal/metrics"
	"github.com/v0xg/appscout/internal/model"
	"github.com/v0xg/appscout/internal/scanner"
	"github.com/v0xg/appscout/internal/synth"
)

// ErrNoRoot is returned when the project root does not exist or is not a
// directory.
var ErrNoRoot = errors.New("project root not found")

// Result is one analysis of a project tree.
type Result struct {
	Root      string
	Files     []string
	Fragments []model.Fragment
	Skipped   int
	Duration  time.Duration
	model.Analysis
}

// Analyzer wires the pipeline stages together. It is safe to reuse across
// runs; the fragment cache carries over between them.
type Analyzer struct {
	cfg      *config.Config
	registry *extract.Registry
	cache    *extract.Cache
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithMetrics records pipeline counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithRegistry replaces the extractor registry built from configuration.
func WithRegistry(r *extract.Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// New builds an analyzer from configuration.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Analyzer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analyzer{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	if a.registry == nil {
		reg, err := extract.NewDefaultRegistry(cfg.Analyzer.Extractor, logger)
		if err != nil {
			return nil, err
		}
		a.registry = reg
	}
	if cfg.Analyzer.CacheSize > 0 {
		cache, err := extract.NewCache(cfg.Analyzer.CacheSize)
		if err != nil {
			return nil, err
		}
		a.cache = cache
	}
	return a, nil
}

// Analyze runs the full pipeline over root. Files that fail to read or
// extract are logged and skipped; only a missing root or cancellation
// aborts the run.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRoot, err)
	}
	if info, err := os.Stat(absRoot); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoRoot, root)
	}

	files, err := scanner.Scan(ctx, absRoot, scanner.Options{
		Include:    a.cfg.Analyzer.Include,
		IgnoreDirs: a.cfg.Analyzer.IgnoreDirs,
		Logger:     a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	a.logger.Debug("Scan complete", zap.Int("files", len(files)))
	if a.metrics != nil {
		a.metrics.FilesScanned.Add(float64(len(files)))
	}

	fragments, skipped, err := a.extractAll(ctx, absRoot, files)
	if err != nil {
		return nil, err
	}

	feats, err := features.NewDetector(a.cfg.Conventions, a.logger).Detect(absRoot)
	if err != nil {
		return nil, fmt.Errorf("detect features: %w", err)
	}

	res := &Result{
		Root:      absRoot,
		Files:     files,
		Fragments: fragments,
		Skipped:   skipped,
		Analysis:  synth.Analysis(fragments, feats),
	}
	res.Duration = time.Since(start)
	a.observe(res)

	a.logger.Info("Analysis complete",
		zap.String("root", absRoot),
		zap.Int("files", len(files)),
		zap.Int("fragments", len(fragments)),
		zap.Int("models", len(res.Models)),
		zap.Int("features", len(res.Features)),
		zap.Int("skipped", skipped),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// extractAll extracts every file with bounded concurrency. Results land in
// per-file slots so the flattened order follows the sorted file list.
func (a *Analyzer) extractAll(ctx context.Context, root string, files []string) ([]model.Fragment, int, error) {
	slots := make([][]model.Fragment, len(files))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.cfg.Analyzer.Workers))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frags, err := a.extractFile(gctx, root, path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				skipped.Add(1)
				if a.metrics != nil {
					a.metrics.ExtractErrors.Inc()
				}
				a.logger.Warn("Skipping file", zap.String("path", path), zap.Error(err))
				return nil
			}
			slots[i] = frags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var out []model.Fragment
	for _, frags := range slots {
		out = append(out, frags...)
	}
	return out, int(skipped.Load()), nil
}

func (a *Analyzer) extractFile(ctx context.Context, root, path string) ([]model.Fragment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if a.cache != nil {
		if frags, ok := a.cache.Get(path, info); ok {
			return frags, nil
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	frags, err := a.registry.Extract(ctx, filepath.ToSlash(rel), content)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Add(path, info, frags)
	}
	return frags, nil
}

func (a *Analyzer) observe(res *Result) {
	if a.metrics == nil {
		return
	}
	for _, f := range res.Fragments {
		a.metrics.FragmentsExtracted.WithLabelValues(string(f.Kind)).Inc()
	}
	a.metrics.ModelsSynthesized.Set(float64(len(res.Models)))
	counts := map[model.FeatureType]int{model.FeatureAuth: 0, model.FeatureCRUD: 0, model.FeatureAPI: 0}
	for _, f := range res.Features {
		counts[f.Type]++
	}
	for t, n := range counts {
		a.metrics.FeaturesDetected.WithLabelValues(string(t)).Set(float64(n))
	}
}
