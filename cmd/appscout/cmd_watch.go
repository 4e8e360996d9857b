package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/analyzer"
	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/scanner"
	"github.com/v0xg/appscout/internal/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Regenerate artifacts whenever the project changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before regenerating")
	watchCmd.Flags().BoolVar(&genOpts.endpoints, "endpoints", true, "Generate CRUD API handlers")
}

// regenerator re-runs analysis and generation and remembers what it wrote,
// so files it produced never trigger another pass.
type regenerator struct {
	cfg  *config.Config
	a    *analyzer.Analyzer
	root string
	opts generateOptions

	// written on the watch loop only
	generated map[string]bool
	outDir    string
	passes    atomic.Int32
}

func (g *regenerator) run(ctx context.Context) error {
	res, err := runAnalysis(ctx, g.a, g.root)
	if err != nil {
		return err
	}
	g.passes.Add(1)
	g.outDir = absPath(config.Resolve(res.Root, g.cfg.Output.Dir))
	paths, err := generateArtifacts(ctx, g.cfg, res, g.opts)
	for _, p := range paths {
		g.generated[absPath(p)] = true
	}
	return err
}

func (g *regenerator) skip(path string) bool {
	path = absPath(path)
	return g.generated[path] || filepath.Dir(path) == g.outDir
}

func (g *regenerator) watcher() (*watch.Watcher, error) {
	w, err := watch.New(watch.Config{
		Root:       g.root,
		IgnoreDirs: append(append([]string{}, scanner.DefaultIgnoreDirs...), g.cfg.Analyzer.IgnoreDirs...),
		Debounce:   watchDebounce,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	w.Skip(g.skip)
	return w, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root := rootArg(args)
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	m, stopMetrics := startMetrics(ctx, cfg)
	defer stopMetrics()

	a, err := newAnalyzer(cfg, m)
	if err != nil {
		return err
	}

	g := &regenerator{
		cfg:       cfg,
		a:         a,
		root:      root,
		opts:      generateOptions{endpoints: genOpts.endpoints},
		generated: map[string]bool{},
	}
	if err := g.run(ctx); err != nil {
		return err
	}
	w, err := g.watcher()
	if err != nil {
		return err
	}

	fmt.Printf("→ Watching %s (Ctrl+C to stop)\n", root)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		logger.Info("project changed", zap.Int("files", len(changed)))
		return g.run(ctx)
	})
}
