package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/v0xg/appscout/internal/metrics"
)

func TestRegenerator_RelativeRootSkipsOwnOutput(t *testing.T) {
	root := sampleApp(t)
	t.Chdir(root)

	prevLogger, prevDebounce := logger, watchDebounce
	logger, watchDebounce = zaptest.NewLogger(t), 100*time.Millisecond
	t.Cleanup(func() { logger, watchDebounce = prevLogger, prevDebounce })

	cfg, err := loadConfig(".")
	require.NoError(t, err)
	a, err := newAnalyzer(cfg, metrics.New())
	require.NoError(t, err)

	g := &regenerator{
		cfg:       cfg,
		a:         a,
		root:      ".",
		opts:      generateOptions{endpoints: true},
		generated: map[string]bool{},
	}
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, g.run(ctx))
	assert.True(t, g.skip(filepath.Join("prisma", "schema.prisma")))
	assert.True(t, g.skip(filepath.Join(root, "app", "api", "order", "route.ts")))
	assert.False(t, g.skip(filepath.Join("src", "data", "orders.json")))

	w, err := g.watcher()
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ctx context.Context, _ []string) error { return g.run(ctx) })
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	time.Sleep(200 * time.Millisecond)

	writeFile(t, root, "src/data/orders.json", `[{"id": "o1", "total": 12.5, "email": "a@b.co", "note": "x"}]`)

	require.Eventually(t, func() bool { return g.passes.Load() == 2 }, 5*time.Second, 20*time.Millisecond)
	// several quiet periods pass without another regeneration
	time.Sleep(time.Second)
	assert.Equal(t, int32(2), g.passes.Load())
}
