package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/analyzer"
	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/endpoints"
	"github.com/v0xg/appscout/internal/metrics"
	"github.com/v0xg/appscout/internal/scenario"
	"github.com/v0xg/appscout/internal/schema"
)

// runAnalysis prints progress the way every command does and returns the
// analysis of root.
func runAnalysis(ctx context.Context, a *analyzer.Analyzer, root string) (*analyzer.Result, error) {
	fmt.Printf("→ Analyzing %s... ", root)
	res, err := a.Analyze(ctx, root)
	if err != nil {
		fmt.Println("failed")
		return nil, err
	}
	fmt.Printf("done (%d files, %d models, %d features)\n", len(res.Files), len(res.Models), len(res.Features))
	return res, nil
}

func newAnalyzer(cfg *config.Config, m *metrics.Metrics) (*analyzer.Analyzer, error) {
	return analyzer.New(cfg, logger, analyzer.WithMetrics(m))
}

type generateOptions struct {
	sqlPath   string
	applyDSN  string
	endpoints bool
}

// generateArtifacts writes every artifact derived from res and returns the
// paths it wrote.
func generateArtifacts(ctx context.Context, cfg *config.Config, res *analyzer.Result, opts generateOptions) ([]string, error) {
	var written []string
	models := res.Models

	schemaPath := config.Resolve(res.Root, cfg.Output.Schema)
	fmt.Printf("→ Writing schema... ")
	if err := schema.Write(schemaPath, schema.Prisma(models)); err != nil {
		fmt.Println("failed")
		return written, err
	}
	written = append(written, schemaPath)
	fmt.Printf("done (%s)\n", schemaPath)

	if opts.sqlPath != "" || opts.applyDSN != "" {
		ddl := schema.Postgres(models)
		if opts.sqlPath != "" {
			sqlPath := config.Resolve(res.Root, opts.sqlPath)
			if err := schema.Write(sqlPath, ddl); err != nil {
				return written, err
			}
			written = append(written, sqlPath)
			fmt.Printf("→ Wrote DDL to %s\n", sqlPath)
		}
		if opts.applyDSN != "" {
			fmt.Printf("→ Applying DDL... ")
			if err := schema.Apply(ctx, opts.applyDSN, ddl); err != nil {
				fmt.Println("failed")
				return written, err
			}
			fmt.Printf("done (%d tables)\n", len(models))
		}
	}

	if opts.endpoints && len(models) > 0 {
		fmt.Printf("→ Generating API handlers... ")
		paths, err := endpoints.NewEmitter(res.Root, logger).Emit(models)
		written = append(written, paths...)
		if err != nil {
			fmt.Println("partial")
			logger.Warn("some handlers were not written", zap.Error(err))
		} else {
			fmt.Printf("done (%d files)\n", len(paths))
		}
	}

	scenarios := scenario.Synthesize(models, res.Features)
	scriptPath := config.Resolve(res.Root, cfg.Output.Scenarios)
	fmt.Printf("→ Writing scenarios... ")
	if err := scenario.WriteScript(scriptPath, scenarios); err != nil {
		fmt.Println("failed")
		return written, err
	}
	written = append(written, scriptPath)
	fmt.Printf("done (%d scenarios)\n", len(scenarios))
	return written, nil
}

// loadOrSynthesize reads the scenario script, falling back to synthesizing
// scenarios from res when none has been written yet.
func loadOrSynthesize(cfg *config.Config, res *analyzer.Result) ([]scenario.Scenario, error) {
	path := config.Resolve(res.Root, cfg.Output.Scenarios)
	scenarios, err := scenario.LoadScript(path)
	if err == nil {
		logger.Debug("loaded scenario script", zap.String("path", path), zap.Int("scenarios", len(scenarios)))
		return scenarios, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return scenario.Synthesize(res.Models, res.Features), nil
}
