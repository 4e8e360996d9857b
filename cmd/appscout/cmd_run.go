package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/appproc"
	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/executor"
	"github.com/v0xg/appscout/internal/gifgen"
	"github.com/v0xg/appscout/internal/overlay"
	"github.com/v0xg/appscout/internal/report"
)

var (
	noStart  bool
	noReplay bool
	baseURL  string
)

var testCmd = &cobra.Command{
	Use:   "test [root]",
	Short: "Start the app and run the scenario script in a headless browser",
	Long: `Starts the application with its detected start command, waits until it
serves a non-error page, runs every scenario in order, and writes a
markdown report and a replay GIF. Exits non-zero when any scenario fails.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().BoolVar(&noStart, "no-start", false, "Do not start the app; test an instance that is already running")
	testCmd.Flags().BoolVar(&noReplay, "no-replay", false, "Skip the replay GIF")
	testCmd.Flags().StringVar(&baseURL, "url", "", "Base URL of the app (default: app.base_url)")
	testCmd.Flags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	root := rootArg(args)
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	cfg.Merge(&config.Config{App: config.AppConfig{BaseURL: baseURL}})
	m, stopMetrics := startMetrics(ctx, cfg)
	defer stopMetrics()

	a, err := newAnalyzer(cfg, m)
	if err != nil {
		return err
	}
	res, err := runAnalysis(ctx, a, root)
	if err != nil {
		return err
	}
	scenarios, err := loadOrSynthesize(cfg, res)
	if err != nil {
		return err
	}

	var app executor.App
	if !noStart {
		proc, err := appproc.New(res.Root, cfg.App.StartCommand, cfg.App.Env, logger)
		if err != nil {
			return err
		}
		fmt.Printf("→ Starting app with %q\n", proc.Command())
		app = proc
	}

	fmt.Printf("→ Running %d scenarios against %s\n", len(scenarios), cfg.App.BaseURL)
	runner := executor.New(cfg, app, sessionLauncher(cfg), logger,
		executor.WithMetrics(m),
		executor.WithReplay(!noReplay),
		executor.WithScreenshotDir(filepath.Join(config.Resolve(res.Root, cfg.Output.Dir), "screenshots")),
		executor.WithProgress(func(r executor.ScenarioResult) {
			mark := "✓"
			if r.Status == executor.StatusFailed {
				mark = "✗"
			}
			fmt.Printf("  %s %s (%s)\n", mark, r.Name, r.Duration.Round(time.Millisecond))
			if r.Message != "" {
				fmt.Printf("      %s\n", r.Message)
			}
		}),
	)
	run, runErr := runner.Run(ctx, scenarios)
	if runErr != nil {
		logger.Error("run aborted", zap.Error(runErr))
	}

	rep := report.New(run)
	reportPath := config.Resolve(res.Root, cfg.Output.Report)
	if err := rep.Write(reportPath); err != nil {
		return err
	}

	if !noReplay && len(run.Frames) > 0 {
		fmt.Printf("→ Encoding replay... ")
		replayPath := config.Resolve(res.Root, cfg.Output.Replay)
		size, err := gifgen.Generate(overlay.Mark(run.Frames), replayPath, gifgen.Options{})
		if err != nil {
			fmt.Println("failed")
			logger.Warn("replay not written", zap.Error(err))
		} else {
			fmt.Printf("done (%s, %.1f KB)\n", replayPath, float64(size)/1024)
		}
	}

	rendered, err := report.Render(rep.Markdown(), "auto", 100)
	if err != nil {
		logger.Debug("render report", zap.Error(err))
		rendered = rep.Markdown()
	}
	fmt.Print(rendered)
	fmt.Printf("→ Report written to %s\n", reportPath)

	if runErr != nil {
		return runErr
	}
	if !run.Success {
		return errRunFailed
	}
	return nil
}
