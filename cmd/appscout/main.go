package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/logging"
	"github.com/v0xg/appscout/internal/metrics"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	// Global flags
	configPath  string
	verbose     bool
	logFormat   string
	metricsAddr string

	logger *zap.Logger
)

// errRunFailed makes the process exit non-zero after the report is shown.
var errRunFailed = errors.New("one or more scenarios failed")

var rootCmd = &cobra.Command{
	Use:   "appscout",
	Short: "Infer data models and features from a web app and test it end to end",
	Long: `appscout inspects a web application's source tree, infers its data models
from fixtures, mock data and type declarations, detects its features from
directory conventions, and generates:

  - a Prisma schema (and optionally Postgres DDL)
  - CRUD API handlers for each model
  - browser scenarios that exercise the app, runnable with "appscout test"

Example:
  appscout generate ./my-app
  appscout test ./my-app`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level, logFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the appscout version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "appscout", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <root>/appscout.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console, json")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	rootCmd.AddCommand(analyzeCmd, generateCmd, suggestCmd, testCmd, watchCmd, versionCmd)
}

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves configuration for a project root and layers the
// global flags over it.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load(root, configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Merge(&config.Config{Metrics: config.MetricsConfig{Addr: metricsAddr}})
	return cfg, nil
}

// startMetrics serves metrics in the background when an address is
// configured. The returned func stops the server.
func startMetrics(ctx context.Context, cfg *config.Config) (*metrics.Metrics, func()) {
	m := metrics.New()
	if cfg.Metrics.Addr == "" {
		return m, func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
			logger.Warn("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
	return m, func() {
		cancel()
		<-done
	}
}

// rootArg returns the project root argument, defaulting to ".".
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
