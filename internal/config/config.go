// Package config provides configuration loading and management for appscout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete appscout configuration
type Config struct {
	Analyzer    AnalyzerConfig    `yaml:"analyzer"`
	Conventions ConventionsConfig `yaml:"conventions"`
	Output      OutputConfig      `yaml:"output"`
	App         AppConfig         `yaml:"app"`
	Browser     BrowserConfig     `yaml:"browser"`
	AI          AIConfig          `yaml:"ai"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// AnalyzerConfig configures scanning and extraction
type AnalyzerConfig struct {
	// Extractor selects the source front end: "text" or "treesitter"
	Extractor string `yaml:"extractor"`
	// Workers bounds concurrent file extraction
	Workers int `yaml:"workers"`
	// Include adds doublestar globs to the data-file heuristics
	Include []string `yaml:"include"`
	// IgnoreDirs adds directory names skipped during the walk
	IgnoreDirs []string `yaml:"ignore_dirs"`
	// CacheSize is the number of files whose fragments are memoized
	CacheSize int `yaml:"cache_size"`
}

// ConventionsConfig holds the hard-coded directory conventions used by
// feature detection and endpoint emission.
type ConventionsConfig struct {
	PagesRoots []string `yaml:"pages_roots"`
	APIRoots   []string `yaml:"api_roots"`
	AuthPaths  []string `yaml:"auth_paths"`
}

// OutputConfig configures where artifacts are written, relative to the
// analyzed project root unless absolute.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Schema    string `yaml:"schema"`
	SQL       string `yaml:"sql"`
	Scenarios string `yaml:"scenarios"`
	Report    string `yaml:"report"`
	Replay    string `yaml:"replay"`
}

// AppConfig configures the target application subprocess
type AppConfig struct {
	// StartCommand overrides start-command detection from package.json
	StartCommand string `yaml:"start_command"`
	BaseURL      string `yaml:"base_url"`
	// Settle is the fixed wait after launching the process
	Settle        time.Duration `yaml:"settle"`
	ReadyAttempts int           `yaml:"ready_attempts"`
	ReadyDelay    time.Duration `yaml:"ready_delay"`
	Env           []string      `yaml:"env"`
}

// BrowserConfig configures the headless browser session
type BrowserConfig struct {
	Bin             string        `yaml:"bin"`
	Headless        bool          `yaml:"headless"`
	Width           int           `yaml:"width"`
	Height          int           `yaml:"height"`
	StepTimeout     time.Duration `yaml:"step_timeout"`
	NavTimeout      time.Duration `yaml:"nav_timeout"`
	ErrorMarkers    []string      `yaml:"error_markers"`
	NotFoundMarkers []string      `yaml:"not_found_markers"`
	NavLinks        int           `yaml:"nav_links"`
}

// AIConfig configures optional scenario suggestions
type AIConfig struct {
	// Provider is "claude", "openai" or "gemini"; empty disables suggestions
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	// Addr serves /metrics when non-empty (e.g. ":9090")
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Extractor: "text",
			Workers:   4,
			CacheSize: 512,
		},
		Conventions: ConventionsConfig{
			PagesRoots: []string{"app", "src/app", "pages", "src/pages"},
			APIRoots:   []string{"app/api", "pages/api", "src/app/api", "src/pages/api"},
			AuthPaths:  defaultAuthPaths(),
		},
		Output: OutputConfig{
			Dir:       ".appscout",
			Schema:    "prisma/schema.prisma",
			Scenarios: ".appscout/scenarios.json",
			Report:    ".appscout/report.md",
			Replay:    ".appscout/replay.gif",
		},
		App: AppConfig{
			BaseURL:       "http://localhost:3000",
			Settle:        5 * time.Second,
			ReadyAttempts: 30,
			ReadyDelay:    2 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:    true,
			Width:       1280,
			Height:      720,
			StepTimeout: 2 * time.Second,
			NavTimeout:  30 * time.Second,
			ErrorMarkers: []string{
				"404",
				"500",
				"Internal Server Error",
				"Application error",
				"Unhandled Runtime Error",
				"This page could not be found",
			},
			NotFoundMarkers: []string{"404", "Not Found", "This page could not be found"},
			NavLinks:        3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultAuthPaths() []string {
	base := []string{
		"app/login",
		"app/(auth)",
		"app/auth",
		"app/signin",
		"app/api/auth",
		"pages/login.js",
		"pages/login.jsx",
		"pages/login.ts",
		"pages/login.tsx",
		"pages/auth",
		"pages/api/auth",
		"lib/auth.js",
		"lib/auth.ts",
		"auth.js",
		"auth.ts",
		"middleware.js",
		"middleware.ts",
	}
	out := make([]string, 0, len(base)*2)
	out = append(out, base...)
	for _, p := range base {
		out = append(out, "src/"+p)
	}
	return out
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Analyzer.Extractor {
	case "text", "treesitter":
	default:
		return fmt.Errorf("analyzer.extractor must be \"text\" or \"treesitter\", got %q", c.Analyzer.Extractor)
	}
	if c.Analyzer.Workers < 1 {
		return fmt.Errorf("analyzer.workers must be at least 1")
	}
	if c.App.BaseURL == "" {
		return fmt.Errorf("app.base_url is required")
	}
	if c.App.ReadyAttempts < 1 {
		return fmt.Errorf("app.ready_attempts must be at least 1")
	}
	if c.Browser.NavLinks < 0 {
		return fmt.Errorf("browser.nav_links must not be negative")
	}
	switch c.AI.Provider {
	case "", "claude", "anthropic", "openai", "gpt", "gemini":
	default:
		return fmt.Errorf("ai.provider %q is not supported (claude, openai, gemini)", c.AI.Provider)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Resolve joins a configured output path onto root unless it is absolute.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
