package config

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "appscout.yaml"

	envBaseURL      = "APPSCOUT_BASE_URL"
	envStartCommand = "APPSCOUT_START_COMMAND"
	envAIProvider   = "APPSCOUT_AI_PROVIDER"
	envAIModel      = "APPSCOUT_AI_MODEL"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// Load resolves configuration with layered precedence:
// 1. Defaults
// 2. explicitPath if given, else appscout.yaml in the project root
// 3. APPSCOUT_* environment variables
func (l *Loader) Load(projectRoot, explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	path := explicitPath
	if path == "" && projectRoot != "" {
		candidate := filepath.Join(projectRoot, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", zap.String("path", path))
		cfg = loaded
	} else {
		l.logger.Debug("No project config found, using defaults")
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{envBaseURL, &cfg.App.BaseURL},
		{envStartCommand, &cfg.App.StartCommand},
		{envAIProvider, &cfg.AI.Provider},
		{envAIModel, &cfg.AI.Model},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
			l.logger.Debug("Config override from environment", zap.String("key", o.key))
		}
	}
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Used to layer command-line flags over file values.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Analyzer.Extractor != "" {
		c.Analyzer.Extractor = other.Analyzer.Extractor
	}
	if other.Analyzer.Workers != 0 {
		c.Analyzer.Workers = other.Analyzer.Workers
	}
	if len(other.Analyzer.Include) > 0 {
		c.Analyzer.Include = append(c.Analyzer.Include, other.Analyzer.Include...)
	}

	if other.App.StartCommand != "" {
		c.App.StartCommand = other.App.StartCommand
	}
	if other.App.BaseURL != "" {
		c.App.BaseURL = other.App.BaseURL
	}
	if other.App.Settle != 0 {
		c.App.Settle = other.App.Settle
	}
	if other.App.ReadyAttempts != 0 {
		c.App.ReadyAttempts = other.App.ReadyAttempts
	}

	if other.Browser.Bin != "" {
		c.Browser.Bin = other.Browser.Bin
	}

	if other.AI.Provider != "" {
		c.AI.Provider = other.AI.Provider
	}
	if other.AI.Model != "" {
		c.AI.Model = other.AI.Model
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
