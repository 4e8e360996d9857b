package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "text", cfg.Analyzer.Extractor)
	assert.Equal(t, 30, cfg.App.ReadyAttempts)
	assert.Contains(t, cfg.Conventions.AuthPaths, "src/app/login")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad extractor", func(c *Config) { c.Analyzer.Extractor = "regex" }},
		{"no workers", func(c *Config) { c.Analyzer.Workers = 0 }},
		{"no base url", func(c *Config) { c.App.BaseURL = "" }},
		{"no attempts", func(c *Config) { c.App.ReadyAttempts = 0 }},
		{"bad provider", func(c *Config) { c.AI.Provider = "llama" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectConfigFile)
	content := `
analyzer:
  extractor: treesitter
app:
  base_url: http://localhost:4000
  ready_delay: 500ms
browser:
  error_markers: ["Oops"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "treesitter", cfg.Analyzer.Extractor)
	assert.Equal(t, "http://localhost:4000", cfg.App.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.App.ReadyDelay)
	assert.Equal(t, []string{"Oops"}, cfg.Browser.ErrorMarkers)
	// untouched sections keep defaults
	assert.Equal(t, 4, cfg.Analyzer.Workers)
	assert.Equal(t, 30, cfg.App.ReadyAttempts)
}

func TestLoader_ProjectFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile),
		[]byte("app:\n  start_command: npm run dev\n"), 0o644))
	t.Setenv(envBaseURL, "http://127.0.0.1:5173")

	cfg, err := NewLoader(zaptest.NewLogger(t)).Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "npm run dev", cfg.App.StartCommand)
	assert.Equal(t, "http://127.0.0.1:5173", cfg.App.BaseURL)
}

func TestLoader_MissingExplicitFile(t *testing.T) {
	_, err := NewLoader(nil).Load(t.TempDir(), "/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "appscout.yaml")
	cfg := DefaultConfig()
	cfg.AI.Provider = "gemini"
	require.NoError(t, cfg.SaveToFile(path))

	back, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", back.AI.Provider)
	assert.Equal(t, cfg.App.Settle, back.App.Settle)
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{
		App:     AppConfig{BaseURL: "http://x:1"},
		Logging: LoggingConfig{Level: "debug"},
	})
	assert.Equal(t, "http://x:1", cfg.App.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Analyzer.Workers)
	cfg.Merge(nil)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", "out/x"), Resolve("/proj", "out/x"))
	assert.Equal(t, "/abs/x", Resolve("/proj", "/abs/x"))
	assert.Equal(t, "", Resolve("/proj", ""))
}
