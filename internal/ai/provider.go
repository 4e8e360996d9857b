// Package ai asks a language model for extra scenarios grounded in a
// crawled page map and the inferred analysis.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNoAPIKey is returned when a provider has no credentials in the
// environment.
var ErrNoAPIKey = errors.New("api key not set")

// Provider completes a single system+user exchange and returns the text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// NewProvider creates a new AI provider based on the provider name
func NewProvider(ctx context.Context, name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	case "gemini", "google":
		return NewGeminiProvider(ctx, model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai, gemini)", name)
	}
}

// apiKey returns the first non-empty variable among names.
func apiKey(names ...string) (string, error) {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set one of %v", ErrNoAPIKey, names)
}
