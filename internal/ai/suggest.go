package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/crawler"
	"github.com/v0xg/appscout/internal/model"
	"github.com/v0xg/appscout/internal/scenario"
)

// ErrNoScenarios is returned when a response holds no usable scenario.
var ErrNoScenarios = errors.New("no usable scenarios in response")

// Suggest asks p for scenarios beyond existing. Invalid or duplicate
// suggestions are dropped and logged.
func Suggest(ctx context.Context, p Provider, pageMap *crawler.PageMap, analysis model.Analysis, existing []scenario.Scenario, logger *zap.Logger) ([]scenario.Scenario, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageMapJSON, err := json.MarshalIndent(pageMap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page map: %w", err)
	}
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}

	names := make([]string, len(existing))
	seen := make(map[string]bool, len(existing))
	for i, sc := range existing {
		names[i] = sc.Name
		seen[strings.ToLower(sc.Name)] = true
	}

	text, err := p.Complete(ctx, systemPrompt, buildUserPrompt(string(pageMapJSON), string(analysisJSON), names))
	if err != nil {
		return nil, err
	}
	candidates, err := parseScenariosJSON(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", p.Name(), err)
	}

	var out []scenario.Scenario
	for _, sc := range candidates {
		if sc.Type == "" {
			sc.Type = scenario.TypeJourney
		}
		key := strings.ToLower(sc.Name)
		if err := sc.Validate(); err != nil {
			logger.Debug("dropping suggested scenario", zap.String("name", sc.Name), zap.Error(err))
			continue
		}
		if seen[key] {
			logger.Debug("dropping duplicate scenario", zap.String("name", sc.Name))
			continue
		}
		seen[key] = true
		out = append(out, sc)
	}
	if len(out) == 0 {
		return nil, ErrNoScenarios
	}
	logger.Info("scenarios suggested", zap.String("provider", p.Name()), zap.Int("accepted", len(out)), zap.Int("received", len(candidates)))
	return out, nil
}

// parseScenariosJSON decodes a scenario array from a response that may
// wrap it in prose, a code fence, or a {"scenarios": [...]} object.
func parseScenariosJSON(response string) ([]scenario.Scenario, error) {
	var scenarios []scenario.Scenario
	if err := json.Unmarshal([]byte(response), &scenarios); err == nil {
		return scenarios, nil
	}
	var wrapped scenario.Script
	if err := json.Unmarshal([]byte(response), &wrapped); err == nil && wrapped.Scenarios != nil {
		return wrapped.Scenarios, nil
	}

	start := strings.Index(response, "[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	end := matchingBracket(response, start)
	if end == -1 {
		return nil, fmt.Errorf("no matching closing bracket found")
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}
	return scenarios, nil
}

// matchingBracket returns the index of the ']' closing the '[' at start,
// skipping brackets inside JSON strings, or -1.
func matchingBracket(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
