package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ScriptVersion is the current interaction-script format.
const ScriptVersion = 1

// Script is the on-disk interaction-script artifact.
type Script struct {
	Version   int        `json:"version"`
	Scenarios []Scenario `json:"scenarios"`
}

// WriteScript stores scenarios as an indented JSON script at path.
func WriteScript(path string, scenarios []Scenario) error {
	data, err := json.MarshalIndent(Script{Version: ScriptVersion, Scenarios: scenarios}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scenarios: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create script directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	return nil
}

// LoadScript reads a script written by WriteScript. A bare JSON array of
// scenarios is accepted too. Every scenario is validated.
func LoadScript(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates script content.
func ParseScript(data []byte) ([]Scenario, error) {
	var scenarios []Scenario
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &scenarios); err != nil {
			return nil, fmt.Errorf("failed to parse script: %w", err)
		}
	} else {
		var s Script
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse script: %w", err)
		}
		if s.Version > ScriptVersion {
			return nil, fmt.Errorf("script version %d is newer than supported %d", s.Version, ScriptVersion)
		}
		scenarios = s.Scenarios
	}

	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}
	return scenarios, nil
}
