// Package report turns an executor run into a markdown report and renders
// it for the terminal.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"github.com/v0xg/appscout/internal/executor"
)

// Report is the summary of one run.
type Report struct {
	RunID     string
	Generated time.Time
	Run       *executor.RunResult
}

// New wraps a run result with a fresh run id.
func New(run *executor.RunResult) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Generated: time.Now(),
		Run:       run,
	}
}

// Markdown renders the report. Totals and every failure message are
// always listed, whether or not the run succeeded.
func (r *Report) Markdown() string {
	run := r.Run
	var b strings.Builder

	b.WriteString("# appscout test report\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- **Date:** %s\n", r.Generated.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Base URL:** %s\n", run.BaseURL)
	fmt.Fprintf(&b, "- **Duration:** %s\n", run.Duration.Round(time.Millisecond))
	status := "passed"
	if !run.Success {
		status = "failed"
	}
	fmt.Fprintf(&b, "- **Result:** %s (%s)\n\n", status, run.Message)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Total | Passed | Failed | Not run |\n|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", len(run.Results), run.Passed(), run.Failed(), run.Pending())

	if len(run.Results) == 0 {
		b.WriteString("No scenarios were executed.\n")
		return b.String()
	}

	b.WriteString("## Scenarios\n\n")
	b.WriteString("| # | Scenario | Type | Status | Duration |\n|---:|---|---|---|---:|\n")
	for i, s := range run.Results {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1, cell(s.Name), cell(string(s.Type)), statusLabel(s.Status), s.Duration.Round(time.Millisecond))
	}
	b.WriteString("\n")

	var failed []executor.ScenarioResult
	var shots []string
	for _, s := range run.Results {
		if s.Status == executor.StatusFailed {
			failed = append(failed, s)
		}
		shots = append(shots, s.Screenshots...)
	}

	if len(failed) > 0 {
		b.WriteString("## Failures\n\n")
		for _, s := range failed {
			fmt.Fprintf(&b, "### %s\n\n", s.Name)
			fmt.Fprintf(&b, "```\n%s\n```\n\n", s.Message)
		}
	}

	if len(shots) > 0 {
		b.WriteString("## Screenshots\n\n")
		for _, p := range shots {
			fmt.Fprintf(&b, "- `%s`\n", filepath.ToSlash(p))
		}
	}
	return b.String()
}

// Write saves the markdown to path, creating parent directories.
func (r *Report) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(r.Markdown()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Render formats markdown for a terminal. style is a glamour style name
// ("dark", "light", "notty") or "auto" to detect from the terminal.
func Render(markdown, style string, width int) (string, error) {
	styleOpt := glamour.WithStylePath(style)
	if style == "" || style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out, nil
}

func statusLabel(s executor.Status) string {
	switch s {
	case executor.StatusPassed:
		return "✓ passed"
	case executor.StatusFailed:
		return "✗ failed"
	case executor.StatusPending:
		return "· not run"
	}
	return string(s)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
