package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/appscout/internal/executor"
	"github.com/v0xg/appscout/internal/scenario"
)

func sampleRun() *executor.RunResult {
	return &executor.RunResult{
		BaseURL:  "http://localhost:3000",
		Message:  "1/2 scenarios passed",
		Duration: 3 * time.Second,
		Results: []executor.ScenarioResult{
			{
				Name:        "Full user journey",
				Type:        scenario.TypeJourney,
				Status:      executor.StatusPassed,
				Duration:    1200 * time.Millisecond,
				Screenshots: []string{".appscout/screenshots/full-user-journey-01-homepage.png"},
			},
			{
				Name:       "Order CRUD operations",
				Type:       scenario.TypeCRUD,
				Status:     executor.StatusFailed,
				FailedStep: 4,
				Message:    `step 4 (checkNoErrors): page shows error marker "404"`,
			},
		},
	}
}

func TestMarkdown_ListsTotalsAndFailures(t *testing.T) {
	r := New(sampleRun())
	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)

	md := r.Markdown()
	assert.Contains(t, md, "`"+r.RunID+"`")
	assert.Contains(t, md, "- **Result:** failed (1/2 scenarios passed)")
	assert.Contains(t, md, "| 2 | 1 | 1 | 0 |")
	assert.Contains(t, md, "| 2 | Order CRUD operations | crud | ✗ failed |")
	assert.Contains(t, md, "### Order CRUD operations")
	assert.Contains(t, md, `page shows error marker "404"`)
	assert.Contains(t, md, "full-user-journey-01-homepage.png")
}

func TestMarkdown_AbortedRun(t *testing.T) {
	r := New(&executor.RunResult{Message: "application readiness timeout: http://localhost:3000 not ready after 30 attempts"})
	md := r.Markdown()
	assert.Contains(t, md, "| 0 | 0 | 0 | 0 |")
	assert.Contains(t, md, "not ready after 30 attempts")
	assert.Contains(t, md, "No scenarios were executed.")
	assert.NotContains(t, md, "## Failures")
}

func TestMarkdown_CancelledRunListsUnrunScenarios(t *testing.T) {
	run := sampleRun()
	run.Results = append(run.Results, executor.ScenarioResult{
		Name: "Navigation sanity", Type: scenario.TypeJourney, Status: executor.StatusPending,
	})
	md := New(run).Markdown()
	assert.Contains(t, md, "| 3 | 1 | 1 | 1 |")
	assert.Contains(t, md, "| 3 | Navigation sanity | user-journey | · not run |")
	assert.NotContains(t, md, "### Navigation sanity")
}

func TestMarkdown_EscapesTableCells(t *testing.T) {
	run := &executor.RunResult{Success: true, Results: []executor.ScenarioResult{
		{Name: "a | b", Status: executor.StatusPassed},
	}}
	md := New(run).Markdown()
	assert.Contains(t, md, `| a \| b |`)
	assert.Contains(t, md, "**Result:** passed")
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.md")
	r := New(sampleRun())
	require.NoError(t, r.Write(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.Markdown(), string(data))
}

func TestRender(t *testing.T) {
	out, err := Render(New(sampleRun()).Markdown(), "notty", 100)
	require.NoError(t, err)
	assert.Contains(t, out, "appscout test report")
	assert.Contains(t, out, "Order CRUD operations")
	assert.False(t, strings.Contains(out, "**Run:**"), "emphasis markers are rendered away")
}
