package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

const persistScenario = `name: persist_toggle
documents:
  - id: "file:///src/a.go"
    lines: 30
steps:
  - activate: { doc: "file:///src/a.go", line: 7 }
  - command: numberedBookmarks.toggle8
assertions:
  - type: slot
    slot: 8
    bookmark: { doc: "file:///src/a.go", line: 7, column: 0 }
`

const failingScenario = `name: wrong_expectation
steps:
  - command: numberedBookmarks.goto1
assertions:
  - type: trace_contains
    event: numberedBookmarks.goto1
    status: ok
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestRunScenarioDirectory(t *testing.T) {
	out, err := execute(t, "run", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ toggle_and_switch")
	assert.Contains(t, out, "✓ open_failure_keeps_slot")
	assert.Contains(t, out, "0 failed")
}

func TestRunScenarioFilterJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", scenariosDir, "--filter", "toggle_*")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	for _, sr := range resp.Data.Scenarios {
		assert.True(t, sr.Pass, sr.Name)
		assert.Positive(t, sr.Events)
	}
}

func TestRunFailingScenario(t *testing.T) {
	file := writeScenario(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(t, "run", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "1 failed")
}

func TestRunInvalidScenario(t *testing.T) {
	file := writeScenario(t, t.TempDir(), "bad.yaml", "name: bad\nsteps:\n  - comand: x\n")

	out, err := execute(t, "run", file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to load scenario")
}

func TestRunMissingPath(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunEmptyDirectory(t *testing.T) {
	out, err := execute(t, "run", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunPersist(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "marks.db")
	file := writeScenario(t, dir, "persist.yaml", persistScenario)

	// Without --persist the workspace is untouched.
	_, err := execute(t, "--db", db, "run", file)
	require.NoError(t, err)
	out, err := execute(t, "--db", db, "workspaces")
	require.NoError(t, err)
	assert.Equal(t, "no workspaces\n", out)

	_, err = execute(t, "--db", db, "-w", "scenarios", "run", "--persist", file)
	require.NoError(t, err)

	out, err = execute(t, "--db", db, "-w", "scenarios", "--format", "json", "list")
	require.NoError(t, err)
	assert.Equal(t, "/src/a.go:8", decodeReport(t, out).Data.Items[8].Location)
}
