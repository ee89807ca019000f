package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectTimerScenario = `name: select_timer
carousel: ../carousel
steps:
  - key: select
  - step: true
  - advance: 500ms
  - fire_timers: true
  - step: true
assertions:
  - type: variable
    source: "~//main"
    number: 3
    data: 42
`

// createScenarioDir writes a carousel and a scenarios directory holding
// the given scenario files.
func createScenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "carousel"), map[string]string{
		"a.cue":    bootApp,
		"main.cue": timerScene,
	})
	dir := filepath.Join(root, "scenarios")
	writeFiles(t, dir, scenarios)
	return dir
}

func executeTest(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := executeTest(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := executeTest(t, "text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := executeTest(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := executeTest(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := createScenarioDir(t, map[string]string{"select_timer.yaml": selectTimerScenario})

	out, err := executeTest(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ select_timer")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	failing := selectTimerScenario[:len(selectTimerScenario)-len("    data: 42\n")] + "    data: 7\n"
	dir := createScenarioDir(t, map[string]string{"select_timer.yaml": failing})

	out, err := executeTest(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  CLIError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := createScenarioDir(t, map[string]string{"bad.yaml": "name: bad\nassertion: []\n"})

	out, err := executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := createScenarioDir(t, map[string]string{"select_timer.yaml": selectTimerScenario})

	out, err := executeTest(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "select_timer.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario":"select_timer"`)

	_, err = executeTest(t, "text", dir)
	require.NoError(t, err)

	// A stale golden file fails the scenario even when assertions pass.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "select_timer.golden"), []byte("{}"), 0644))
	out, err = executeTest(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	other := selectTimerScenario[len("name: select_timer"):]
	dir := createScenarioDir(t, map[string]string{
		"select_timer.yaml": selectTimerScenario,
		"menu.yaml":         "name: menu" + other,
	})

	out, err := executeTest(t, "text", dir, "--filter", "menu*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ menu")
	assert.NotContains(t, out, "select_timer")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.yaml":          "",
		"b.yml":           "",
		"notes.txt":       "",
		"nested/c.yaml":   "",
		"golden/a.golden": "",
	})

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "menu.golden"),
		goldenFilePath(filepath.Join("scenarios", "menu.yaml")))
	assert.Equal(t,
		filepath.Join("x", "golden", "timer.golden"),
		goldenFilePath(filepath.Join("x", "timer.yml")))
}
