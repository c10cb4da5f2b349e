package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlay_PassingScenario(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir)

	out, err := execute(t, NewPlayCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ t1_repeated_response")
	assert.Contains(t, out, "Summary: 1 passed, 0 failed, 1 total")
}

func TestPlay_Trace(t *testing.T) {
	path := copyScenario(t, t.TempDir())

	out, err := execute(t, NewPlayCommand(&RootOptions{Format: "text"}), path, "--trace")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] P0 core.advance_phase -> ok (state 1)")
	assert.Contains(t, out, "[3] P0 core.respond_interaction -> INTERACTION_MISMATCH/not_found (state 2)")
}

func TestPlay_GoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir)

	_, err := execute(t, NewPlayCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	golden := filepath.Join(dir, "golden", "t1_repeated_response.golden")
	want, err := os.ReadFile("../harness/testdata/golden/t1_repeated_response.golden")
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, err = execute(t, NewPlayCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err, "golden directory must not be read as scenarios")

	require.NoError(t, os.WriteFile(golden, []byte(`{"trace":[]}`), 0o644))
	out, err := execute(t, NewPlayCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestPlay_FailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	bad := `
name: wrong_phase
ruleset: skirmish
seed: t1
players: [P0, P1]
assertions:
  - type: phase
    phase: score
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_phase.yaml"), []byte(bad), 0o644))

	out, err := execute(t, NewPlayCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   PlayResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_SCENARIO_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestPlay_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	out, err := execute(t, NewPlayCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestPlay_Filter(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir)

	out, err := execute(t, NewPlayCommand(&RootOptions{Format: "text"}), dir, "--filter", "nothing-*")
	require.NoError(t, err)
	assert.Contains(t, out, "0 total")

	_, err = execute(t, NewPlayCommand(&RootOptions{Format: "text"}), dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlay_MissingPath(t *testing.T) {
	_, err := execute(t, NewPlayCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "t1.golden"), goldenFilePath(filepath.Join("s", "t1.yaml")))
}
