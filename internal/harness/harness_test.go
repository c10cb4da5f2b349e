package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/testutil"
)

func TestRun_T1(t *testing.T) {
	testutil.QuietLogs(t)
	s, err := LoadScenario("testdata/scenarios/t1_repeated_response.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 3)
	assert.Equal(t, Final{Phase: "play", Round: 1, StateID: 2}, result.Final)
	assert.NotEmpty(t, result.StateDigest, "stored log replays")
}

func TestRun_Deterministic(t *testing.T) {
	testutil.QuietLogs(t)
	s, err := LoadScenario("testdata/scenarios/t1_repeated_response.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.StateDigest, second.StateDigest)
}

func TestRun_PendingInteraction(t *testing.T) {
	testutil.QuietLogs(t)
	s, err := ParseScenario([]byte(minimal + `
steps:
  - command: core.advance_phase
    player: P0
  - command: core.advance_phase
    player: P0
    expect: { error: SYSTEM_BLOCKED }
assertions:
  - type: phase
    phase: draw
  - type: interaction
    id: discard-1
    kind: discard
    player: P0
  - type: window
    absent: true
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "SYSTEM_BLOCKED", result.Trace[1].Error)
}

func TestRun_ReportsMismatches(t *testing.T) {
	testutil.QuietLogs(t)
	s, err := ParseScenario([]byte(minimal + `
steps:
  - command: core.advance_phase
    player: P1
  - command: core.advance_phase
    player: P0
    expect: { error: VALIDATION_REJECTED }
  - command: core.advance_phase
    player: P0
    expect: { events: [] }
assertions:
  - type: state_id
    state_id: 0
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "step 1 (core.advance_phase): expected success")
	assert.Contains(t, result.Errors[1], "step 2 (core.advance_phase): expected VALIDATION_REJECTED, command succeeded")
	assert.Contains(t, result.Errors[2], "step 3 (core.advance_phase): expected success")
	assert.Contains(t, result.Errors[3], "assertion 0")
}

func TestRun_Errors(t *testing.T) {
	testutil.QuietLogs(t)
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown ruleset", "name: x\nruleset: chess\nseed: s\nplayers: [P0, P1]\n", `unknown ruleset "chess"`},
		{"unknown option", minimal + "options: {speed: 2}\n", `unknown option "speed"`},
		{"bad player count", "name: x\nruleset: skirmish\nseed: s\nplayers: [P0]\n", "failed to set up match"},
		{"unknown command", minimal + "steps:\n  - {command: skirmish.fly, player: P0}\n", "step 1"},
		{"pick without interaction", minimal + "steps:\n  - {command: core.respond_interaction, player: P0, pick: 0}\n", "no pending interaction"},
		{"pick out of range", minimal + "steps:\n  - {command: core.advance_phase, player: P0}\n  - {command: core.respond_interaction, player: P0, pick: 40}\n", "index 40 out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseScenario([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = Run(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRuleSets(t *testing.T) {
	assert.Equal(t, []string{"skirmish"}, RuleSets())
}
