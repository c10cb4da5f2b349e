package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/game"
)

func addCmd(n int) game.Command {
	return game.NewCommand("P0", add{N: n}, int64(n))
}

func TestReplay_ReproducesLiveRun(t *testing.T) {
	cfg := tallyConfig([]System[tally]{bonus{name: "bonus"}})
	st, r := newTally(t, cfg)

	log := []game.Command{
		addCmd(2),
		game.NewCommand("P1", roll{}, 3),
		addCmd(7),
		game.NewCommand("P0", roll{}, 9),
	}
	for _, cmd := range log {
		res := Execute(cfg, st, cmd, r, tallyPlayers)
		require.True(t, res.Success)
		st = res.State
	}

	replayed, err := Replay(cfg, "t1", tallyPlayers, log)
	require.NoError(t, err)

	live, err := Fingerprint(st)
	require.NoError(t, err)
	again, err := Fingerprint(replayed.State)
	require.NoError(t, err)
	assert.Equal(t, live, again)
	assert.Equal(t, st.Sys.Stream.Entries, replayed.Events)
}

func TestVerifyReplay_Deterministic(t *testing.T) {
	cfg := tallyConfig(nil)
	log := []game.Command{addCmd(1), game.NewCommand("P0", roll{}, 2), game.NewCommand("P1", roll{}, 3)}

	report, err := VerifyReplay(cfg, "t1", tallyPlayers, log)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Commands)
	assert.Equal(t, int64(3), report.StateID)
	assert.Len(t, report.StateDigest, 64)
	assert.Len(t, report.LogDigest, 64)

	again, err := VerifyReplay(cfg, "t1", tallyPlayers, log)
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestReplay_DivergenceIsTyped(t *testing.T) {
	cfg := tallyConfig(nil)
	log := []game.Command{addCmd(1), addCmd(0)}

	res, err := Replay(cfg, "t1", tallyPlayers, log)
	require.Error(t, err)
	assert.True(t, game.IsCode(err, game.CodeReplayDivergence))
	assert.Equal(t, int64(1), res.State.StateID(), "replay stops at the last good state")
}

func TestFingerprint_IgnoresRetainedLog(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)
	res := Execute(cfg, st, addCmd(4), r, tallyPlayers)
	require.True(t, res.Success)

	full, err := Fingerprint(res.State)
	require.NoError(t, err)
	trimmed, err := Fingerprint(res.State.WithLogWindow(0))
	require.NoError(t, err)

	assert.Equal(t, full, trimmed)
}

func TestLogDigest_Empty(t *testing.T) {
	a, err := LogDigest(nil)
	require.NoError(t, err)
	b, err := LogDigest(nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
