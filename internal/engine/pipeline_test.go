package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
)

func newTally(t *testing.T, cfg *Config[tally]) (MatchState[tally], *rng.Source) {
	t.Helper()
	r := rng.New("t1")
	st, err := NewMatch(cfg, tallyPlayers, r)
	require.NoError(t, err)
	return st, r
}

func TestNewMatch_RunsSetupAndInit(t *testing.T) {
	cfg := tallyConfig([]System[tally]{phases{}})
	st, r := newTally(t, cfg)

	assert.Equal(t, "main", st.Phase())
	assert.Equal(t, int64(0), st.StateID())
	assert.Equal(t, uint64(1), st.Sys.RandomCursor)
	assert.Equal(t, uint64(1), r.Consumed())
}

func TestNewMatch_RejectsBadPlayers(t *testing.T) {
	cfg := tallyConfig(nil)

	_, err := NewMatch(cfg, nil, rng.New("x"))
	assert.ErrorContains(t, err, "no players")

	_, err = NewMatch(cfg, []game.PlayerID{"P0", "P0"}, rng.New("x"))
	assert.ErrorContains(t, err, "duplicate player")
}

func TestExecute_AppliesCommand(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", add{N: 3}, 1000), r, tallyPlayers)
	require.True(t, res.Success, "err: %v", res.Err)

	assert.Equal(t, 3, res.State.Domain.Total)
	assert.Equal(t, int64(1), res.State.StateID())
	require.Len(t, res.Events, 1)
	assert.Equal(t, int64(1), res.Events[0].ID)
	assert.Equal(t, int64(1000), res.Events[0].Event.Timestamp)
	assert.Equal(t, game.CommandType("tally.add"), res.Events[0].Event.SourceCommandType)
	assert.Equal(t, []game.EventType{"tally.added"}, res.State.Sys.Stream.Types())

	assert.Equal(t, 0, st.Domain.Total, "input state must not change")
	assert.Equal(t, int64(0), st.StateID())
	assert.Equal(t, 0, st.Sys.Stream.Len())
}

func TestExecute_StateIDIncrementsByOne(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)

	for i := 1; i <= 5; i++ {
		res := Execute(cfg, st, game.NewCommand("P0", add{N: 1}, int64(i)), r, tallyPlayers)
		require.True(t, res.Success)
		assert.Equal(t, int64(i), res.State.StateID())
		st = res.State
	}
	assert.Equal(t, int64(5), st.Sys.Stream.LastID())
}

func TestExecute_ValidationRejectedLeavesStateAlone(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)
	before := r.Consumed()

	res := Execute(cfg, st, game.NewCommand("P0", add{N: 0}, 1), r, tallyPlayers)

	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeValidationRejected))
	assert.Equal(t, st, res.State)
	assert.Equal(t, before, r.Consumed())
}

func TestExecute_GateBlocks(t *testing.T) {
	cfg := tallyConfig([]System[tally]{gate{}})
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P9", add{N: 1}, 1), r, tallyPlayers)
	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeSystemBlocked))

	res = Execute(cfg, st, game.NewCommand("P1", add{N: 1}, 1), r, tallyPlayers)
	assert.True(t, res.Success)
}

func TestExecute_RecordsRandomCalls(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", roll{}, 1), r, tallyPlayers)
	require.True(t, res.Success)

	assert.Equal(t, uint64(1), res.RandomCalls)
	assert.Equal(t, uint64(2), res.State.Sys.RandomCursor)
	assert.Equal(t, uint64(2), r.Consumed())
	require.Len(t, res.State.Domain.Rolls, 1)

	// The same position reproduces the same roll.
	again := rng.At("t1", 1)
	assert.Equal(t, res.State.Domain.Rolls[0], again.Integer(1, 6))
}

func TestExecute_FailureRestoresRNG(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", rollThenFail{}, 1), r, tallyPlayers)

	require.False(t, res.Success)
	assert.Equal(t, game.CodeInternal, game.CodeOf(res.Err))
	assert.Equal(t, uint64(1), r.Consumed(), "draws taken by a failed command are rolled back")
}

func TestExecute_RecoversPanics(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", explode{}, 1), r, tallyPlayers)

	require.False(t, res.Success)
	assert.Equal(t, game.CodeInternal, game.CodeOf(res.Err))
	assert.ErrorContains(t, res.Err, "kaboom")
	assert.Equal(t, st, res.State)
}

func TestExecute_ReduceErrorIsInternal(t *testing.T) {
	cfg := tallyConfig([]System[tally]{corrupter{}})
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", add{N: 13}, 1), r, tallyPlayers)

	require.False(t, res.Success)
	assert.Equal(t, game.CodeInternal, game.CodeOf(res.Err))
	assert.Equal(t, 0, res.State.Domain.Total)
}

func TestExecute_CoreCommandWithoutHandler(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", game.AdvancePhase{}, 1), r, tallyPlayers)
	assert.True(t, game.IsCode(res.Err, game.CodeSystemBlocked))
}

func TestExecute_DerivedEventsAreLoggedAfterOriginals(t *testing.T) {
	cfg := tallyConfig([]System[tally]{bonus{name: "bonus"}})
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", add{N: 7}, 1), r, tallyPlayers)
	require.True(t, res.Success)

	assert.Equal(t, 8, res.State.Domain.Total)
	require.Len(t, res.Events, 2)
	assert.Equal(t, added{N: 7}, res.Events[0].Event.Payload)
	assert.Equal(t, added{N: 1}, res.Events[1].Event.Payload)
}

func TestExecute_OnceDeduplicatesAcrossHooks(t *testing.T) {
	cfg := tallyConfig([]System[tally]{bonus{name: "bonus-a"}, bonus{name: "bonus-b"}})
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", add{N: 7}, 1), r, tallyPlayers)
	require.True(t, res.Success)

	assert.Equal(t, 8, res.State.Domain.Total, "the bonus must fire once, not once per hook")
}

func TestExecute_StepQuota(t *testing.T) {
	cfg := tallyConfig([]System[tally]{echo{}}, WithMaxSteps(10))
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", add{N: 1}, 1), r, tallyPlayers)

	require.False(t, res.Success)
	assert.True(t, IsQuotaError(res.Err))
	assert.True(t, game.IsCode(res.Err, game.CodeQuotaExceeded))
	var se *StepsExceededError
	require.ErrorAs(t, res.Err, &se)
	assert.Equal(t, 10, se.Limit)
	assert.Equal(t, st, res.State)
}

func TestExecute_DepthLimit(t *testing.T) {
	cfg := tallyConfig([]System[tally]{recurse{}}, WithMaxDepth(3))
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", add{N: 5}, 1), r, tallyPlayers)

	require.False(t, res.Success)
	var de *DepthExceededError
	require.ErrorAs(t, res.Err, &de)
	assert.Equal(t, 4, de.Depth)
	assert.True(t, game.IsCode(res.Err, game.CodeQuotaExceeded))
}

func TestExecute_GameOver(t *testing.T) {
	cfg := tallyConfig(nil)
	st, r := newTally(t, cfg)

	res := Execute(cfg, st, game.NewCommand("P0", win{}, 1), r, tallyPlayers)
	require.True(t, res.Success)
	assert.True(t, res.State.Over())
	assert.Equal(t, []game.EventType{"tally.won", "core.game_ended"}, res.EventTypes())
	assert.Equal(t, "target reached", res.State.Sys.Outcome.Reason)

	after := Execute(cfg, res.State, game.NewCommand("P1", add{N: 1}, 2), r, tallyPlayers)
	require.False(t, after.Success)
	assert.True(t, game.IsCode(after.Err, game.CodeSystemBlocked))
}

func TestNewConfig_Checks(t *testing.T) {
	_, err := NewConfig[tally](nil, tablesZero(), nil)
	assert.ErrorContains(t, err, "rule-set is required")

	_, err = NewConfig[tally](tallyRules{}, tablesZero(), []System[tally]{gate{}, gate{}})
	assert.ErrorContains(t, err, `duplicate system "gate"`)

	_, err = NewConfig[tally](tallyRules{}, tablesZero(), nil, WithMaxSteps(0))
	assert.ErrorContains(t, err, "limits must be positive")

	cfg, err := NewConfig[tally](tallyRules{}, tablesZero(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimits(), cfg.Limits)
}
