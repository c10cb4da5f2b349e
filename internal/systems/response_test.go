package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/response"
)

func pass(window string) game.PassResponse {
	return game.PassResponse{WindowID: window}
}

func TestResponse_NobodyCanRespondClosesAtOpen(t *testing.T) {
	m := newBoard(t, boardRules{})

	res := m.ok("P0", play{Card: "c1"})
	assert.Equal(t, []game.EventType{
		"board.played",
		response.EventOpened,
		response.EventSkipped,
		response.EventSkipped,
		response.EventClosed,
	}, res.EventTypes())
	assert.False(t, m.state.Sys.Response.IsOpen())
}

func TestResponse_PriorityWalk(t *testing.T) {
	m := newBoard(t, boardRules{canCounter: []game.PlayerID{"P0", "P1"}})

	m.ok("P0", play{Card: "c1"})
	w, open := m.state.Sys.Response.Top()
	require.True(t, open)
	assert.Equal(t, "reaction-1", w.ID)
	assert.Equal(t, game.PlayerID("P0"), w.Holder())

	// Out of turn.
	res := m.do("P1", pass("reaction-1"))
	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeSystemBlocked))

	// Not on the allow-list.
	res = m.do("P0", ask{Kind: "pick"})
	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeSystemBlocked))

	m.ok("P0", pass("reaction-1"))
	w, _ = m.state.Sys.Response.Top()
	assert.Equal(t, game.PlayerID("P1"), w.Holder())

	// Allowed, but P0 does not hold priority.
	res = m.do("P0", counter{})
	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeSystemBlocked))

	// A counter reopens the window and hands priority past the actor.
	res = m.ok("P1", counter{})
	assert.Equal(t, []game.EventType{"board.countered", response.EventReset}, res.EventTypes())
	w, _ = m.state.Sys.Response.Top()
	assert.Empty(t, w.Passed)
	assert.Equal(t, game.PlayerID("P0"), w.Holder())

	m.ok("P0", pass("reaction-1"))
	res = m.ok("P1", pass("reaction-1"))
	assert.Equal(t, []game.EventType{response.EventPassed, response.EventClosed}, res.EventTypes())
	assert.False(t, m.state.Sys.Response.IsOpen())
	assert.Equal(t, 1, m.state.Domain.Counters)
}

func TestResponse_SkipsRespondersWithoutContent(t *testing.T) {
	m := newBoard(t, boardRules{canCounter: []game.PlayerID{"P1"}})

	res := m.ok("P0", play{Card: "c1"})
	assert.Equal(t, []game.EventType{"board.played", response.EventOpened, response.EventSkipped}, res.EventTypes())
	w, open := m.state.Sys.Response.Top()
	require.True(t, open)
	assert.Equal(t, game.PlayerID("P1"), w.Holder())

	res = m.ok("P1", pass(w.ID))
	assert.Equal(t, []game.EventType{response.EventPassed, response.EventClosed}, res.EventTypes())
}

func TestResponse_AdvanceBlockedWhileOpen(t *testing.T) {
	m := newBoard(t, boardRules{canCounter: []game.PlayerID{"P0"}, confirmed: true})
	m.ok("P0", play{Card: "c1"})

	res := m.do("P0", game.AdvancePhase{})
	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeSystemBlocked))
	assert.Equal(t, "main", m.state.Phase())
}
