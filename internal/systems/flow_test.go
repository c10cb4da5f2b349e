package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
)

func TestFlow_InitEntersInitialPhase(t *testing.T) {
	m := newBoard(t, boardRules{})
	assert.Equal(t, flow.State{Phase: "main", Round: 1}, m.state.Sys.Flow)
}

func TestFlow_AdvanceWithoutHalt(t *testing.T) {
	m := newBoard(t, boardRules{confirmed: true})

	res := m.ok("P0", game.AdvancePhase{})
	assert.Equal(t, []game.EventType{flow.EventPhaseChanged}, res.EventTypes())
	assert.Equal(t, "end", m.state.Phase())

	m.ok("P0", game.AdvancePhase{To: "main"})
	assert.Equal(t, "main", m.state.Phase())
	assert.Equal(t, 2, m.state.Sys.Flow.Round)
}

func TestFlow_IllegalTargetIsRejected(t *testing.T) {
	m := newBoard(t, boardRules{confirmed: true})

	res := m.do("P0", game.AdvancePhase{To: "main"})
	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeValidationRejected))
}

func TestFlow_HaltThenResume(t *testing.T) {
	m := newBoard(t, boardRules{})

	res := m.ok("P0", game.AdvancePhase{})
	assert.Equal(t, []game.EventType{interaction.EventQueued, flow.EventAdvanceHalted}, res.EventTypes())
	assert.Equal(t, "main", m.state.Phase())
	assert.True(t, m.state.Halted())
	assert.Equal(t, &flow.Transition{From: "main", To: "end"}, m.state.Sys.Flow.Pending)

	// A second advance is refused while the choice is open.
	res = m.do("P0", game.AdvancePhase{})
	require.False(t, res.Success)
	assert.True(t, game.IsCode(res.Err, game.CodeSystemBlocked))

	res = m.ok("P0", respond("confirm-1", "yes"))
	assert.Equal(t, []game.EventType{
		interaction.EventResolved,
		"board.confirmed",
		flow.EventPhaseChanged,
	}, res.EventTypes())
	assert.Equal(t, "end", m.state.Phase())
	assert.False(t, m.state.Halted())
	assert.Nil(t, m.state.Sys.Flow.Pending)
}

func TestFlow_AutoContinue(t *testing.T) {
	m := newBoard(t, boardRules{confirmed: true, autoEnd: true})

	res := m.ok("P0", game.AdvancePhase{})
	assert.Equal(t, []game.EventType{flow.EventPhaseChanged, flow.EventPhaseChanged}, res.EventTypes())
	assert.Equal(t, "main", m.state.Phase())
	assert.Equal(t, 2, m.state.Sys.Flow.Round)
	assert.Equal(t, int64(1), m.state.StateID())
}

func TestNewFlowSystem_ValidatesGraph(t *testing.T) {
	_, err := NewFlowSystem[board](flow.Graph{Initial: "main", Phases: []string{"main"}})
	assert.Error(t, err)
}
