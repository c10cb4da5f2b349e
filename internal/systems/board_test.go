package systems

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/tables"
)

// board is a small rule-set that exercises every system hook.
type board struct {
	Hand      []string          `json:"hand"`
	Picked    []string          `json:"picked,omitempty"`
	Played    []string          `json:"played,omitempty"`
	Counters  int               `json:"counters"`
	Confirmed bool              `json:"confirmed"`
	Finished  bool              `json:"finished"`
	Trade     map[string]string `json:"trade,omitempty"`
}

// ask queues an interaction for the issuer and, when Also is set, a second
// one for Also.
type ask struct {
	Kind      string        `json:"kind"`
	Generated bool          `json:"generated"`
	Also      game.PlayerID `json:"also,omitempty"`
}

func (ask) CommandType() game.CommandType { return "board.ask" }

type play struct {
	Card string `json:"card"`
}

func (play) CommandType() game.CommandType { return "board.play" }

type counter struct{}

func (counter) CommandType() game.CommandType { return "board.counter" }

type picked struct {
	Option string `json:"option"`
}

func (picked) EventType() game.EventType { return "board.picked" }

type played struct {
	Card string `json:"card"`
}

func (played) EventType() game.EventType { return "board.played" }

type countered struct{}

func (countered) EventType() game.EventType { return "board.countered" }

type confirmed struct{}

func (confirmed) EventType() game.EventType { return "board.confirmed" }

type finished struct{}

func (finished) EventType() game.EventType { return "board.finished" }

type traded struct {
	Give string `json:"give"`
	Take string `json:"take"`
}

func (traded) EventType() game.EventType { return "board.traded" }

type boardRules struct {
	canCounter []game.PlayerID
	autoEnd    bool
	confirmed  bool
}

func (boardRules) Name() string { return "board" }

func (b boardRules) Setup(players []game.PlayerID, r *rng.Source) (board, error) {
	return board{Hand: []string{"x", "y", "z"}, Confirmed: b.confirmed}, nil
}

func (boardRules) Validate(state engine.MatchState[board], cmd game.Command) error {
	return nil
}

func (b boardRules) Execute(state engine.MatchState[board], cmd game.Command, r *rng.Source) ([]game.Event, error) {
	switch p := cmd.Payload.(type) {
	case ask:
		data := interaction.Data{Title: p.Kind}
		if p.Generated {
			data.Generator = "hand"
		} else {
			data.Options = []interaction.Option{{ID: "a"}, {ID: "b"}}
		}
		events := []game.Event{QueueInteraction(cmd, cmd.PlayerID, p.Kind, data)}
		if p.Also != "" {
			events = append(events, QueueInteraction(cmd, p.Also, p.Kind, data))
		}
		return events, nil
	case play:
		return []game.Event{
			game.NewEvent(cmd, played{Card: p.Card}),
			OpenResponseWindow(cmd, "reaction", p.Card, []game.PlayerID{"P0", "P1"}),
		}, nil
	case counter:
		return game.EventsFrom(cmd, countered{}), nil
	}
	return nil, game.Rejected("unknown command %s", cmd.Type)
}

func (boardRules) Reduce(state board, ev game.Event) (board, error) {
	switch p := ev.Payload.(type) {
	case picked:
		state.Picked = append(slices.Clone(state.Picked), p.Option)
		state.Hand = slices.DeleteFunc(slices.Clone(state.Hand), func(c string) bool { return c == p.Option })
	case played:
		state.Played = append(slices.Clone(state.Played), p.Card)
	case countered:
		state.Counters++
	case confirmed:
		state.Confirmed = true
	case finished:
		state.Finished = true
	case traded:
		state.Trade = map[string]string{"give": p.Give, "take": p.Take}
	default:
		return state, fmt.Errorf("unknown event %s", ev.Type())
	}
	return state, nil
}

func (boardRules) IsGameOver(state board) (game.Outcome, bool) {
	if state.Finished {
		return game.Outcome{Reason: "finished"}, true
	}
	return game.Outcome{}, false
}

func (b boardRules) HasRespondableContent(state engine.MatchState[board], player game.PlayerID, windowType string) bool {
	return slices.Contains(b.canCounter, player)
}

// OnPhaseExit asks for confirmation before main can be left.
func (boardRules) OnPhaseExit(ctx *engine.Context[board], phase string) (flow.ExitResult, error) {
	if phase != "main" || ctx.State.Domain.Confirmed {
		return flow.ExitResult{}, nil
	}
	if cur := ctx.State.Sys.Interaction.Current; cur != nil && cur.Kind == "confirm" {
		return flow.ExitResult{Halt: true}, nil
	}
	q := QueueInteraction(ctx.Command, ctx.Command.PlayerID, "confirm", interaction.Data{
		Options: []interaction.Option{{ID: "yes"}},
	})
	return flow.ExitResult{Events: []game.Event{q}, Halt: true}, nil
}

func (b boardRules) OnAutoContinueCheck(ctx *engine.Context[board], phase string) bool {
	return phase == "end" && b.autoEnd
}

func boardRegistry() *Registry[board] {
	reg := NewRegistry[board]()
	reg.RegisterGenerator("hand", func(state engine.MatchState[board], in interaction.Interaction) []interaction.Option {
		out := make([]interaction.Option, len(state.Domain.Hand))
		for i, c := range state.Domain.Hand {
			out[i] = interaction.Option{ID: c}
		}
		return out
	})
	reg.RegisterResolver("pick", func(ctx *engine.Context[board], in interaction.Interaction, c interaction.Choice) ([]game.Event, error) {
		return ctx.Events(picked{Option: c.OptionID}), nil
	})
	reg.RegisterResolver("confirm", func(ctx *engine.Context[board], in interaction.Interaction, c interaction.Choice) ([]game.Event, error) {
		return ctx.Events(confirmed{}), nil
	})
	reg.RegisterResolver("final", func(ctx *engine.Context[board], in interaction.Interaction, c interaction.Choice) ([]game.Event, error) {
		return ctx.Events(finished{}), nil
	})
	// trade is a two-step chain: give, then take.
	reg.RegisterResolver("trade", func(ctx *engine.Context[board], in interaction.Interaction, c interaction.Choice) ([]game.Event, error) {
		give, ok := in.Data.Continuation["give"]
		if !ok {
			next := QueueInteraction(ctx.Command, in.PlayerID, "trade", interaction.Data{
				Title:        "take",
				Options:      []interaction.Option{{ID: "a"}, {ID: "b"}},
				Continuation: in.Continued("give", c.OptionID),
			})
			return []game.Event{next}, nil
		}
		return ctx.Events(traded{Give: give, Take: c.OptionID}), nil
	})
	return reg
}

var boardTables = tables.Tables{
	Commands: map[game.CommandType]tables.CommandTraits{
		"board.ask": {Deterministic: true, Animation: tables.Optimistic},
	},
	Windows: map[string]tables.WindowTraits{
		"reaction": {
			Allow:    []game.CommandType{"board.counter"},
			ReopenOn: []game.EventType{"board.countered"},
		},
	},
	Phases: flow.Graph{
		Initial: "main",
		Phases:  []string{"main", "end"},
		Transitions: map[string][]string{
			"main": {"end"},
			"end":  {"main"},
		},
	},
}

var boardPlayers = []game.PlayerID{"P0", "P1"}

type boardMatch struct {
	t     *testing.T
	cfg   *engine.Config[board]
	state engine.MatchState[board]
	rng   *rng.Source
	clock int64
}

func newBoard(t *testing.T, rules boardRules) *boardMatch {
	t.Helper()
	cfg, err := NewConfig[board](rules, boardRegistry(), boardTables, nil)
	require.NoError(t, err)
	r := rng.New("board")
	st, err := engine.NewMatch(cfg, boardPlayers, r)
	require.NoError(t, err)
	return &boardMatch{t: t, cfg: cfg, state: st, rng: r}
}

// do executes a command and keeps the new state on success.
func (m *boardMatch) do(player game.PlayerID, p game.CommandPayload) engine.Result[board] {
	m.t.Helper()
	m.clock++
	res := engine.Execute(m.cfg, m.state, game.NewCommand(player, p, m.clock), m.rng, boardPlayers)
	if res.Success {
		m.state = res.State
	}
	return res
}

// ok is do that must succeed.
func (m *boardMatch) ok(player game.PlayerID, p game.CommandPayload) engine.Result[board] {
	m.t.Helper()
	res := m.do(player, p)
	require.True(m.t, res.Success, "command %s failed: %v", p.CommandType(), res.Err)
	return res
}

func (m *boardMatch) current() interaction.Interaction {
	m.t.Helper()
	cur := m.state.Sys.Interaction.Current
	require.NotNil(m.t, cur, "no current interaction")
	return *cur
}
