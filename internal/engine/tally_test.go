package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/turnstile/internal/canonical"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/tables"
)

// tally is a minimal rule-set used to exercise the pipeline without any of
// the real systems.
type tally struct {
	Total int   `json:"total"`
	Rolls []int `json:"rolls,omitempty"`
	Won   bool  `json:"won,omitempty"`
}

type add struct {
	N int `json:"n"`
}

func (add) CommandType() game.CommandType { return "tally.add" }

type roll struct{}

func (roll) CommandType() game.CommandType { return "tally.roll" }

type rollThenFail struct{}

func (rollThenFail) CommandType() game.CommandType { return "tally.roll_then_fail" }

type explode struct{}

func (explode) CommandType() game.CommandType { return "tally.explode" }

type win struct{}

func (win) CommandType() game.CommandType { return "tally.win" }

type added struct {
	N int `json:"n"`
}

func (added) EventType() game.EventType { return "tally.added" }

type rolled struct {
	Value int `json:"value"`
}

func (rolled) EventType() game.EventType { return "tally.rolled" }

type won struct{}

func (won) EventType() game.EventType { return "tally.won" }

type corrupt struct{}

func (corrupt) EventType() game.EventType { return "tally.corrupt" }

type tallyRules struct{}

func (tallyRules) Name() string { return "tally" }

func (tallyRules) Setup(players []game.PlayerID, r *rng.Source) (tally, error) {
	// One draw so setup is visible in the RNG cursor.
	return tally{Total: r.Integer(0, 0)}, nil
}

func (tallyRules) Validate(state MatchState[tally], cmd game.Command) error {
	if a, ok := cmd.Payload.(add); ok && a.N <= 0 {
		return game.Rejected("add needs a positive amount").WithCommand(cmd.Type)
	}
	return nil
}

func (tallyRules) Execute(state MatchState[tally], cmd game.Command, r *rng.Source) ([]game.Event, error) {
	switch p := cmd.Payload.(type) {
	case add:
		return game.EventsFrom(cmd, added{N: p.N}), nil
	case roll:
		return game.EventsFrom(cmd, rolled{Value: r.Integer(1, 6)}), nil
	case rollThenFail:
		r.Integer(1, 6)
		return nil, errors.New("dice fell off the table")
	case explode:
		panic("kaboom")
	case win:
		return game.EventsFrom(cmd, won{}), nil
	}
	return nil, game.Rejected("unknown command %s", cmd.Type)
}

func (tallyRules) Reduce(state tally, ev game.Event) (tally, error) {
	switch p := ev.Payload.(type) {
	case added:
		state.Total += p.N
	case rolled:
		state.Rolls = append(slices.Clone(state.Rolls), p.Value)
	case won:
		state.Won = true
	default:
		return state, fmt.Errorf("unknown event %s", ev.Type())
	}
	return state, nil
}

func (tallyRules) IsGameOver(state tally) (game.Outcome, bool) {
	if state.Won || state.Total >= 100 {
		return game.Outcome{Winners: []game.PlayerID{"P0"}, Reason: "target reached"}, true
	}
	return game.Outcome{}, false
}

// gate blocks every command from P9.
type gate struct{}

func (gate) Name() string { return "gate" }

func (gate) BeforeCommand(ctx *Context[tally], cmd game.Command) error {
	if cmd.PlayerID == "P9" {
		return game.Blocked("P9 is benched")
	}
	return nil
}

// bonus grants +1 whenever 7 is added. Two instances share a key so the
// bonus fires once per triggering event.
type bonus struct{ name string }

func (b bonus) Name() string { return b.name }

func (b bonus) AfterCommand(ctx *Context[tally], batch []Emitted) ([]game.Event, error) {
	var out []game.Event
	for _, e := range batch {
		if a, ok := e.Payload.(added); ok && a.N == 7 {
			if ctx.Once(canonical.Key("bonus", fmt.Sprint(e.Seq))) {
				out = append(out, ctx.Event(added{N: 1}))
			}
		}
	}
	return out, nil
}

// echo answers every added event with another one, forever.
type echo struct{}

func (echo) Name() string { return "echo" }

func (echo) AfterCommand(ctx *Context[tally], batch []Emitted) ([]game.Event, error) {
	var out []game.Event
	for _, e := range batch {
		if _, ok := e.Payload.(added); ok {
			out = append(out, ctx.Event(added{N: 1}))
		}
	}
	return out, nil
}

// recurse dispatches add{5} for every added{5}.
type recurse struct{}

func (recurse) Name() string { return "recurse" }

func (recurse) AfterCommand(ctx *Context[tally], batch []Emitted) ([]game.Event, error) {
	for _, e := range batch {
		if a, ok := e.Payload.(added); ok && a.N == 5 {
			if err := ctx.Dispatch(game.NewCommand(ctx.Command.PlayerID, add{N: 5}, ctx.Command.Timestamp)); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// corrupter emits an event the rule-set cannot reduce.
type corrupter struct{}

func (corrupter) Name() string { return "corrupter" }

func (corrupter) AfterCommand(ctx *Context[tally], batch []Emitted) ([]game.Event, error) {
	for _, e := range batch {
		if a, ok := e.Payload.(added); ok && a.N == 13 {
			return []game.Event{ctx.Event(corrupt{})}, nil
		}
	}
	return nil, nil
}

// phases initialises the flow slice like the real flow system would.
type phases struct{}

func (phases) Name() string { return "phases" }

func (phases) Init(state *MatchState[tally], players []game.PlayerID) error {
	state.Sys.Flow = flow.State{Phase: "main", Round: 1}
	return nil
}

var tallyPlayers = []game.PlayerID{"P0", "P1"}

func tallyConfig(systems []System[tally], opts ...Option) *Config[tally] {
	cfg, err := NewConfig[tally](tallyRules{}, tables.Tables{}, systems, opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func tablesZero() tables.Tables { return tables.Tables{} }
