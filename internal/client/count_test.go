package client

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/systems"
	"github.com/roach88/turnstile/internal/tables"
)

// count is the rule-set the client tests predict against.
type count struct {
	N        int           `json:"n"`
	Revealed bool          `json:"revealed"`
	Rolls    []int         `json:"rolls,omitempty"`
	Claimed  game.PlayerID `json:"claimed,omitempty"`
	Draws    []int         `json:"draws,omitempty"`
}

type inc struct{}

func (inc) CommandType() game.CommandType { return "count.inc" }

type reveal struct{}

func (reveal) CommandType() game.CommandType { return "count.reveal" }

type roll struct {
	Times int `json:"times"`
}

func (roll) CommandType() game.CommandType { return "count.roll" }

type claim struct{}

func (claim) CommandType() game.CommandType { return "count.claim" }

type draw struct{}

func (draw) CommandType() game.CommandType { return "count.draw" }

type incremented struct{}

func (incremented) EventType() game.EventType { return "count.incremented" }

type revealed struct{}

func (revealed) EventType() game.EventType { return "count.revealed" }

type rolled struct {
	Value int `json:"value"`
}

func (rolled) EventType() game.EventType { return "count.rolled" }

type claimed struct {
	By game.PlayerID `json:"by"`
}

func (claimed) EventType() game.EventType { return "count.claimed" }

type drawn struct {
	Value int `json:"value"`
}

func (drawn) EventType() game.EventType { return "count.drawn" }

type countRules struct{}

func (countRules) Name() string { return "count" }

func (countRules) Setup(players []game.PlayerID, r *rng.Source) (count, error) {
	return count{}, nil
}

func (countRules) Validate(state engine.MatchState[count], cmd game.Command) error {
	if _, ok := cmd.Payload.(claim); ok && state.Domain.Claimed != "" {
		return game.Rejected("already claimed by %s", state.Domain.Claimed).WithCommand(cmd.Type)
	}
	return nil
}

func (countRules) Execute(state engine.MatchState[count], cmd game.Command, r *rng.Source) ([]game.Event, error) {
	switch p := cmd.Payload.(type) {
	case inc:
		return game.EventsFrom(cmd, incremented{}), nil
	case reveal:
		return game.EventsFrom(cmd, revealed{}), nil
	case roll:
		times := max(p.Times, 1)
		out := make([]game.Event, times)
		for i := range out {
			out[i] = game.NewEvent(cmd, rolled{Value: r.Integer(1, 6)})
		}
		return out, nil
	case claim:
		return game.EventsFrom(cmd, claimed{By: cmd.PlayerID}), nil
	case draw:
		return game.EventsFrom(cmd, drawn{Value: r.Integer(1, 100)}), nil
	}
	return nil, game.Rejected("unknown command %s", cmd.Type)
}

func (countRules) Reduce(state count, ev game.Event) (count, error) {
	switch p := ev.Payload.(type) {
	case incremented:
		state.N++
	case revealed:
		state.Revealed = true
	case rolled:
		state.Rolls = append(slices.Clone(state.Rolls), p.Value)
	case claimed:
		state.Claimed = p.By
	case drawn:
		state.Draws = append(slices.Clone(state.Draws), p.Value)
	default:
		return state, fmt.Errorf("unknown event %s", ev.Type())
	}
	return state, nil
}

func (countRules) IsGameOver(state count) (game.Outcome, bool) {
	return game.Outcome{}, false
}

var countTables = tables.Tables{
	Commands: map[game.CommandType]tables.CommandTraits{
		"count.inc":    {Deterministic: true, Animation: tables.Optimistic},
		"count.reveal": {Deterministic: true, Animation: tables.WaitConfirm},
		"count.roll":   {Deterministic: true, Animation: tables.Optimistic},
		"count.claim":  {Deterministic: true, Animation: tables.Optimistic},
	},
	Phases: flow.Graph{
		Initial:     "play",
		Phases:      []string{"play"},
		Transitions: map[string][]string{"play": {"play"}},
	},
}

var countPlayers = []game.PlayerID{"P0", "P1"}

func countConfig(t *testing.T) *engine.Config[count] {
	t.Helper()
	cfg, err := systems.NewConfig[count](countRules{}, systems.NewRegistry[count](), countTables, nil)
	require.NoError(t, err)
	return cfg
}

// server is the authoritative side of a client test.
type server struct {
	t     *testing.T
	cfg   *engine.Config[count]
	seed  string
	rng   *rng.Source
	state engine.MatchState[count]
	clock int64
}

func newServer(t *testing.T, seed string) *server {
	t.Helper()
	cfg := countConfig(t)
	r := rng.New(seed)
	st, err := engine.NewMatch(cfg, countPlayers, r)
	require.NoError(t, err)
	return &server{t: t, cfg: cfg, seed: seed, rng: r, state: st, clock: 1000}
}

// snapshot builds the sync a connecting client receives. An empty seed
// withholds the RNG seed.
func (s *server) snapshot(seed string) Snapshot[count] {
	return Snapshot[count]{
		State:    s.state.WithoutLog(),
		Players:  countPlayers,
		Seed:     seed,
		Consumed: s.rng.Consumed(),
	}
}

// apply executes cmd and returns the update the server would broadcast.
func (s *server) apply(cmd game.Command) (engine.MatchState[count], UpdateMeta) {
	s.t.Helper()
	res := engine.Execute(s.cfg, s.state, cmd, s.rng, countPlayers)
	require.True(s.t, res.Success, "server rejected %s: %v", cmd.Type, res.Err)
	s.state = res.State
	return res.State, UpdateMeta{StateID: res.State.Sys.StateID, LastCommandPlayerID: cmd.PlayerID}
}

// opponent applies a command issued by another client.
func (s *server) opponent(player game.PlayerID, p game.CommandPayload) (engine.MatchState[count], UpdateMeta) {
	s.t.Helper()
	s.clock++
	return s.apply(game.NewCommand(player, p, s.clock))
}

func newClient(t *testing.T, srv *server, seed string) *Engine[count] {
	t.Helper()
	return New(countConfig(t), srv.snapshot(seed))
}

func predict(t *testing.T, c *Engine[count], player game.PlayerID, p game.CommandPayload) Prediction[count] {
	t.Helper()
	pred, err := c.ProcessCommand(player, p)
	require.NoError(t, err)
	return pred
}

func reconcile(t *testing.T, c *Engine[count], st engine.MatchState[count], meta UpdateMeta) ReconcileResult[count] {
	t.Helper()
	res, err := c.Reconcile(st, meta)
	require.NoError(t, err)
	return res
}

func entryIDs(st engine.MatchState[count]) []int64 {
	var ids []int64
	for _, e := range st.Sys.Stream.Entries {
		ids = append(ids, e.ID)
	}
	return ids
}
