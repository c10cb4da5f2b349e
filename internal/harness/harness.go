package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/store"
	"github.com/roach88/turnstile/internal/testutil"
)

// Game adapts a rule-set for scenarios.
type Game[D any] struct {
	Config   *engine.Config[D]
	Registry *game.Registry

	// Options lists the pending interaction's options. Required for
	// scenarios that use pick.
	Options func(engine.MatchState[D]) ([]interaction.Option, error)

	// Score reads a player's score. Required for score assertions.
	Score func(state D, player game.PlayerID) (int, bool)
}

// Runner plays scenarios for one rule-set.
type Runner interface {
	Run(s *Scenario) (*Result, error)
}

// Harness is the test execution engine for one scenario run.
// It runs scenarios with a deterministic clock and match id.
type Harness[D any] struct {
	game    Game[D]
	store   *store.Store
	clock   *testutil.CommandClock
	matchID string
	logger  *slog.Logger

	state   engine.MatchState[D]
	rng     *rng.Source
	players []game.PlayerID
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database and the match record
//  2. Set up the match from the scenario's seed and players
//  3. Execute steps, checking each against its expect clause
//  4. Evaluate assertions against the final state
//  5. Replay the stored command log and record the state digest
//
// An error is returned only when the scenario cannot be run at all; step
// and assertion mismatches are reported in Result.Errors.
func (g Game[D]) Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	players := make([]game.PlayerID, len(scenario.Players))
	for i, p := range scenario.Players {
		players[i] = game.PlayerID(p)
	}

	h := &Harness[D]{
		game:    g,
		store:   st,
		clock:   testutil.NewCommandClock(),
		matchID: testutil.NewFixedIDGenerator(scenario.MatchID).Generate(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		rng:     rng.New(scenario.Seed),
		players: players,
	}

	ctx := context.Background()
	if err := h.setup(ctx, scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, err
	}

	v := h.view()
	result.Final = v.Final
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, v) {
		result.AddError(msg)
	}

	report, err := store.ReplayMatch(ctx, st, g.Config, g.Registry, h.matchID)
	if err != nil {
		result.AddError(fmt.Sprintf("replay: %v", err))
	} else {
		result.StateDigest = report.StateDigest
	}
	return result, nil
}

func (h *Harness[D]) setup(ctx context.Context, scenario *Scenario) error {
	state, err := engine.NewMatch(h.game.Config, h.players, h.rng)
	if err != nil {
		return fmt.Errorf("failed to set up match: %w", err)
	}
	h.state = state

	err = h.store.CreateMatch(ctx, store.Match{
		ID:      h.matchID,
		RuleSet: h.game.Config.RuleSet.Name(),
		Seed:    scenario.Seed,
		Players: h.players,
	})
	if err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}
	return nil
}

// executeSteps runs every step, recording applied commands in the store.
func (h *Harness[D]) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		cmd, err := h.command(step)
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}

		res := engine.Execute(h.game.Config, h.state, cmd, h.rng, h.players)
		ev := TraceEvent{
			Step:    i + 1,
			Command: string(cmd.Type),
			Player:  string(cmd.PlayerID),
			OK:      res.Success,
			StateID: res.State.Sys.StateID,
		}
		if res.Success {
			h.state = res.State
			for _, t := range res.EventTypes() {
				ev.Events = append(ev.Events, string(t))
			}
			if err := h.store.AppendCommand(ctx, h.matchID, h.state.Sys.StateID, cmd, res.RandomCalls, res.Events); err != nil {
				return fmt.Errorf("step %d: failed to record command: %w", i+1, err)
			}
		} else {
			ev.Error = string(game.CodeOf(res.Err))
			ev.Reason = game.ReasonOf(res.Err)
		}
		result.Trace = append(result.Trace, ev)

		for _, msg := range checkExpect(step.Expect, ev, res.Err) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i+1, cmd.Type, msg))
		}

		h.logger.Info("step completed",
			"step", i+1,
			"command", cmd.Type,
			"player", cmd.PlayerID,
			"ok", res.Success,
			"state_id", ev.StateID,
		)
	}
	return nil
}

// command decodes a step into a command through the rule-set's registry.
func (h *Harness[D]) command(step Step) (game.Command, error) {
	payload := make(map[string]any, len(step.Payload)+1)
	for k, v := range step.Payload {
		payload[k] = v
	}
	if step.Pick != nil {
		id, err := h.pick(*step.Pick)
		if err != nil {
			return game.Command{}, err
		}
		payload["option_id"] = id
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return game.Command{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	p, err := h.game.Registry.DecodeCommand(game.CommandType(step.Command), raw)
	if err != nil {
		return game.Command{}, err
	}
	return h.clock.Command(game.PlayerID(step.Player), p), nil
}

func (h *Harness[D]) pick(index int) (string, error) {
	if h.game.Options == nil {
		return "", fmt.Errorf("pick: rule-set does not list interaction options")
	}
	opts, err := h.game.Options(h.state)
	if err != nil {
		return "", fmt.Errorf("pick: %w", err)
	}
	if opts == nil {
		return "", fmt.Errorf("pick: no pending interaction")
	}
	if index >= len(opts) {
		return "", fmt.Errorf("pick: index %d out of range, %d options", index, len(opts))
	}
	return opts[index].ID, nil
}

func (h *Harness[D]) view() View {
	sys := h.state.Sys
	v := View{
		Final: Final{
			Phase:   sys.Flow.Phase,
			Round:   sys.Flow.Round,
			StateID: sys.StateID,
		},
		Interaction: sys.Interaction.Current,
	}
	if w, ok := sys.Response.Top(); ok {
		v.Window = &w
	}
	if h.game.Score != nil {
		v.Scores = make(map[game.PlayerID]int, len(h.players))
		for _, p := range h.players {
			if s, ok := h.game.Score(h.state.Domain, p); ok {
				v.Scores[p] = s
			}
		}
	}
	return v
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(e *Expect, ev TraceEvent, err error) []string {
	if e == nil || e.Error == "" {
		if !ev.OK {
			return []string{fmt.Sprintf("expected success, got %v", err)}
		}
		if e != nil && e.Events != nil && !slices.Equal(e.Events, ev.Events) {
			return []string{fmt.Sprintf("expected events %v, got %v", e.Events, ev.Events)}
		}
		return nil
	}

	if ev.OK {
		return []string{fmt.Sprintf("expected %s, command succeeded", e.Error)}
	}
	var msgs []string
	if ev.Error != e.Error {
		msgs = append(msgs, fmt.Sprintf("expected error %s, got %v", e.Error, err))
	}
	if e.Reason != "" && ev.Reason != e.Reason {
		msgs = append(msgs, fmt.Sprintf("expected reason %q, got %q", e.Reason, ev.Reason))
	}
	return msgs
}
