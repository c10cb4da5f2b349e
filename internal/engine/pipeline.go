package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
)

// Result is the outcome of Execute.
type Result[D any] struct {
	// Success is false when the command was rejected or failed.
	Success bool

	// State is the new state on success, the unchanged input otherwise.
	State MatchState[D]

	// Events are the logged entries produced by the command, in order.
	Events []eventstream.Entry

	// RandomCalls is the number of RNG draws the command consumed.
	RandomCalls uint64

	// Err is the typed failure when Success is false.
	Err error
}

// EventTypes lists the result's event types in order.
func (r Result[D]) EventTypes() []game.EventType {
	out := make([]game.EventType, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Event.Type()
	}
	return out
}

// Execute runs one command through the pipeline.
//
// On success the returned state has StateID incremented by one and r has
// advanced by Result.RandomCalls draws. On failure state and r are
// untouched and Result.Err holds a *game.Error (possibly wrapped).
// Execute never panics: panics in rule-set or system code are recovered
// into CodeInternal errors.
func Execute[D any](cfg *Config[D], state MatchState[D], cmd game.Command, r *rng.Source, players []game.PlayerID) (res Result[D]) {
	work := r.Clone()
	ctx := newContext(cfg, state.Clone(), work, players, cmd)

	defer func() {
		if p := recover(); p != nil {
			slog.Error("command panicked",
				"command", cmd.Type,
				"player", cmd.PlayerID,
				"panic", fmt.Sprint(p),
			)
			res = failed(state, &game.Error{
				Code:    game.CodeInternal,
				Message: fmt.Sprintf("panic: %v", p),
				Command: cmd.Type,
			})
		}
	}()

	if err := ctx.process(cmd); err != nil {
		return rejected(state, cmd, err)
	}
	if err := ctx.checkGameOver(); err != nil {
		return rejected(state, cmd, err)
	}

	next := ctx.State
	ids := next.Sys.Stream.Append(ctx.emitted...)
	entries := make([]eventstream.Entry, len(ids))
	for i, id := range ids {
		entries[i] = eventstream.Entry{ID: id, Event: ctx.emitted[i]}
	}
	next.Sys.StateID++
	next.Sys.RandomCursor = work.Consumed()

	calls := work.Consumed() - r.Consumed()
	r.Set(work)

	slog.Debug("command applied",
		"command", cmd.Type,
		"player", cmd.PlayerID,
		"state_id", next.Sys.StateID,
		"events", len(entries),
		"random_calls", calls,
		"steps", ctx.budget.steps,
	)

	return Result[D]{
		Success:     true,
		State:       next,
		Events:      entries,
		RandomCalls: calls,
	}
}

func rejected[D any](state MatchState[D], cmd game.Command, err error) Result[D] {
	err = internalError(cmd.Type, err)
	if game.CodeOf(err) == game.CodeInternal || IsQuotaError(err) {
		slog.Error("command failed",
			"command", cmd.Type,
			"player", cmd.PlayerID,
			"state_id", state.Sys.StateID,
			"error", err,
		)
	} else {
		slog.Debug("command rejected",
			"command", cmd.Type,
			"player", cmd.PlayerID,
			"state_id", state.Sys.StateID,
			"code", game.CodeOf(err),
			"error", err,
		)
	}
	return failed(state, err)
}

func failed[D any](state MatchState[D], err error) Result[D] {
	return Result[D]{Success: false, State: state, Err: err}
}
