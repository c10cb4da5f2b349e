package client

import (
	"fmt"
	"log/slog"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/tables"
)

// Engine predicts, tracks and reconciles one player's view of a match.
type Engine[D any] struct {
	cfg     *engine.Config[D]
	players []game.PlayerID
	clock   *Clock

	confirmed engine.MatchState[D]
	seed      string
	pending   []PendingCommand

	// tip is confirmed plus every predicted pending command.
	tip engine.MatchState[D]

	// watermark is the last stream id visible in the render while a
	// wait-confirm prediction is pending; hiding says whether it applies.
	watermark int64
	hiding    bool

	demoted map[game.CommandType]bool

	// base is the match RNG at the confirmed cursor.
	base *rng.Source

	// replayed holds the stream ids rebuild produced for pending commands
	// whose events the UI already showed when they were predicted.
	replayed map[int64]bool
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	clock *Clock
}

// WithClock sets the clock used to stamp commands.
func WithClock(c *Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates a client engine from an initial snapshot.
func New[D any](cfg *engine.Config[D], snap Snapshot[D], opts ...Option) *Engine[D] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = NewClock()
	}
	e := &Engine[D]{cfg: cfg, clock: o.clock}
	e.ApplySync(snap)
	return e
}

// ApplySync replaces everything with a fresh snapshot: confirmed state,
// RNG position and players. Pending commands are discarded, demotions
// lifted.
func (e *Engine[D]) ApplySync(snap Snapshot[D]) {
	e.players = append([]game.PlayerID(nil), snap.Players...)
	e.confirmed = snap.State.WithoutLog()
	e.pending = nil
	e.seed = ""
	e.demoted = make(map[game.CommandType]bool)
	e.base = nil
	e.SyncRandom(snap.Seed, snap.Consumed)

	slog.Debug("client synced",
		"state_id", e.confirmed.Sys.StateID,
		"seed_known", e.seed != "",
	)
}

// SyncRandom aligns the client RNG with the server's. An empty seed marks
// the seed unknown; commands that draw randomness then cannot be
// predicted. Demoted command types are restored.
func (e *Engine[D]) SyncRandom(seed string, consumed uint64) {
	e.seed = seed
	e.confirmed.Sys.RandomCursor = consumed
	clear(e.demoted)
	e.rebuild()
}

// ProcessCommand stamps a command, predicts it when its type allows and
// appends it to the pending list. The caller submits Pending.Command to
// the server.
//
// A command that fails local prediction is returned as an error and not
// appended: the server would reject it too.
func (e *Engine[D]) ProcessCommand(player game.PlayerID, payload game.CommandPayload) (Prediction[D], error) {
	cmd := game.NewCommand(player, payload, e.clock.Next())
	traits := e.cfg.Tables.Command(cmd.Type)
	p := PendingCommand{
		Command:          cmd,
		PredictedStateID: e.confirmed.Sys.StateID + int64(len(e.pending)) + 1,
		Animation:        traits.Animation,
		Deterministic:    traits.Deterministic,
	}

	var out Prediction[D]
	if e.canPredict(cmd.Type) {
		res := engine.Execute(e.cfg, e.tip, cmd, e.rngFor(e.tip), e.players)
		if !res.Success {
			return Prediction[D]{}, res.Err
		}
		if res.RandomCalls > 0 && e.seed == "" {
			e.demoted[cmd.Type] = true
			out.Desync = game.Errorf(game.CodeRngDesync,
				"%s drew %d random values without a known seed", cmd.Type, res.RandomCalls).WithCommand(cmd.Type)
			slog.Warn("command demoted from prediction",
				"command", cmd.Type,
				"random_calls", res.RandomCalls,
				"error", out.Desync,
			)
		} else {
			digest, err := engine.Fingerprint(res.State)
			if err != nil {
				return Prediction[D]{}, fmt.Errorf("fingerprint prediction: %w", err)
			}
			p.Predicted = true
			p.RandomCalls = res.RandomCalls
			p.Digest = digest
			if p.Animation == tables.WaitConfirm && !e.hiding {
				e.hiding = true
				e.watermark = e.tip.Sys.Stream.LastID()
			}
			e.tip = res.State
			if !e.hiding {
				p.shown = true
				out.Events = res.Events
			}
		}
	}

	e.pending = append(e.pending, p)
	out.Pending = p
	out.Render = e.Render()
	return out, nil
}

// canPredict reports whether a command of type ct may run locally now.
func (e *Engine[D]) canPredict(ct game.CommandType) bool {
	if !e.cfg.Tables.Command(ct).Deterministic || e.demoted[ct] {
		return false
	}
	for _, p := range e.pending {
		if !p.Predicted {
			return false
		}
	}
	return true
}

// rngFor returns the match RNG positioned at state.
func (e *Engine[D]) rngFor(state engine.MatchState[D]) *rng.Source {
	cursor := state.Sys.RandomCursor
	if e.base == nil || e.base.Seed() != e.seed || e.base.Consumed() > cursor {
		return rng.At(e.seed, cursor)
	}
	r := e.base.Clone()
	r.AdvanceTo(cursor)
	return r
}

// syncBase moves base to the confirmed cursor, rebuilding it only when the
// seed changed or the cursor went backwards.
func (e *Engine[D]) syncBase() {
	cursor := e.confirmed.Sys.RandomCursor
	if e.base == nil || e.base.Seed() != e.seed || e.base.Consumed() > cursor {
		e.base = rng.At(e.seed, cursor)
		return
	}
	e.base.AdvanceTo(cursor)
}

// rebuild recomputes tip, pending predictions and watermark from the
// confirmed state. Commands whose replay fails are removed and returned.
func (e *Engine[D]) rebuild() []DroppedCommand {
	tip := e.confirmed
	e.hiding = false
	e.watermark = 0
	e.replayed = make(map[int64]bool)
	e.syncBase()

	var kept []PendingCommand
	var dropped []DroppedCommand
	predicting := true
	for _, p := range e.pending {
		if p.Predicted && predicting && !e.demoted[p.Command.Type] {
			res := engine.Execute(e.cfg, tip, p.Command, e.rngFor(tip), e.players)
			if !res.Success {
				dropped = append(dropped, DroppedCommand{
					Command: p.Command,
					Err: &game.Error{
						Code:    game.CodeReplayDivergence,
						Message: fmt.Sprintf("pending command no longer applies: %v", res.Err),
						Command: p.Command.Type,
					},
				})
				continue
			}
			if res.RandomCalls > 0 && e.seed == "" {
				e.demoted[p.Command.Type] = true
				p.Predicted, p.Digest, p.RandomCalls = false, "", 0
				predicting = false
			} else {
				digest, err := engine.Fingerprint(res.State)
				if err != nil {
					dropped = append(dropped, DroppedCommand{Command: p.Command, Err: err})
					continue
				}
				if p.Animation == tables.WaitConfirm && !e.hiding {
					e.hiding = true
					e.watermark = tip.Sys.Stream.LastID()
				}
				p.Digest = digest
				p.RandomCalls = res.RandomCalls
				if p.shown {
					for id := tip.Sys.Stream.LastID() + 1; id <= res.State.Sys.Stream.LastID(); id++ {
						e.replayed[id] = true
					}
				}
				tip = res.State
			}
		} else {
			p.Predicted, p.Digest, p.RandomCalls = false, "", 0
			predicting = false
		}
		p.PredictedStateID = e.confirmed.Sys.StateID + int64(len(kept)) + 1
		kept = append(kept, p)
	}
	e.pending = kept
	e.tip = tip
	return dropped
}

// HasPendingCommands reports whether any command awaits confirmation.
func (e *Engine[D]) HasPendingCommands() bool { return len(e.pending) > 0 }

// Pending returns a copy of the pending list, oldest first.
func (e *Engine[D]) Pending() []PendingCommand {
	return append([]PendingCommand(nil), e.pending...)
}

// Confirmed returns the last server-confirmed state.
func (e *Engine[D]) Confirmed() engine.MatchState[D] { return e.confirmed }

// ConfirmedStateID returns the state id of the confirmed state.
func (e *Engine[D]) ConfirmedStateID() int64 { return e.confirmed.Sys.StateID }

// Tip returns the fully predicted state, hidden entries included.
func (e *Engine[D]) Tip() engine.MatchState[D] { return e.tip }

// Watermark returns the wait-confirm watermark, if one applies.
func (e *Engine[D]) Watermark() (int64, bool) { return e.watermark, e.hiding }

// Demoted reports whether ct is excluded from prediction until the next
// sync.
func (e *Engine[D]) Demoted(ct game.CommandType) bool { return e.demoted[ct] }

// Seed returns the known RNG seed, or "".
func (e *Engine[D]) Seed() string { return e.seed }
