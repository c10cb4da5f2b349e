package client

import (
	"fmt"
	"log/slog"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
)

// Reconcile folds an authoritative server state into the client.
//
// When the update confirms the oldest pending command (state id and
// player match) the command is dropped from the pending list. A predicted
// command must also match its predicted digest; a mismatch demotes the
// command type and forces a rollback of the rest. Any other update is a
// rollback: the server state is adopted and the remaining pending commands
// are replayed on top of it, dropping the ones that no longer apply.
//
// Animate is measured from the last confirmed stream id, since predicted
// ids are reassigned by a rollback. The confirmed head's entries and the
// replays of pending commands already shown are left out.
//
// Updates at or below the confirmed state id are ignored.
func (e *Engine[D]) Reconcile(server engine.MatchState[D], meta UpdateMeta) (ReconcileResult[D], error) {
	var out ReconcileResult[D]
	current := e.confirmed.Sys.StateID
	if meta.StateID <= current {
		out.Stale = true
		out.Render = e.Render()
		return out, nil
	}
	played := e.confirmed.Sys.Stream.LastID()

	switch {
	case meta.StateID != current+1:
		// Updates were missed; nothing pending can be trusted.
		out.Rollback = true
		out.NeedsResync = true
		for _, p := range e.pending {
			out.Dropped = append(out.Dropped, DroppedCommand{
				Command: p.Command,
				Err: game.Errorf(game.CodeReplayDivergence,
					"missed updates %d..%d", current+1, meta.StateID-1).WithCommand(p.Command.Type),
			})
		}
		e.pending = nil

	case len(e.pending) > 0 && e.pending[0].Command.PlayerID == meta.LastCommandPlayerID:
		head := e.pending[0]
		e.pending = e.pending[1:]
		out.Confirmed = &head
		if head.Predicted {
			digest, err := engine.Fingerprint(server)
			if err != nil {
				return ReconcileResult[D]{}, fmt.Errorf("fingerprint server state: %w", err)
			}
			if digest != head.Digest {
				out.Rollback = true
				out.Divergence = e.diverged(head)
			} else if head.shown {
				played = server.Sys.Stream.LastID()
			}
		}

	default:
		out.Rollback = true
	}

	e.confirmed = server
	dropped := e.rebuild()
	out.Dropped = append(out.Dropped, dropped...)
	if len(dropped) > 0 {
		out.NeedsResync = true
	}
	out.Render = e.Render()
	out.Animate = e.unplayed(out.Render, played)

	slog.Debug("client reconciled",
		"state_id", meta.StateID,
		"player", meta.LastCommandPlayerID,
		"confirmed", out.Confirmed != nil,
		"rollback", out.Rollback,
		"dropped", len(out.Dropped),
		"pending", len(e.pending),
	)
	return out, nil
}

// diverged demotes a command type whose prediction did not match.
func (e *Engine[D]) diverged(p PendingCommand) error {
	e.demoted[p.Command.Type] = true
	code := game.CodeReplayDivergence
	if p.RandomCalls > 0 {
		code = game.CodeRngDesync
	}
	err := game.Errorf(code, "prediction for %s diverged from the server", p.Command.Type).WithCommand(p.Command.Type)
	slog.Warn("prediction diverged",
		"command", p.Command.Type,
		"state_id", p.PredictedStateID,
		"random_calls", p.RandomCalls,
		"error", err,
	)
	return err
}

// Reject handles the server refusing the oldest pending command. The
// command is dropped and the rest are replayed.
func (e *Engine[D]) Reject(reason error) ReconcileResult[D] {
	var out ReconcileResult[D]
	if len(e.pending) > 0 {
		out.Dropped = []DroppedCommand{{Command: e.pending[0].Command, Err: reason}}
		e.pending = e.pending[1:]
		out.Rollback = true
	}
	dropped := e.rebuild()
	out.Dropped = append(out.Dropped, dropped...)
	out.NeedsResync = len(dropped) > 0
	out.Render = e.Render()
	out.Animate = e.unplayed(out.Render, e.confirmed.Sys.Stream.LastID())
	return out
}
