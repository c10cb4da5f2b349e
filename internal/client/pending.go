package client

import (
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/tables"
)

// PendingCommand is a command sent to the server and not yet confirmed.
type PendingCommand struct {
	Command game.Command

	// PredictedStateID is the state id the server will assign if nothing
	// else lands first.
	PredictedStateID int64

	Animation     tables.AnimationMode
	Deterministic bool

	// Predicted is true when the command was executed locally. Commands
	// queued behind an unpredicted one are never predicted.
	Predicted   bool
	RandomCalls uint64

	// Digest is engine.Fingerprint of the predicted state after this
	// command. Empty when not predicted.
	Digest string

	// shown is set when the predicted events were handed to the UI.
	shown bool
}

// Snapshot is everything a client needs to start or restart: the state
// with its log stripped, the players and the RNG position.
type Snapshot[D any] struct {
	State    engine.MatchState[D]
	Players  []game.PlayerID
	Seed     string
	Consumed uint64
}

// UpdateMeta accompanies each server state.
type UpdateMeta struct {
	StateID             int64
	LastCommandPlayerID game.PlayerID
}

// Prediction is the result of ProcessCommand.
type Prediction[D any] struct {
	Pending PendingCommand

	// Render is the state to show now.
	Render engine.MatchState[D]

	// Events are the predicted entries the UI may animate. Empty for
	// wait-confirm and unpredicted commands.
	Events []eventstream.Entry

	// Desync is an RngDesync error when the command drew randomness with
	// no known seed. The command is still pending, unpredicted, and its
	// type is demoted until the next sync.
	Desync error
}

// DroppedCommand is a pending command that no longer applies.
type DroppedCommand struct {
	Command game.Command
	Err     error
}

// ReconcileResult describes what an update did to the client.
type ReconcileResult[D any] struct {
	// Stale is true when the update was older than the confirmed state and
	// was ignored.
	Stale bool

	// Confirmed is set when the update confirmed the oldest pending command.
	Confirmed *PendingCommand

	// Rollback is true when the client adopted the server state and
	// replayed its pending commands.
	Rollback bool

	// Divergence is set when a confirmed prediction did not match the
	// server: RngDesync if it drew randomness, ReplayDivergence otherwise.
	Divergence error

	// Dropped lists pending commands whose replay failed.
	Dropped []DroppedCommand

	// NeedsResync asks the transport to request a fresh snapshot.
	NeedsResync bool

	Render engine.MatchState[D]

	// Animate lists rendered entries the UI has not shown yet.
	Animate []eventstream.Entry
}
