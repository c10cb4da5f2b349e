package engine

import (
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
)

// System is a named participant in the pipeline. A system implements any
// subset of the hook interfaces below; hooks run in the order systems are
// listed in Config.Systems.
//
// Rule-sets may implement PhaseEnterer, PhaseExiter and AutoContinuer too.
// The flow system consults them after every system.
type System[D any] interface {
	Name() string
}

// Initializer sets up a system's slice when a match is created.
type Initializer[D any] interface {
	Init(state *MatchState[D], players []game.PlayerID) error
}

// CommandGate may veto a command before validation (pipeline step 1).
type CommandGate[D any] interface {
	BeforeCommand(ctx *Context[D], cmd game.Command) error
}

// CommandHandler claims commands the system executes itself (step 3).
// Returning handled=false passes the command on.
type CommandHandler[D any] interface {
	HandleCommand(ctx *Context[D], cmd game.Command) (events []game.Event, handled bool, err error)
}

// AfterCommander reacts to each new batch of events (step 5). Returned
// events are reduced and offered to every AfterCommander as the next batch.
// A hook may also call ctx.Emit or ctx.Dispatch directly.
type AfterCommander[D any] interface {
	AfterCommand(ctx *Context[D], batch []Emitted) ([]game.Event, error)
}

// PhaseEnterer runs after a phase has been entered.
type PhaseEnterer[D any] interface {
	OnPhaseEnter(ctx *Context[D], phase string) ([]game.Event, error)
}

// PhaseExiter runs before a phase is left and may halt the transition.
// Exit hooks are re-invoked when a halted transition resumes, so they must
// recognise work they already did (usually from domain state).
type PhaseExiter[D any] interface {
	OnPhaseExit(ctx *Context[D], phase string) (flow.ExitResult, error)
}

// AutoContinuer lets a phase complete itself without a player command.
type AutoContinuer[D any] interface {
	OnAutoContinueCheck(ctx *Context[D], phase string) bool
}

// PhaseHooks is the full set of phase hooks. Rule-sets usually implement
// only the parts they need.
type PhaseHooks[D any] interface {
	PhaseEnterer[D]
	PhaseExiter[D]
	AutoContinuer[D]
}

// Emitted is an event with its ordinal within the current invocation.
// Ordinals are stable across replays and are the natural idempotency
// subject for triggered effects.
type Emitted struct {
	Seq int
	game.Event
}
