package engine

import (
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
)

// RuleSet is the contract a concrete game implements.
//
// Every method must be deterministic: the same inputs (including the RNG
// position) produce the same outputs on every machine. Validate and Reduce
// must not touch the RNG.
type RuleSet[D any] interface {
	// Name identifies the rule-set in logs and persisted matches.
	Name() string

	// Setup creates the initial domain state.
	Setup(players []game.PlayerID, r *rng.Source) (D, error)

	// Validate accepts or rejects a command against the domain state.
	// Rejections should be *game.Error with CodeValidationRejected.
	Validate(state MatchState[D], cmd game.Command) error

	// Execute produces the events for a validated command. Core commands
	// claimed by a system never reach Execute.
	Execute(state MatchState[D], cmd game.Command, r *rng.Source) ([]game.Event, error)

	// Reduce folds one domain event into the domain state. System events
	// are never passed to Reduce.
	Reduce(state D, ev game.Event) (D, error)

	// IsGameOver reports whether the match has ended.
	IsGameOver(state D) (game.Outcome, bool)
}
