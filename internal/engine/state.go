package engine

import (
	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/response"
)

// MatchState is the full state of a match.
//
// Domain is opaque to the engine and only ever replaced by RuleSet.Reduce.
// Rule-sets must treat D as immutable: Reduce returns a new value and never
// mutates maps or slices reachable from its input.
type MatchState[D any] struct {
	Domain D           `json:"domain"`
	Sys    SystemState `json:"sys"`
}

// SystemState holds one slice per system. A system only ever touches its
// own slice.
type SystemState struct {
	Flow        flow.State        `json:"flow"`
	Interaction interaction.State `json:"interaction"`
	Response    response.State    `json:"response"`
	Stream      eventstream.Log   `json:"stream"`

	// StateID grows by exactly one per applied top-level command.
	StateID int64 `json:"state_id"`

	// RandomCursor is the number of RNG draws taken since the match began.
	// Together with the seed it reproduces the RNG position.
	RandomCursor uint64 `json:"random_cursor"`

	// Outcome is set once, at game over.
	Outcome *game.Outcome `json:"outcome,omitempty"`
}

// Clone returns a deep copy of the system state.
func (s SystemState) Clone() SystemState {
	out := s
	out.Flow = s.Flow.Clone()
	out.Interaction = s.Interaction.Clone()
	out.Response = s.Response.Clone()
	out.Stream = s.Stream.Clone()
	if s.Outcome != nil {
		o := *s.Outcome
		o.Winners = append([]game.PlayerID(nil), s.Outcome.Winners...)
		out.Outcome = &o
	}
	return out
}

// Clone returns a copy whose system state shares nothing with s. The
// domain value is copied shallowly; it is immutable by contract.
func (s MatchState[D]) Clone() MatchState[D] {
	return MatchState[D]{Domain: s.Domain, Sys: s.Sys.Clone()}
}

// Phase is shorthand for the current phase.
func (s MatchState[D]) Phase() string { return s.Sys.Flow.Phase }

// StateID is shorthand for the state id.
func (s MatchState[D]) StateID() int64 { return s.Sys.StateID }

// Blocked reports whether an interaction or response window is pending.
// This is the halt predicate for phase transitions.
func (s MatchState[D]) Blocked() bool {
	return s.Sys.Interaction.Pending() || s.Sys.Response.IsOpen()
}

// Halted reports whether a phase transition is frozen.
func (s MatchState[D]) Halted() bool {
	return s.Sys.Flow.Halted(s.Blocked())
}

// Over reports whether the match has ended.
func (s MatchState[D]) Over() bool { return s.Sys.Outcome != nil }

// WithoutLog returns a copy with the retained stream entries removed. The
// id counter is kept so ids continue where the server left off.
func (s MatchState[D]) WithoutLog() MatchState[D] {
	out := s.Clone()
	out.Sys.Stream.Entries = nil
	return out
}

// WithLogWindow returns a copy retaining at most max stream entries.
func (s MatchState[D]) WithLogWindow(max int) MatchState[D] {
	out := s.Clone()
	out.Sys.Stream.Truncate(max)
	return out
}
