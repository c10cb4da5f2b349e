// Package flow describes a rule-set's phase graph and the phase slice of
// the system state.
//
// A phase graph is data: the initial phase, the phase list, and an explicit
// transition table. Leaving a phase runs exit hooks that may halt the
// transition; a halted transition is remembered as a pending intent and
// resumed once nothing blocks it anymore. Whether a match is currently
// halted is never stored: it is derived from the intent plus the presence
// of a blocking interaction or response window.
package flow

import (
	"fmt"
	"slices"

	"github.com/roach88/turnstile/internal/game"
)

// Graph is a phase graph with an explicit transition table.
type Graph struct {
	Initial     string              `json:"initial" yaml:"initial"`
	Phases      []string            `json:"phases" yaml:"phases"`
	Transitions map[string][]string `json:"transitions" yaml:"transitions"`
}

// Validate checks that the graph is closed: the initial phase and every
// transition endpoint are declared, and every phase can be left.
func (g Graph) Validate() error {
	if len(g.Phases) == 0 {
		return fmt.Errorf("phase graph: no phases")
	}
	if !slices.Contains(g.Phases, g.Initial) {
		return fmt.Errorf("phase graph: initial phase %q not declared", g.Initial)
	}
	seen := make(map[string]bool, len(g.Phases))
	for _, p := range g.Phases {
		if seen[p] {
			return fmt.Errorf("phase graph: duplicate phase %q", p)
		}
		seen[p] = true
	}
	for _, p := range g.Phases {
		targets := g.Transitions[p]
		if len(targets) == 0 {
			return fmt.Errorf("phase graph: phase %q has no transitions", p)
		}
		for _, to := range targets {
			if !seen[to] {
				return fmt.Errorf("phase graph: transition %s -> %s targets undeclared phase", p, to)
			}
		}
	}
	for from := range g.Transitions {
		if !seen[from] {
			return fmt.Errorf("phase graph: transitions declared for undeclared phase %q", from)
		}
	}
	return nil
}

// Target resolves the destination of an advance from phase from. An empty
// requested phase selects the first listed transition.
func (g Graph) Target(from, requested string) (string, error) {
	targets := g.Transitions[from]
	if len(targets) == 0 {
		return "", game.Blocked("phase %q has no transitions", from)
	}
	if requested == "" {
		return targets[0], nil
	}
	if !slices.Contains(targets, requested) {
		return "", game.Rejected("no transition from %q to %q", from, requested)
	}
	return requested, nil
}

// Transition is a requested phase change.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// State is the flow slice of the system state.
type State struct {
	Phase string `json:"phase"`
	Round int    `json:"round"`

	// Pending is an advance whose exit hooks halted. It is retried after
	// every batch of events until it goes through.
	Pending *Transition `json:"pending,omitempty"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}

// Halted reports whether a pending advance is still blocked.
func (s State) Halted(blocked bool) bool {
	return s.Pending != nil && blocked
}

// Apply folds a flow event into the state.
func (s State) Apply(p game.EventPayload) State {
	switch ev := p.(type) {
	case PhaseChanged:
		return State{Phase: ev.To, Round: ev.Round}
	case AdvanceHalted:
		out := s.Clone()
		out.Pending = &Transition{From: ev.From, To: ev.To}
		return out
	}
	return s
}

// NextRound returns the round number after moving from -> to: wrapping
// back to the initial phase starts a new round.
func (g Graph) NextRound(current int, to string) int {
	if to == g.Initial {
		return current + 1
	}
	return current
}

// ExitResult is returned by phase-exit hooks.
type ExitResult struct {
	Events []game.Event
	Halt   bool
}

// Event types owned by the flow system.
const (
	EventPhaseChanged  game.EventType = "core.phase_changed"
	EventAdvanceHalted game.EventType = "core.advance_halted"
)

// PhaseChanged records a completed transition.
type PhaseChanged struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Round int    `json:"round"`
}

func (PhaseChanged) EventType() game.EventType { return EventPhaseChanged }
func (PhaseChanged) SystemEvent()              {}

// AdvanceHalted records that exit hooks froze a transition.
type AdvanceHalted struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (AdvanceHalted) EventType() game.EventType { return EventAdvanceHalted }
func (AdvanceHalted) SystemEvent()              {}

// Register adds the flow event variants to r.
func Register(r *game.Registry) {
	game.RegisterEvent[PhaseChanged](r)
	game.RegisterEvent[AdvanceHalted](r)
}
