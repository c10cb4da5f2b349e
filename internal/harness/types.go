package harness

import (
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/response"
)

// TraceEvent records one scenario step.
type TraceEvent struct {
	Step    int      `json:"step"`
	Command string   `json:"command"`
	Player  string   `json:"player"`
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	StateID int64    `json:"state_id"`
	Events  []string `json:"events,omitempty"`
}

// Final summarizes the state a scenario ended in.
type Final struct {
	Phase   string `json:"phase"`
	Round   int    `json:"round"`
	StateID int64  `json:"state_id"`
}

// View is the rule-set independent part of the final state that
// assertions inspect.
type View struct {
	Final
	Interaction *interaction.Interaction
	Window      *response.Window
	Scores      map[game.PlayerID]int
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one entry per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the state the scenario ended in.
	Final Final `json:"final"`

	// StateDigest is the fingerprint of the final state as rebuilt from
	// the stored command log.
	StateDigest string `json:"state_digest,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// countEvents counts logged events of type t across the trace.
func (r *Result) countEvents(t string) int {
	n := 0
	for _, step := range r.Trace {
		for _, e := range step.Events {
			if e == t {
				n++
			}
		}
	}
	return n
}
