// Package interaction implements the choice state machine: a single current
// interaction that blocks its player's other commands, plus a FIFO queue of
// interactions waiting their turn.
//
// Everything here is plain data. Interactions travel inside the match state
// (and therefore over the wire and into replays), so options are either a
// static list or the name of a generator that the owning system re-invokes
// against the latest state. No closures are ever stored.
package interaction

import (
	"fmt"

	"github.com/roach88/turnstile/internal/game"
)

// Option is one selectable answer.
type Option struct {
	ID    string            `json:"id"`
	Label string            `json:"label,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Data is the kind-specific body of an interaction.
type Data struct {
	Title string `json:"title,omitempty"`

	// Options is the static option list. Ignored when Generator is set.
	Options []Option `json:"options,omitempty"`

	// Generator names an option generator registered for the rule-set.
	// Options are recomputed from current state on display and on response.
	Generator string `json:"generator,omitempty"`

	// FreeForm interactions accept a Value instead of an option id.
	FreeForm bool `json:"free_form,omitempty"`

	// Continuation carries context between steps of a multi-step choice.
	Continuation map[string]string `json:"continuation,omitempty"`

	// SourceID identifies what caused the interaction (card, ability, phase).
	SourceID string `json:"source_id,omitempty"`
}

// Interaction is a request for one player's choice.
type Interaction struct {
	ID       string        `json:"id"`
	PlayerID game.PlayerID `json:"player_id"`
	Kind     string        `json:"kind"`
	Data     Data          `json:"data"`
}

// Choice is a player's answer.
type Choice struct {
	OptionID string `json:"option_id,omitempty"`
	Value    string `json:"value,omitempty"`
}

// Continued returns a copy of the continuation map with extra keys set.
func (in Interaction) Continued(kv ...string) map[string]string {
	out := make(map[string]string, len(in.Data.Continuation)+len(kv)/2)
	for k, v := range in.Data.Continuation {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

// State is the interaction slice of the system state.
//
// Invariant: Current == nil implies len(Queue) == 0.
type State struct {
	Current *Interaction  `json:"current,omitempty"`
	Queue   []Interaction `json:"queue,omitempty"`
	Seq     int64         `json:"seq"`
}

// Pending reports whether an interaction is blocking.
func (s State) Pending() bool { return s.Current != nil }

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{Seq: s.Seq}
	if s.Current != nil {
		cur := s.Current.clone()
		out.Current = &cur
	}
	if len(s.Queue) > 0 {
		out.Queue = make([]Interaction, len(s.Queue))
		for i, in := range s.Queue {
			out.Queue[i] = in.clone()
		}
	}
	return out
}

func (in Interaction) clone() Interaction {
	cp := in
	if in.Data.Options != nil {
		cp.Data.Options = make([]Option, len(in.Data.Options))
		for i, o := range in.Data.Options {
			cp.Data.Options[i] = o
			if o.Data != nil {
				cp.Data.Options[i].Data = copyMap(o.Data)
			}
		}
	}
	if in.Data.Continuation != nil {
		cp.Data.Continuation = copyMap(in.Data.Continuation)
	}
	return cp
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Enqueue installs in as current when nothing is pending, otherwise appends
// it to the queue. An empty ID is replaced by "<kind>-<seq>".
func (s State) Enqueue(in Interaction) (State, Interaction) {
	out := s.Clone()
	out.Seq++
	if in.ID == "" {
		in.ID = fmt.Sprintf("%s-%d", in.Kind, out.Seq)
	}
	in = in.clone()
	if out.Current == nil {
		out.Current = &in
	} else {
		out.Queue = append(out.Queue, in)
	}
	return out, in
}

// Check validates that player may answer interaction id.
//
// Returns InteractionMismatch/not_found when id is not the current
// interaction (including when nothing is pending, which makes a repeated
// response harmless) and InteractionMismatch/forbidden for the wrong player.
func (s State) Check(id string, player game.PlayerID) (Interaction, error) {
	if s.Current == nil || s.Current.ID != id {
		return Interaction{}, game.Mismatch(game.ReasonNotFound, "interaction %q is not current", id)
	}
	if s.Current.PlayerID != player {
		return Interaction{}, game.Mismatch(game.ReasonForbidden,
			"interaction %q belongs to %s, not %s", id, s.Current.PlayerID, player)
	}
	return s.Current.clone(), nil
}

// Resolve removes the current interaction if its id matches and promotes
// the queue head. Resolving a stale id is a no-op.
func (s State) Resolve(id string) State {
	if s.Current == nil || s.Current.ID != id {
		return s
	}
	out := s.Clone()
	out.Current = nil
	if len(out.Queue) > 0 {
		head := out.Queue[0]
		out.Current = &head
		out.Queue = out.Queue[1:]
		if len(out.Queue) == 0 {
			out.Queue = nil
		}
	}
	return out
}

// Clear drops every interaction. Seq is kept so ids stay unique.
func (s State) Clear() State {
	return State{Seq: s.Seq}
}

// FindOption returns the option with the given id.
func FindOption(options []Option, id string) (Option, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
