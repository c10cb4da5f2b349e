// Package response implements priority-pass response windows.
//
// A window offers a fixed, ordered list of responders the chance to act
// before play continues. Priority moves around the list; each responder
// either acts (using an allow-listed command) or passes. The window closes
// once every responder has passed since the last reopening trigger.
// Responders with nothing they could do are skipped automatically, so a
// window nobody can act in closes the moment it opens.
//
// Windows nest: opening a window while another is open pushes it, and only
// the top window is active.
package response

import (
	"fmt"
	"slices"

	"github.com/roach88/turnstile/internal/game"
)

// ContentFunc reports whether a responder has anything they could play.
// A nil ContentFunc treats every responder as able to act.
type ContentFunc func(player game.PlayerID) bool

// Window is an open response window.
type Window struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	SourceID   string          `json:"source_id,omitempty"`
	Responders []game.PlayerID `json:"responders"`

	// Current indexes the responder holding priority.
	Current int `json:"current"`

	// Passed lists responders that passed or were skipped since the last
	// reset, in order.
	Passed []game.PlayerID `json:"passed,omitempty"`
}

// Holder returns the responder holding priority.
func (w Window) Holder() game.PlayerID {
	if len(w.Responders) == 0 {
		return ""
	}
	return w.Responders[w.Current]
}

// HasPassed reports whether p passed since the last reset.
func (w Window) HasPassed(p game.PlayerID) bool {
	return slices.Contains(w.Passed, p)
}

func (w Window) clone() Window {
	cp := w
	cp.Responders = slices.Clone(w.Responders)
	cp.Passed = slices.Clone(w.Passed)
	return cp
}

// settle moves priority from Current to the first responder that has not
// passed and has content, skipping the others. Returns true when nobody is
// left, meaning the window must close. Visits each responder at most once.
func (w *Window) settle(has ContentFunc) ([]game.EventPayload, bool) {
	var derived []game.EventPayload
	n := len(w.Responders)
	for step := 0; step < n; step++ {
		idx := (w.Current + step) % n
		p := w.Responders[idx]
		if w.HasPassed(p) {
			continue
		}
		if has != nil && !has(p) {
			w.Passed = append(w.Passed, p)
			derived = append(derived, Skipped{WindowID: w.ID, PlayerID: p})
			continue
		}
		w.Current = idx
		return derived, false
	}
	return derived, true
}

// State is the response slice of the system state: a stack of windows.
type State struct {
	Windows []Window `json:"windows,omitempty"`
	Seq     int64    `json:"seq"`
}

// IsOpen reports whether any window is open.
func (s State) IsOpen() bool { return len(s.Windows) > 0 }

// Top returns the active window.
func (s State) Top() (Window, bool) {
	if len(s.Windows) == 0 {
		return Window{}, false
	}
	return s.Windows[len(s.Windows)-1], true
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{Seq: s.Seq}
	if len(s.Windows) > 0 {
		out.Windows = make([]Window, len(s.Windows))
		for i, w := range s.Windows {
			out.Windows[i] = w.clone()
		}
	}
	return out
}

// Clear closes every window without events (game over).
func (s State) Clear() State { return State{Seq: s.Seq} }

// Open pushes a new window and settles it. The returned payloads are the
// derived Skipped events and, if nobody can respond, Closed.
func (s State) Open(req Opened, has ContentFunc) (State, []game.EventPayload) {
	out := s.Clone()
	out.Seq++
	id := req.WindowID
	if id == "" {
		id = fmt.Sprintf("%s-%d", req.Type, out.Seq)
	}
	w := Window{
		ID:         id,
		Type:       req.Type,
		SourceID:   req.SourceID,
		Responders: slices.Clone(req.Responders),
	}
	derived, closed := w.settle(has)
	if closed {
		return out, append(derived, Closed{WindowID: w.ID, Type: w.Type, SourceID: w.SourceID})
	}
	out.Windows = append(out.Windows, w)
	return out, derived
}

// CheckPass validates that player may pass in windowID.
func (s State) CheckPass(windowID string, player game.PlayerID) error {
	w, ok := s.Top()
	if !ok || w.ID != windowID {
		return game.Blocked("response window %q is not active", windowID)
	}
	if w.Holder() != player {
		return game.Blocked("%s does not hold priority in %q", player, windowID)
	}
	return nil
}

// Pass records a pass by the priority holder and moves priority on.
// Passing for a window that is not on top, or out of turn, is a no-op.
func (s State) Pass(windowID string, player game.PlayerID, has ContentFunc) (State, []game.EventPayload) {
	if s.CheckPass(windowID, player) != nil {
		return s, nil
	}
	out := s.Clone()
	top := len(out.Windows) - 1
	w := &out.Windows[top]
	w.Passed = append(w.Passed, player)
	w.Current = (w.Current + 1) % len(w.Responders)
	return out.settleTop(has)
}

// Reset clears the passed set of the active window after a reopening
// trigger and hands priority to the responder after actor. When actor is
// not a responder, priority stays where it is.
func (s State) Reset(actor game.PlayerID, has ContentFunc) (State, []game.EventPayload) {
	if !s.IsOpen() {
		return s, nil
	}
	out := s.Clone()
	top := len(out.Windows) - 1
	w := &out.Windows[top]
	w.Passed = nil
	if i := slices.Index(w.Responders, actor); i >= 0 {
		w.Current = (i + 1) % len(w.Responders)
	}
	derived := []game.EventPayload{Reset{WindowID: w.ID, PlayerID: actor}}
	out, more := out.settleTop(has)
	return out, append(derived, more...)
}

func (s State) settleTop(has ContentFunc) (State, []game.EventPayload) {
	top := len(s.Windows) - 1
	w := &s.Windows[top]
	derived, closed := w.settle(has)
	if closed {
		derived = append(derived, Closed{WindowID: w.ID, Type: w.Type, SourceID: w.SourceID})
		s.Windows = s.Windows[:top]
		if len(s.Windows) == 0 {
			s.Windows = nil
		}
	}
	return s, derived
}
