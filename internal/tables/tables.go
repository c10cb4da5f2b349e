// Package tables holds the per-command-type and per-window-type data a
// rule-set declares alongside its code: prediction eligibility, animation
// mode, response-window allow-lists, reopening triggers, and the phase graph.
//
// Tables are written in CUE and checked against the #Tables schema embedded
// in this package, so a typo in a rule-set's table file fails at load time
// instead of silently disabling prediction.
package tables

import (
	"slices"

	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
)

// AnimationMode controls when a predicted command's events may be shown.
type AnimationMode string

const (
	// Optimistic commands render their predicted events immediately.
	Optimistic AnimationMode = "optimistic"

	// WaitConfirm commands are predicted for bookkeeping but their events
	// stay hidden until the server confirms them.
	WaitConfirm AnimationMode = "wait-confirm"
)

// CommandTraits classifies one command type.
type CommandTraits struct {
	Deterministic bool          `json:"deterministic"`
	Animation     AnimationMode `json:"animation"`
}

// WindowTraits configures one response-window type.
type WindowTraits struct {
	Allow    []game.CommandType `json:"allow"`
	ReopenOn []game.EventType   `json:"reopen_on"`
}

// Tables is the decoded table set.
type Tables struct {
	Commands map[game.CommandType]CommandTraits
	Windows  map[string]WindowTraits
	Phases   flow.Graph
}

// unknownCommand is what Command returns for undeclared types: not
// predictable and hidden until confirmed.
var unknownCommand = CommandTraits{Deterministic: false, Animation: WaitConfirm}

// Command returns the traits for t. Undeclared types are treated as
// non-deterministic and wait-confirm.
func (t Tables) Command(ct game.CommandType) CommandTraits {
	if tr, ok := t.Commands[ct]; ok {
		return tr
	}
	return unknownCommand
}

// Allowed reports whether ct may be issued while a window of windowType is
// active. Responding to interactions and passing are always allowed.
func (t Tables) Allowed(windowType string, ct game.CommandType) bool {
	if ct == game.CommandPassResponse || ct == game.CommandRespondInteraction {
		return true
	}
	return slices.Contains(t.Windows[windowType].Allow, ct)
}

// Reopens reports whether an event of type et resets a window of windowType.
func (t Tables) Reopens(windowType string, et game.EventType) bool {
	return slices.Contains(t.Windows[windowType].ReopenOn, et)
}
