package response

import "github.com/roach88/turnstile/internal/game"

// Event types owned by the response system.
const (
	EventOpened  game.EventType = "core.window_opened"
	EventPassed  game.EventType = "core.window_passed"
	EventSkipped game.EventType = "core.window_skipped"
	EventReset   game.EventType = "core.window_reset"
	EventClosed  game.EventType = "core.window_closed"
	EventCleared game.EventType = "core.windows_cleared"
)

// Opened requests a response window. WindowID is usually left empty and
// assigned as "<type>-<seq>" when the window is installed.
type Opened struct {
	WindowID   string          `json:"window_id,omitempty"`
	Type       string          `json:"type"`
	SourceID   string          `json:"source_id,omitempty"`
	Responders []game.PlayerID `json:"responders"`
}

func (Opened) EventType() game.EventType { return EventOpened }
func (Opened) SystemEvent()              {}

// Passed records a responder giving up priority.
type Passed struct {
	WindowID string        `json:"window_id"`
	PlayerID game.PlayerID `json:"player_id"`
}

func (Passed) EventType() game.EventType { return EventPassed }
func (Passed) SystemEvent()              {}

// Skipped records a responder passed over for lack of playable content.
type Skipped struct {
	WindowID string        `json:"window_id"`
	PlayerID game.PlayerID `json:"player_id"`
}

func (Skipped) EventType() game.EventType { return EventSkipped }
func (Skipped) SystemEvent()              {}

// Reset records a reopening trigger; everyone must pass again.
type Reset struct {
	WindowID string        `json:"window_id"`
	PlayerID game.PlayerID `json:"player_id"`
}

func (Reset) EventType() game.EventType { return EventReset }
func (Reset) SystemEvent()              {}

// Closed records that every responder has passed.
type Closed struct {
	WindowID string `json:"window_id"`
	Type     string `json:"type"`
	SourceID string `json:"source_id,omitempty"`
}

func (Closed) EventType() game.EventType { return EventClosed }
func (Closed) SystemEvent()              {}

// Cleared drops every window (game over).
type Cleared struct{}

func (Cleared) EventType() game.EventType { return EventCleared }
func (Cleared) SystemEvent()              {}

// Register adds the response event variants to r.
func Register(r *game.Registry) {
	game.RegisterEvent[Opened](r)
	game.RegisterEvent[Passed](r)
	game.RegisterEvent[Skipped](r)
	game.RegisterEvent[Reset](r)
	game.RegisterEvent[Closed](r)
	game.RegisterEvent[Cleared](r)
}
