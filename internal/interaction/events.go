package interaction

import "github.com/roach88/turnstile/internal/game"

// Event types owned by the interaction system.
const (
	EventQueued   game.EventType = "core.interaction_queued"
	EventResolved game.EventType = "core.interaction_resolved"
	EventCleared  game.EventType = "core.interactions_cleared"
)

// Queued requests a choice. Rule-sets emit it; the interaction system
// applies it to its slice.
type Queued struct {
	Interaction Interaction `json:"interaction"`
}

func (Queued) EventType() game.EventType { return EventQueued }
func (Queued) SystemEvent()              {}

// Resolved records an accepted answer.
type Resolved struct {
	InteractionID string        `json:"interaction_id"`
	PlayerID      game.PlayerID `json:"player_id"`
	Kind          string        `json:"kind"`
	Choice        Choice        `json:"choice"`
}

func (Resolved) EventType() game.EventType { return EventResolved }
func (Resolved) SystemEvent()              {}

// Cleared drops every pending interaction (game over).
type Cleared struct{}

func (Cleared) EventType() game.EventType { return EventCleared }
func (Cleared) SystemEvent()              {}

// Register adds the interaction event variants to r.
func Register(r *game.Registry) {
	game.RegisterEvent[Queued](r)
	game.RegisterEvent[Resolved](r)
	game.RegisterEvent[Cleared](r)
}
