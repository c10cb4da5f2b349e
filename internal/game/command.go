package game

import "encoding/json"

// PlayerID identifies a seat in a match.
type PlayerID string

// CommandType is the tag of a command payload.
type CommandType string

// CommandPayload is implemented by every command variant.
type CommandPayload interface {
	CommandType() CommandType
}

// Command is an immutable request issued by a player.
//
// Timestamp is supplied by the issuer and copied onto every event the
// command produces; the pipeline never reads a wall clock.
type Command struct {
	Type      CommandType
	PlayerID  PlayerID
	Payload   CommandPayload
	Timestamp int64
}

// NewCommand builds a command whose Type is taken from the payload tag.
func NewCommand(player PlayerID, payload CommandPayload, timestamp int64) Command {
	return Command{
		Type:      payload.CommandType(),
		PlayerID:  player,
		Payload:   payload,
		Timestamp: timestamp,
	}
}

// Core command types handled by the engine's systems rather than the rule-set.
const (
	CommandAdvancePhase       CommandType = "core.advance_phase"
	CommandRespondInteraction CommandType = "core.respond_interaction"
	CommandPassResponse       CommandType = "core.pass_response"
)

// AdvancePhase asks the flow system to leave the current phase.
// An empty To selects the first transition listed for the current phase.
type AdvancePhase struct {
	To string `json:"to,omitempty"`
}

// CommandType implements CommandPayload.
func (AdvancePhase) CommandType() CommandType { return CommandAdvancePhase }

// RespondInteraction answers the current interaction with either an option
// id or a free-form value.
type RespondInteraction struct {
	InteractionID string `json:"interaction_id"`
	OptionID      string `json:"option_id,omitempty"`
	Value         string `json:"value,omitempty"`
}

// CommandType implements CommandPayload.
func (RespondInteraction) CommandType() CommandType { return CommandRespondInteraction }

// PassResponse gives up priority in the open response window.
type PassResponse struct {
	WindowID string `json:"window_id"`
}

// CommandType implements CommandPayload.
func (PassResponse) CommandType() CommandType { return CommandPassResponse }

// IsCoreCommand reports whether t is handled by an engine system.
func IsCoreCommand(t CommandType) bool {
	switch t {
	case CommandAdvancePhase, CommandRespondInteraction, CommandPassResponse:
		return true
	}
	return false
}

// MarshalJSON writes the command with its tag.
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      CommandType    `json:"type"`
		PlayerID  PlayerID       `json:"player_id"`
		Payload   CommandPayload `json:"payload"`
		Timestamp int64          `json:"timestamp"`
	}{c.Type, c.PlayerID, c.Payload, c.Timestamp})
}
