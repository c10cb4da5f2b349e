package game

import "encoding/json"

// EventType is the tag of an event payload.
type EventType string

// EventPayload is implemented by every event variant.
type EventPayload interface {
	EventType() EventType
}

// SystemPayload marks event payloads owned by an engine system. The domain
// fold skips them; the owning system applies them to its own state slice.
type SystemPayload interface {
	EventPayload
	SystemEvent()
}

// Event is an immutable fact produced by the pipeline.
type Event struct {
	Payload           EventPayload
	Timestamp         int64
	SourceCommandType CommandType
}

// Type returns the payload tag.
func (e Event) Type() EventType {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventType()
}

// IsSystem reports whether the event belongs to an engine system.
func (e Event) IsSystem() bool {
	_, ok := e.Payload.(SystemPayload)
	return ok
}

// NewEvent stamps a payload with the originating command's timestamp and type.
func NewEvent(cmd Command, payload EventPayload) Event {
	return Event{
		Payload:           payload,
		Timestamp:         cmd.Timestamp,
		SourceCommandType: cmd.Type,
	}
}

// EventsFrom stamps every payload with the originating command.
func EventsFrom(cmd Command, payloads ...EventPayload) []Event {
	if len(payloads) == 0 {
		return nil
	}
	events := make([]Event, len(payloads))
	for i, p := range payloads {
		events[i] = NewEvent(cmd, p)
	}
	return events
}

// GameEnded is emitted once, when the rule-set reports the match is over.
type GameEnded struct {
	Outcome Outcome `json:"outcome"`
}

// EventType implements EventPayload.
func (GameEnded) EventType() EventType { return "core.game_ended" }

// SystemEvent implements SystemPayload.
func (GameEnded) SystemEvent() {}

// Outcome describes how a match ended.
type Outcome struct {
	Winners []PlayerID `json:"winners,omitempty"`
	Reason  string     `json:"reason"`
}

// MarshalJSON writes the event with its tag so encoded logs are
// self-describing. Decoding needs a Registry; see transport.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type              EventType    `json:"type"`
		Payload           EventPayload `json:"payload"`
		Timestamp         int64        `json:"timestamp"`
		SourceCommandType CommandType  `json:"source_command_type,omitempty"`
	}{e.Type(), e.Payload, e.Timestamp, e.SourceCommandType})
}
