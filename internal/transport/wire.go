package transport

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/response"
)

// Commands and events encode their payload next to its tag. These mirrors
// keep the payload raw until the registry can pick the concrete type.

type wireCommand struct {
	Type      game.CommandType `json:"type"`
	PlayerID  game.PlayerID    `json:"player_id"`
	Payload   json.RawMessage  `json:"payload"`
	Timestamp int64            `json:"timestamp"`
}

type wireEvent struct {
	Type              game.EventType   `json:"type"`
	Payload           json.RawMessage  `json:"payload"`
	Timestamp         int64            `json:"timestamp"`
	SourceCommandType game.CommandType `json:"source_command_type"`
}

type wireEntry struct {
	ID    int64     `json:"id"`
	Event wireEvent `json:"event"`
}

type wireLog struct {
	Entries []wireEntry `json:"entries"`
	NextID  int64       `json:"next_id"`
}

type wireSystem struct {
	Flow         flow.State        `json:"flow"`
	Interaction  interaction.State `json:"interaction"`
	Response     response.State    `json:"response"`
	Stream       wireLog           `json:"stream"`
	StateID      int64             `json:"state_id"`
	RandomCursor uint64            `json:"random_cursor"`
	Outcome      *game.Outcome     `json:"outcome,omitempty"`
}

type wireState[D any] struct {
	Domain D          `json:"domain"`
	Sys    wireSystem `json:"sys"`
}

func decodeCommand(reg *game.Registry, w wireCommand) (game.Command, error) {
	p, err := reg.DecodeCommand(w.Type, w.Payload)
	if err != nil {
		return game.Command{}, err
	}
	return game.Command{Type: w.Type, PlayerID: w.PlayerID, Payload: p, Timestamp: w.Timestamp}, nil
}

func decodeEvent(reg *game.Registry, w wireEvent) (game.Event, error) {
	p, err := reg.DecodeEvent(w.Type, w.Payload)
	if err != nil {
		return game.Event{}, err
	}
	return game.Event{Payload: p, Timestamp: w.Timestamp, SourceCommandType: w.SourceCommandType}, nil
}

func decodeSystem(reg *game.Registry, w wireSystem) (engine.SystemState, error) {
	sys := engine.SystemState{
		Flow:         w.Flow,
		Interaction:  w.Interaction,
		Response:     w.Response,
		Stream:       eventstream.Log{NextID: w.Stream.NextID},
		StateID:      w.StateID,
		RandomCursor: w.RandomCursor,
		Outcome:      w.Outcome,
	}
	for _, e := range w.Stream.Entries {
		ev, err := decodeEvent(reg, e.Event)
		if err != nil {
			return engine.SystemState{}, fmt.Errorf("stream entry %d: %w", e.ID, err)
		}
		sys.Stream.Entries = append(sys.Stream.Entries, eventstream.Entry{ID: e.ID, Event: ev})
	}
	return sys, nil
}

// DecodeState decodes a JSON-encoded match state.
func DecodeState[D any](reg *game.Registry, data []byte) (engine.MatchState[D], error) {
	var w wireState[D]
	if err := json.Unmarshal(data, &w); err != nil {
		return engine.MatchState[D]{}, fmt.Errorf("decode state: %w", err)
	}
	sys, err := decodeSystem(reg, w.Sys)
	if err != nil {
		return engine.MatchState[D]{}, fmt.Errorf("decode state: %w", err)
	}
	return engine.MatchState[D]{Domain: w.Domain, Sys: sys}, nil
}

// DecodeCommand decodes a JSON-encoded command.
func DecodeCommand(reg *game.Registry, data []byte) (game.Command, error) {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return game.Command{}, fmt.Errorf("decode command: %w", err)
	}
	return decodeCommand(reg, w)
}

// DecodeEvent decodes a JSON-encoded event.
func DecodeEvent(reg *game.Registry, data []byte) (game.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return game.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return decodeEvent(reg, w)
}
