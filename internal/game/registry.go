package game

import (
	"encoding/json"
	"fmt"
	"sort"
)

type commandDecoder func(json.RawMessage) (CommandPayload, error)
type eventDecoder func(json.RawMessage) (EventPayload, error)

// Registry maps payload tags to decoders. A registry is built per rule-set
// instance; there is no package-level registry.
//
// Thread-safety: registration must finish before the registry is shared.
// Decoding is safe for concurrent use afterwards.
type Registry struct {
	commands map[CommandType]commandDecoder
	events   map[EventType]eventDecoder
}

// NewRegistry returns a registry that already knows the core command
// payloads and GameEnded.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[CommandType]commandDecoder),
		events:   make(map[EventType]eventDecoder),
	}
	RegisterCommand[AdvancePhase](r)
	RegisterCommand[RespondInteraction](r)
	RegisterCommand[PassResponse](r)
	RegisterEvent[GameEnded](r)
	return r
}

// RegisterCommand adds a command variant. The zero value of P must report
// its tag, which holds for value types with constant CommandType methods.
func RegisterCommand[P CommandPayload](r *Registry) {
	var zero P
	r.commands[zero.CommandType()] = func(raw json.RawMessage) (CommandPayload, error) {
		var p P
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
}

// RegisterEvent adds an event variant.
func RegisterEvent[P EventPayload](r *Registry) {
	var zero P
	r.events[zero.EventType()] = func(raw json.RawMessage) (EventPayload, error) {
		var p P
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
}

// DecodeCommand decodes a command payload by tag.
func (r *Registry) DecodeCommand(t CommandType, raw json.RawMessage) (CommandPayload, error) {
	dec, ok := r.commands[t]
	if !ok {
		return nil, fmt.Errorf("unknown command type %q", t)
	}
	p, err := dec(raw)
	if err != nil {
		return nil, fmt.Errorf("decode command %q: %w", t, err)
	}
	return p, nil
}

// DecodeEvent decodes an event payload by tag.
func (r *Registry) DecodeEvent(t EventType, raw json.RawMessage) (EventPayload, error) {
	dec, ok := r.events[t]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	p, err := dec(raw)
	if err != nil {
		return nil, fmt.Errorf("decode event %q: %w", t, err)
	}
	return p, nil
}

// HasCommand reports whether t is registered.
func (r *Registry) HasCommand(t CommandType) bool {
	_, ok := r.commands[t]
	return ok
}

// CommandTypes returns the registered command tags in sorted order.
func (r *Registry) CommandTypes() []CommandType {
	out := make([]CommandType, 0, len(r.commands))
	for t := range r.commands {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EventTypes returns the registered event tags in sorted order.
func (r *Registry) EventTypes() []EventType {
	out := make([]EventType, 0, len(r.events))
	for t := range r.events {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
