package transport

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
)

// Codec encodes and decodes Envelopes for a rule-set with domain D.
//
// Thread-safety: a Codec is read-only after construction and may be shared.
type Codec[D any] struct {
	reg     *game.Registry
	schemas *schemas
}

// NewCodec creates a Codec that decodes payloads through reg.
func NewCodec[D any](reg *game.Registry) (*Codec[D], error) {
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Codec[D]{reg: reg, schemas: s}, nil
}

// Registry returns the payload registry.
func (c *Codec[D]) Registry() *game.Registry { return c.reg }

func (c *Codec[D]) encode(kind Kind, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return json.Marshal(Envelope{Kind: kind, Data: raw})
}

// EncodeSync encodes a sync message.
func (c *Codec[D]) EncodeSync(s Sync[D]) ([]byte, error) { return c.encode(KindSync, s) }

// EncodeUpdate encodes an update message.
func (c *Codec[D]) EncodeUpdate(u Update[D]) ([]byte, error) { return c.encode(KindUpdate, u) }

// EncodeSubmit encodes a submit message for cmd.
func (c *Codec[D]) EncodeSubmit(cmd game.Command) ([]byte, error) {
	return c.encode(KindSubmit, Submit{Command: cmd})
}

// EncodeReject encodes a reject message.
func (c *Codec[D]) EncodeReject(r Reject) ([]byte, error) { return c.encode(KindReject, r) }

// Decode validates and decodes a frame of any kind.
func (c *Codec[D]) Decode(frame []byte) (Message[D], error) {
	if err := validate(c.schemas.envelope, frame); err != nil {
		return Message[D]{}, fmt.Errorf("invalid envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Message[D]{}, fmt.Errorf("decode envelope: %w", err)
	}

	msg := Message[D]{Kind: env.Kind}
	var err error
	switch env.Kind {
	case KindSync:
		msg.Sync, err = c.decodeSync(env.Data)
	case KindUpdate:
		msg.Update, err = c.decodeUpdate(env.Data)
	case KindSubmit:
		var sub Submit
		sub.Command, err = c.decodeSubmit(env.Data)
		msg.Submit = &sub
	case KindReject:
		var rej Reject
		err = json.Unmarshal(env.Data, &rej)
		msg.Reject = &rej
	}
	if err != nil {
		return Message[D]{}, fmt.Errorf("decode %s: %w", env.Kind, err)
	}
	return msg, nil
}

// DecodeSubmit decodes a frame that must be a submit message. Hosts use
// it for every inbound client frame.
func (c *Codec[D]) DecodeSubmit(frame []byte) (game.Command, error) {
	if err := validate(c.schemas.envelope, frame); err != nil {
		return game.Command{}, fmt.Errorf("invalid envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return game.Command{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Kind != KindSubmit {
		return game.Command{}, fmt.Errorf("unexpected message kind %q", env.Kind)
	}
	return c.decodeSubmit(env.Data)
}

func (c *Codec[D]) decodeSubmit(data json.RawMessage) (game.Command, error) {
	if err := validate(c.schemas.submit, data); err != nil {
		return game.Command{}, fmt.Errorf("invalid submit: %w", err)
	}
	var w struct {
		Command wireCommand `json:"command"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return game.Command{}, err
	}
	return decodeCommand(c.reg, w.Command)
}

func (c *Codec[D]) decodeSync(data json.RawMessage) (*Sync[D], error) {
	var w struct {
		Domain   D               `json:"domain"`
		System   wireSystem      `json:"system"`
		StateID  int64           `json:"state_id"`
		Players  []game.PlayerID `json:"players"`
		Seed     string          `json:"seed"`
		Consumed uint64          `json:"consumed"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	sys, err := decodeSystem(c.reg, w.System)
	if err != nil {
		return nil, err
	}
	return &Sync[D]{
		Domain:   w.Domain,
		System:   sys,
		StateID:  w.StateID,
		Players:  w.Players,
		Seed:     w.Seed,
		Consumed: w.Consumed,
	}, nil
}

func (c *Codec[D]) decodeUpdate(data json.RawMessage) (*Update[D], error) {
	var w struct {
		State               json.RawMessage `json:"state"`
		StateID             int64           `json:"state_id"`
		LastCommandPlayerID game.PlayerID   `json:"last_command_player_id"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	state, err := DecodeState[D](c.reg, w.State)
	if err != nil {
		return nil, err
	}
	return &Update[D]{State: state, StateID: w.StateID, LastCommandPlayerID: w.LastCommandPlayerID}, nil
}

// StateOf returns the state carried by a sync or update message.
func StateOf[D any](m Message[D]) (engine.MatchState[D], bool) {
	switch {
	case m.Sync != nil:
		return m.Sync.State(), true
	case m.Update != nil:
		return m.Update.State, true
	}
	return engine.MatchState[D]{}, false
}

// DecodeSync decodes a frame that must be a sync message.
func (c *Codec[D]) DecodeSync(frame []byte) (Sync[D], error) {
	msg, err := c.Decode(frame)
	if err != nil {
		return Sync[D]{}, err
	}
	if msg.Sync == nil {
		return Sync[D]{}, fmt.Errorf("unexpected message kind %q", msg.Kind)
	}
	return *msg.Sync, nil
}

// DecodeUpdate decodes a frame that must be an update message.
func (c *Codec[D]) DecodeUpdate(frame []byte) (Update[D], error) {
	msg, err := c.Decode(frame)
	if err != nil {
		return Update[D]{}, err
	}
	if msg.Update == nil {
		return Update[D]{}, fmt.Errorf("unexpected message kind %q", msg.Kind)
	}
	return *msg.Update, nil
}
