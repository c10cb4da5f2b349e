package transport

import (
	"encoding/json"

	"github.com/roach88/turnstile/internal/client"
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
)

// Kind tags an Envelope.
type Kind string

const (
	KindSync   Kind = "sync"
	KindUpdate Kind = "update"
	KindSubmit Kind = "submit"
	KindReject Kind = "reject"
)

// Envelope is the outer frame of every message.
type Envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// DefaultStreamWindow is how many stream entries an Update carries.
const DefaultStreamWindow = 64

// Sync is a full snapshot: domain and system state without the event log,
// plus the RNG position.
type Sync[D any] struct {
	Domain   D                  `json:"domain"`
	System   engine.SystemState `json:"system"`
	StateID  int64              `json:"state_id"`
	Players  []game.PlayerID    `json:"players"`
	Seed     string             `json:"seed,omitempty"`
	Consumed uint64             `json:"consumed"`
}

// NewSync builds a Sync from state. An empty seed withholds it.
func NewSync[D any](state engine.MatchState[D], players []game.PlayerID, seed string, consumed uint64) Sync[D] {
	bare := state.WithoutLog()
	return Sync[D]{
		Domain:   bare.Domain,
		System:   bare.Sys,
		StateID:  bare.Sys.StateID,
		Players:  append([]game.PlayerID(nil), players...),
		Seed:     seed,
		Consumed: consumed,
	}
}

// State reassembles the match state carried by s.
func (s Sync[D]) State() engine.MatchState[D] {
	return engine.MatchState[D]{Domain: s.Domain, Sys: s.System}
}

// Snapshot converts s for client.Engine.ApplySync.
func (s Sync[D]) Snapshot() client.Snapshot[D] {
	return client.Snapshot[D]{
		State:    s.State(),
		Players:  s.Players,
		Seed:     s.Seed,
		Consumed: s.Consumed,
	}
}

// Update is broadcast after every applied command.
type Update[D any] struct {
	State               engine.MatchState[D] `json:"state"`
	StateID             int64                `json:"state_id"`
	LastCommandPlayerID game.PlayerID        `json:"last_command_player_id"`
}

// NewUpdate builds an Update retaining at most window stream entries.
func NewUpdate[D any](state engine.MatchState[D], player game.PlayerID, window int) Update[D] {
	return Update[D]{
		State:               state.WithLogWindow(window),
		StateID:             state.Sys.StateID,
		LastCommandPlayerID: player,
	}
}

// Meta returns the reconciliation metadata.
func (u Update[D]) Meta() client.UpdateMeta {
	return client.UpdateMeta{StateID: u.StateID, LastCommandPlayerID: u.LastCommandPlayerID}
}

// Submit carries a client command.
type Submit struct {
	Command game.Command `json:"command"`
}

// Reject tells the issuer its command was refused.
type Reject struct {
	Command game.CommandType `json:"command"`
	Code    game.Code        `json:"code"`
	Reason  string           `json:"reason,omitempty"`
	Message string           `json:"message"`
	StateID int64            `json:"state_id"`
}

// NewReject describes err for the issuer of cmd.
func NewReject(cmd game.Command, err error, stateID int64) Reject {
	return Reject{
		Command: cmd.Type,
		Code:    game.CodeOf(err),
		Reason:  game.ReasonOf(err),
		Message: err.Error(),
		StateID: stateID,
	}
}

// Err converts r back into a typed error.
func (r Reject) Err() error {
	return &game.Error{Code: r.Code, Reason: r.Reason, Message: r.Message, Command: r.Command}
}

// Message is a decoded Envelope. Exactly one field besides Kind is set.
type Message[D any] struct {
	Kind   Kind
	Sync   *Sync[D]
	Update *Update[D]
	Submit *Submit
	Reject *Reject
}
