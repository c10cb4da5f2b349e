package skirmish

import (
	"slices"

	"github.com/roach88/turnstile/internal/game"
)

// Kind is a card kind.
type Kind string

const (
	KindStrike  Kind = "strike"
	KindCounter Kind = "counter"
)

// Card is a single card. Ids are unique within a match.
type Card struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Power int    `json:"power,omitempty"`
}

// Seat is one player's slice of the table.
type Seat struct {
	ID        game.PlayerID `json:"id"`
	Hand      []Card        `json:"hand"`
	Score     int           `json:"score"`
	Mulligans int           `json:"mulligans"`
}

// Strike is a played strike waiting for its reaction window to close.
type Strike struct {
	Card      Card          `json:"card"`
	By        game.PlayerID `json:"by"`
	Countered bool          `json:"countered"`
}

// State is the domain state of a skirmish match.
type State struct {
	Seats   []Seat  `json:"seats"`
	Deck    []Card  `json:"deck"`
	Discard []Card  `json:"discard,omitempty"`
	Active  int     `json:"active"`
	Drawn   bool    `json:"drawn"`
	Traded  bool    `json:"traded"`
	Strike  *Strike `json:"strike,omitempty"`
	DeckOut bool    `json:"deck_out,omitempty"`
	Target  int     `json:"target"`
}

// ActivePlayer returns the player whose turn it is.
func (s State) ActivePlayer() game.PlayerID {
	return s.Seats[s.Active].ID
}

// Seat returns the seat of p.
func (s State) Seat(p game.PlayerID) (Seat, bool) {
	i := s.seatIndex(p)
	if i < 0 {
		return Seat{}, false
	}
	return s.Seats[i], true
}

func (s State) seatIndex(p game.PlayerID) int {
	return slices.IndexFunc(s.Seats, func(st Seat) bool { return st.ID == p })
}

// Hand returns p's hand, or nil for an unknown player.
func (s State) Hand(p game.PlayerID) []Card {
	seat, _ := s.Seat(p)
	return seat.Hand
}

// clone copies every slice so Reduce never writes through to the input.
func (s State) clone() State {
	out := s
	out.Seats = make([]Seat, len(s.Seats))
	for i, st := range s.Seats {
		st.Hand = slices.Clone(st.Hand)
		out.Seats[i] = st
	}
	out.Deck = slices.Clone(s.Deck)
	out.Discard = slices.Clone(s.Discard)
	if s.Strike != nil {
		st := *s.Strike
		out.Strike = &st
	}
	return out
}

func findCard(cards []Card, id string) (Card, bool) {
	i := slices.IndexFunc(cards, func(c Card) bool { return c.ID == id })
	if i < 0 {
		return Card{}, false
	}
	return cards[i], true
}

func removeCard(cards []Card, id string) []Card {
	return slices.DeleteFunc(cards, func(c Card) bool { return c.ID == id })
}

// responders lists every other player in seat order after the active one,
// then the active player.
func (s State) responders() []game.PlayerID {
	out := make([]game.PlayerID, 0, len(s.Seats))
	for i := 1; i <= len(s.Seats); i++ {
		out = append(out, s.Seats[(s.Active+i)%len(s.Seats)].ID)
	}
	return out
}
