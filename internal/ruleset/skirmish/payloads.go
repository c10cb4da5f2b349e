package skirmish

import "github.com/roach88/turnstile/internal/game"

// Commands.

// Play plays a strike from hand.
type Play struct {
	Card string `json:"card"`
}

func (Play) CommandType() game.CommandType { return "skirmish.play" }

// Counter plays a counter card into an open reaction window.
type Counter struct {
	Card string `json:"card"`
}

func (Counter) CommandType() game.CommandType { return "skirmish.counter" }

// Trade starts the give-then-take trade chain.
type Trade struct{}

func (Trade) CommandType() game.CommandType { return "skirmish.trade" }

// Mulligan reshuffles the issuer's hand into the deck and redraws.
type Mulligan struct{}

func (Mulligan) CommandType() game.CommandType { return "skirmish.mulligan" }

// Events.

// Drew moves the top card of the deck to a hand. Step marks the draw of
// the draw phase.
type Drew struct {
	Player game.PlayerID `json:"player"`
	Card   Card          `json:"card"`
	Step   bool          `json:"step,omitempty"`
}

func (Drew) EventType() game.EventType { return "skirmish.drew" }

// DeckEmpty records a draw from an empty deck.
type DeckEmpty struct {
	Player game.PlayerID `json:"player"`
}

func (DeckEmpty) EventType() game.EventType { return "skirmish.deck_empty" }

type Discarded struct {
	Player game.PlayerID `json:"player"`
	Card   Card          `json:"card"`
}

func (Discarded) EventType() game.EventType { return "skirmish.discarded" }

// Mulliganed carries the reshuffled result so Reduce stays free of RNG.
type Mulliganed struct {
	Player game.PlayerID `json:"player"`
	Hand   []Card        `json:"hand"`
	Deck   []Card        `json:"deck"`
}

func (Mulliganed) EventType() game.EventType { return "skirmish.mulliganed" }

type CardPlayed struct {
	Player game.PlayerID `json:"player"`
	Card   Card          `json:"card"`
}

func (CardPlayed) EventType() game.EventType { return "skirmish.played" }

type Countered struct {
	Player game.PlayerID `json:"player"`
	Card   Card          `json:"card"`
}

func (Countered) EventType() game.EventType { return "skirmish.countered" }

type StrikeResolved struct {
	Player game.PlayerID `json:"player"`
	Card   Card          `json:"card"`
	Points int           `json:"points"`
}

func (StrikeResolved) EventType() game.EventType { return "skirmish.strike_resolved" }

type StrikeFizzled struct {
	Player game.PlayerID `json:"player"`
	Card   Card          `json:"card"`
}

func (StrikeFizzled) EventType() game.EventType { return "skirmish.strike_fizzled" }

type Traded struct {
	Player game.PlayerID `json:"player"`
	Give   Card          `json:"give"`
	Take   Card          `json:"take"`
}

func (Traded) EventType() game.EventType { return "skirmish.traded" }

type TurnPassed struct {
	To game.PlayerID `json:"to"`
}

func (TurnPassed) EventType() game.EventType { return "skirmish.turn_passed" }

// RegisterPayloads adds the skirmish command and event variants to r.
func RegisterPayloads(r *game.Registry) {
	game.RegisterCommand[Play](r)
	game.RegisterCommand[Counter](r)
	game.RegisterCommand[Trade](r)
	game.RegisterCommand[Mulligan](r)

	game.RegisterEvent[Drew](r)
	game.RegisterEvent[DeckEmpty](r)
	game.RegisterEvent[Discarded](r)
	game.RegisterEvent[Mulliganed](r)
	game.RegisterEvent[CardPlayed](r)
	game.RegisterEvent[Countered](r)
	game.RegisterEvent[StrikeResolved](r)
	game.RegisterEvent[StrikeFizzled](r)
	game.RegisterEvent[Traded](r)
	game.RegisterEvent[TurnPassed](r)
}
