package skirmish

import (
	_ "embed"
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/systems"
	"github.com/roach88/turnstile/internal/tables"
)

// Name is the rule-set name recorded with persisted matches.
const Name = "skirmish"

// WindowReaction is the response window opened by a strike.
const WindowReaction = "reaction"

const (
	DefaultTarget    = 5
	DefaultHandLimit = 5
	DeckSize         = 30
	startingHand     = 5
)

//go:embed tables.cue
var tablesSrc []byte

// Tables returns the skirmish table set.
func Tables() tables.Tables {
	return tables.MustParse("tables.cue", tablesSrc)
}

// Rules implements engine.RuleSet for skirmish.
//
// Thread-safety: Rules holds only configuration and is safe to share.
type Rules struct {
	target    int
	handLimit int
	tables    *tables.Tables
}

// Option configures Rules.
type Option func(*Rules)

// WithTarget sets the score that wins the match.
func WithTarget(n int) Option {
	return func(r *Rules) { r.target = n }
}

// WithHandLimit sets the hand size above which the draw phase forces a
// discard.
func WithHandLimit(n int) Option {
	return func(r *Rules) { r.handLimit = n }
}

// WithTables replaces the embedded table set, e.g. with one loaded from
// disk. The phase graph must keep the skirmish phase names.
func WithTables(t tables.Tables) Option {
	return func(r *Rules) { r.tables = &t }
}

// New returns skirmish rules.
func New(opts ...Option) *Rules {
	r := &Rules{target: DefaultTarget, handLimit: DefaultHandLimit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns a payload registry with the core, system and skirmish
// variants.
func (r *Rules) Registry() *game.Registry {
	reg := game.NewRegistry()
	systems.RegisterPayloads(reg)
	RegisterPayloads(reg)
	return reg
}

// Config builds the engine config: the stock systems plus the skirmish
// trigger system.
func (r *Rules) Config(opts ...engine.Option) (*engine.Config[State], error) {
	t := Tables()
	if r.tables != nil {
		t = *r.tables
	}
	return systems.NewConfig[State](r, r.interactions(), t, []engine.System[State]{triggers{}}, opts...)
}

func (r *Rules) Name() string { return Name }

// Setup shuffles the deck and deals the starting hands.
func (r *Rules) Setup(players []game.PlayerID, src *rng.Source) (State, error) {
	if len(players) < 2 || len(players) > 4 {
		return State{}, fmt.Errorf("skirmish needs 2 to 4 players, got %d", len(players))
	}
	deck := rng.ShuffleSlice(src, newDeck())
	s := State{Target: r.target}
	for _, p := range players {
		s.Seats = append(s.Seats, Seat{ID: p, Hand: append([]Card(nil), deck[:startingHand]...)})
		deck = deck[startingHand:]
	}
	s.Deck = append([]Card(nil), deck...)
	return s, nil
}

func newDeck() []Card {
	deck := make([]Card, DeckSize)
	for i := range deck {
		c := Card{ID: fmt.Sprintf("c%02d", i)}
		if i%5 == 4 {
			c.Kind = KindCounter
		} else {
			c.Kind = KindStrike
			c.Power = 1 + i%3
		}
		deck[i] = c
	}
	return deck
}

func (r *Rules) Validate(state engine.MatchState[State], cmd game.Command) error {
	d := state.Domain
	seat, ok := d.Seat(cmd.PlayerID)
	if !ok {
		return game.Rejected("%s is not seated", cmd.PlayerID)
	}
	active := cmd.PlayerID == d.ActivePlayer()

	switch p := cmd.Payload.(type) {
	case game.AdvancePhase:
		if !active {
			return game.Rejected("only %s may advance", d.ActivePlayer())
		}
	case game.RespondInteraction, game.PassResponse:
	case Play:
		if state.Phase() != "play" || !active {
			return game.Rejected("strikes are played by the active player in the play phase")
		}
		if d.Strike != nil {
			return game.Rejected("a strike is already on the table")
		}
		c, ok := findCard(seat.Hand, p.Card)
		if !ok || c.Kind != KindStrike {
			return game.Rejected("no strike %q in hand", p.Card)
		}
	case Counter:
		if d.Strike == nil {
			return game.Rejected("nothing to counter")
		}
		c, ok := findCard(seat.Hand, p.Card)
		if !ok || c.Kind != KindCounter {
			return game.Rejected("no counter %q in hand", p.Card)
		}
	case Trade:
		if state.Phase() != "play" || !active {
			return game.Rejected("trades are made by the active player in the play phase")
		}
		if d.Traded {
			return game.Rejected("already traded this turn")
		}
		if len(seat.Hand) == 0 || len(d.Deck) == 0 {
			return game.Rejected("nothing to trade")
		}
	case Mulligan:
		if state.Phase() != "draw" || d.Drawn {
			return game.Rejected("mulligans are only allowed before the draw")
		}
		if seat.Mulligans > 0 {
			return game.Rejected("%s already took a mulligan", cmd.PlayerID)
		}
	default:
		return game.Rejected("unknown command %s", cmd.Type)
	}
	return nil
}

func (r *Rules) Execute(state engine.MatchState[State], cmd game.Command, src *rng.Source) ([]game.Event, error) {
	d := state.Domain
	switch p := cmd.Payload.(type) {
	case Play:
		c, _ := findCard(d.Hand(cmd.PlayerID), p.Card)
		return []game.Event{
			game.NewEvent(cmd, CardPlayed{Player: cmd.PlayerID, Card: c}),
			systems.OpenResponseWindow(cmd, WindowReaction, c.ID, d.responders()),
		}, nil
	case Counter:
		c, _ := findCard(d.Hand(cmd.PlayerID), p.Card)
		return game.EventsFrom(cmd, Countered{Player: cmd.PlayerID, Card: c}), nil
	case Trade:
		return []game.Event{systems.QueueInteraction(cmd, cmd.PlayerID, KindTrade, interaction.Data{
			Title:     "give",
			Generator: GeneratorHand,
		})}, nil
	case Mulligan:
		hand := d.Hand(cmd.PlayerID)
		pool := rng.ShuffleSlice(src, append(append([]Card(nil), hand...), d.Deck...))
		return game.EventsFrom(cmd, Mulliganed{
			Player: cmd.PlayerID,
			Hand:   pool[:len(hand)],
			Deck:   pool[len(hand):],
		}), nil
	}
	return nil, game.Rejected("unknown command %s", cmd.Type)
}

func (r *Rules) Reduce(s State, ev game.Event) (State, error) {
	s = s.clone()
	switch p := ev.Payload.(type) {
	case Drew:
		i := s.seatIndex(p.Player)
		if i < 0 || len(s.Deck) == 0 {
			return s, fmt.Errorf("skirmish: %s cannot draw", p.Player)
		}
		s.Deck = s.Deck[1:]
		s.Seats[i].Hand = append(s.Seats[i].Hand, p.Card)
		if p.Step {
			s.Drawn = true
		}
	case DeckEmpty:
		s.DeckOut = true
		s.Drawn = true
	case Discarded:
		i := s.seatIndex(p.Player)
		s.Seats[i].Hand = removeCard(s.Seats[i].Hand, p.Card.ID)
		s.Discard = append(s.Discard, p.Card)
	case Mulliganed:
		i := s.seatIndex(p.Player)
		s.Seats[i].Hand = append([]Card(nil), p.Hand...)
		s.Seats[i].Mulligans++
		s.Deck = append([]Card(nil), p.Deck...)
	case CardPlayed:
		i := s.seatIndex(p.Player)
		s.Seats[i].Hand = removeCard(s.Seats[i].Hand, p.Card.ID)
		s.Strike = &Strike{Card: p.Card, By: p.Player}
	case Countered:
		i := s.seatIndex(p.Player)
		s.Seats[i].Hand = removeCard(s.Seats[i].Hand, p.Card.ID)
		s.Discard = append(s.Discard, p.Card)
		if s.Strike != nil {
			s.Strike.Countered = !s.Strike.Countered
		}
	case StrikeResolved:
		i := s.seatIndex(p.Player)
		s.Seats[i].Score += p.Points
		s.Discard = append(s.Discard, p.Card)
		s.Strike = nil
	case StrikeFizzled:
		s.Discard = append(s.Discard, p.Card)
		s.Strike = nil
	case Traded:
		i := s.seatIndex(p.Player)
		s.Seats[i].Hand = append(removeCard(s.Seats[i].Hand, p.Give.ID), p.Take)
		s.Deck = removeCard(s.Deck, p.Take.ID)
		s.Discard = append(s.Discard, p.Give)
		s.Traded = true
	case TurnPassed:
		s.Active = s.seatIndex(p.To)
		s.Drawn = false
		s.Traded = false
	default:
		return s, fmt.Errorf("skirmish: unknown event %s", ev.Type())
	}
	return s, nil
}

// IsGameOver ends the match at the target score or when the deck runs out.
// Ties share the win.
func (r *Rules) IsGameOver(s State) (game.Outcome, bool) {
	best := 0
	for _, seat := range s.Seats {
		best = max(best, seat.Score)
	}
	reason := ""
	switch {
	case best >= s.Target:
		reason = "target"
	case s.DeckOut:
		reason = "deck_out"
	default:
		return game.Outcome{}, false
	}
	out := game.Outcome{Reason: reason}
	for _, seat := range s.Seats {
		if seat.Score == best {
			out.Winners = append(out.Winners, seat.ID)
		}
	}
	return out, true
}

// HasRespondableContent reports whether player holds a counter.
func (r *Rules) HasRespondableContent(state engine.MatchState[State], player game.PlayerID, windowType string) bool {
	for _, c := range state.Domain.Hand(player) {
		if c.Kind == KindCounter {
			return true
		}
	}
	return false
}
