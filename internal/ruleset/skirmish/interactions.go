package skirmish

import (
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/systems"
)

// Interaction kinds and option generators.
const (
	KindDiscard = "discard"
	KindTrade   = "trade"

	GeneratorHand   = "hand"
	GeneratorMarket = "market"

	marketSize = 2
)

func (r *Rules) interactions() *systems.Registry[State] {
	reg := systems.NewRegistry[State]()
	reg.RegisterGenerator(GeneratorHand, handOptions)
	reg.RegisterGenerator(GeneratorMarket, marketOptions)
	reg.RegisterResolver(KindDiscard, resolveDiscard)
	reg.RegisterResolver(KindTrade, resolveTrade)
	return reg
}

// CurrentOptions lists the options of the pending interaction, or nil.
func (r *Rules) CurrentOptions(state engine.MatchState[State]) ([]interaction.Option, error) {
	return systems.CurrentOptions(r.interactions(), state)
}

// Score returns a player's score; false for unseated players.
func (r *Rules) Score(state State, p game.PlayerID) (int, bool) {
	seat, ok := state.Seat(p)
	if !ok {
		return 0, false
	}
	return seat.Score, true
}

func cardOptions(cards []Card) []interaction.Option {
	out := make([]interaction.Option, len(cards))
	for i, c := range cards {
		label := string(c.Kind)
		if c.Power > 0 {
			label = fmt.Sprintf("%s %d", c.Kind, c.Power)
		}
		out[i] = interaction.Option{ID: c.ID, Label: label}
	}
	return out
}

func handOptions(state engine.MatchState[State], in interaction.Interaction) []interaction.Option {
	return cardOptions(state.Domain.Hand(in.PlayerID))
}

// marketOptions offers the top cards of the deck.
func marketOptions(state engine.MatchState[State], in interaction.Interaction) []interaction.Option {
	deck := state.Domain.Deck
	return cardOptions(deck[:min(marketSize, len(deck))])
}

func resolveDiscard(ctx *engine.Context[State], in interaction.Interaction, c interaction.Choice) ([]game.Event, error) {
	card, ok := findCard(ctx.State.Domain.Hand(in.PlayerID), c.OptionID)
	if !ok {
		return nil, game.Rejected("no card %q in hand", c.OptionID)
	}
	return ctx.Events(Discarded{Player: in.PlayerID, Card: card}), nil
}

// resolveTrade runs the two steps of a trade. The first answer picks the
// card to give and queues the second step with the choice carried in the
// continuation.
func resolveTrade(ctx *engine.Context[State], in interaction.Interaction, c interaction.Choice) ([]game.Event, error) {
	d := ctx.State.Domain
	giveID, ok := in.Data.Continuation["give"]
	if !ok {
		next := systems.QueueInteraction(ctx.Command, in.PlayerID, KindTrade, interaction.Data{
			Title:        "take",
			Generator:    GeneratorMarket,
			SourceID:     in.ID,
			Continuation: in.Continued("give", c.OptionID),
		})
		return []game.Event{next}, nil
	}
	give, ok := findCard(d.Hand(in.PlayerID), giveID)
	if !ok {
		return nil, game.Rejected("card %q left the hand", giveID)
	}
	take, ok := findCard(d.Deck, c.OptionID)
	if !ok {
		return nil, game.Rejected("card %q is not on offer", c.OptionID)
	}
	return ctx.Events(Traded{Player: in.PlayerID, Give: give, Take: take}), nil
}
