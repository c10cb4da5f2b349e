package skirmish

import (
	"github.com/roach88/turnstile/internal/canonical"
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/response"
)

// triggers resolves strikes when their reaction window closes.
type triggers struct{}

func (triggers) Name() string { return "skirmish.triggers" }

func (triggers) AfterCommand(ctx *engine.Context[State], batch []engine.Emitted) ([]game.Event, error) {
	var out []game.Event
	for _, e := range batch {
		closed, ok := e.Payload.(response.Closed)
		if !ok || closed.Type != WindowReaction {
			continue
		}
		d := ctx.State.Domain
		if d.Strike == nil || d.Strike.Card.ID != closed.SourceID {
			continue
		}
		if !ctx.Once(canonical.Key("strike", closed.WindowID)) {
			continue
		}
		s := d.Strike
		if !s.Countered {
			out = append(out, ctx.Event(StrikeResolved{Player: s.By, Card: s.Card, Points: s.Card.Power}))
			continue
		}
		out = append(out, ctx.Event(StrikeFizzled{Player: s.By, Card: s.Card}))
		if len(d.Deck) > 0 {
			out = append(out, ctx.Event(Drew{Player: s.By, Card: d.Deck[0]}))
		}
	}
	return out, nil
}
