package skirmish

import (
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/systems"
)

var _ engine.PhaseHooks[State] = (*Rules)(nil)

// OnPhaseExit draws for the active player when leaving draw and forces a
// discard above the hand limit; leaving score passes the turn.
//
// The hook runs again when a halted advance resumes. Drawn and the hand
// size tell it what is already done.
func (r *Rules) OnPhaseExit(ctx *engine.Context[State], phase string) (flow.ExitResult, error) {
	d := ctx.State.Domain
	switch phase {
	case "draw":
		var events []game.Event
		player := d.ActivePlayer()
		hand := len(d.Hand(player))
		if !d.Drawn {
			if len(d.Deck) == 0 {
				return flow.ExitResult{Events: ctx.Events(DeckEmpty{Player: player})}, nil
			}
			events = ctx.Events(Drew{Player: player, Card: d.Deck[0], Step: true})
			hand++
		}
		if hand <= r.handLimit {
			return flow.ExitResult{Events: events}, nil
		}
		if cur := ctx.State.Sys.Interaction.Current; cur == nil || cur.Kind != KindDiscard {
			events = append(events, systems.QueueInteraction(ctx.Command, player, KindDiscard, interaction.Data{
				Title:     "discard",
				Generator: GeneratorHand,
			}))
		}
		return flow.ExitResult{Events: events, Halt: true}, nil
	case "score":
		next := d.Seats[(d.Active+1)%len(d.Seats)].ID
		return flow.ExitResult{Events: ctx.Events(TurnPassed{To: next})}, nil
	}
	return flow.ExitResult{}, nil
}

func (r *Rules) OnPhaseEnter(ctx *engine.Context[State], phase string) ([]game.Event, error) {
	return nil, nil
}

// OnAutoContinueCheck lets score complete on its own.
func (r *Rules) OnAutoContinueCheck(ctx *engine.Context[State], phase string) bool {
	return phase == "score"
}
