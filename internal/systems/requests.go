package systems

import (
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/response"
	"github.com/roach88/turnstile/internal/tables"
)

// QueueInteraction returns the event asking player for a choice of kind.
// The interaction id is assigned when the event is applied.
func QueueInteraction(cmd game.Command, player game.PlayerID, kind string, data interaction.Data) game.Event {
	return game.NewEvent(cmd, interaction.Queued{Interaction: interaction.Interaction{
		PlayerID: player,
		Kind:     kind,
		Data:     data,
	}})
}

// OpenResponseWindow returns the event opening a window of windowType for
// responders, in priority order.
func OpenResponseWindow(cmd game.Command, windowType, sourceID string, responders []game.PlayerID) game.Event {
	return game.NewEvent(cmd, response.Opened{
		Type:       windowType,
		SourceID:   sourceID,
		Responders: append([]game.PlayerID(nil), responders...),
	})
}

// RegisterPayloads adds every system event variant to r.
func RegisterPayloads(r *game.Registry) {
	interaction.Register(r)
	response.Register(r)
	flow.Register(r)
}

// Default returns the stock systems in hook order: interaction, response,
// flow. The rule-set is used as ContentChecker when it implements it.
func Default[D any](rs engine.RuleSet[D], reg *Registry[D], t tables.Tables) ([]engine.System[D], error) {
	var content ContentChecker[D]
	if c, ok := rs.(ContentChecker[D]); ok {
		content = c
	}
	fs, err := NewFlowSystem[D](t.Phases)
	if err != nil {
		return nil, fmt.Errorf("flow system: %w", err)
	}
	return []engine.System[D]{
		NewInteractionSystem(reg),
		NewResponseSystem(content),
		fs,
	}, nil
}

// NewConfig builds an engine config with the stock systems followed by
// extra, which typically hold the rule-set's own triggers.
func NewConfig[D any](rs engine.RuleSet[D], reg *Registry[D], t tables.Tables, extra []engine.System[D], opts ...engine.Option) (*engine.Config[D], error) {
	systems, err := Default(rs, reg, t)
	if err != nil {
		return nil, err
	}
	return engine.NewConfig(rs, t, append(systems, extra...), opts...)
}
