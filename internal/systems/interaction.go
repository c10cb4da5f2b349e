package systems

import (
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
)

// InteractionSystem owns SystemState.Interaction.
type InteractionSystem[D any] struct {
	registry *Registry[D]
}

// NewInteractionSystem returns an interaction system resolving through reg.
func NewInteractionSystem[D any](reg *Registry[D]) *InteractionSystem[D] {
	if reg == nil {
		reg = NewRegistry[D]()
	}
	return &InteractionSystem[D]{registry: reg}
}

func (s *InteractionSystem[D]) Name() string { return "interaction" }

// BeforeCommand refuses everything but answers while a choice is pending.
func (s *InteractionSystem[D]) BeforeCommand(ctx *engine.Context[D], cmd game.Command) error {
	cur := ctx.State.Sys.Interaction.Current
	if cur == nil || cmd.Type == game.CommandRespondInteraction {
		return nil
	}
	return game.Blocked("interaction %q for %s is pending", cur.ID, cur.PlayerID).WithCommand(cmd.Type)
}

// HandleCommand resolves RespondInteraction.
func (s *InteractionSystem[D]) HandleCommand(ctx *engine.Context[D], cmd game.Command) ([]game.Event, bool, error) {
	p, ok := cmd.Payload.(game.RespondInteraction)
	if !ok {
		return nil, false, nil
	}
	in, err := ctx.State.Sys.Interaction.Check(p.InteractionID, cmd.PlayerID)
	if err != nil {
		return nil, true, withCommand(err, cmd.Type)
	}

	choice := interaction.Choice{OptionID: p.OptionID, Value: p.Value}
	if in.Data.FreeForm {
		if choice.Value == "" {
			return nil, true, game.Rejected("interaction %q needs a value", in.ID).WithCommand(cmd.Type)
		}
	} else {
		options, err := s.registry.Options(ctx.State, in)
		if err != nil {
			return nil, true, err
		}
		if _, ok := interaction.FindOption(options, choice.OptionID); !ok {
			return nil, true, game.Rejected("option %q is not available for %q", choice.OptionID, in.ID).WithCommand(cmd.Type)
		}
	}

	events := []game.Event{ctx.Event(interaction.Resolved{
		InteractionID: in.ID,
		PlayerID:      in.PlayerID,
		Kind:          in.Kind,
		Choice:        choice,
	})}
	if fn, ok := s.registry.resolver(in.Kind); ok {
		effects, err := fn(ctx, in, choice)
		if err != nil {
			return nil, true, fmt.Errorf("resolve %s: %w", in.Kind, err)
		}
		events = append(events, effects...)
	}
	return events, true, nil
}

// AfterCommand applies interaction events to the slice.
func (s *InteractionSystem[D]) AfterCommand(ctx *engine.Context[D], batch []engine.Emitted) ([]game.Event, error) {
	st := ctx.State.Sys.Interaction
	for _, e := range batch {
		switch p := e.Payload.(type) {
		case interaction.Queued:
			st, _ = st.Enqueue(p.Interaction)
		case interaction.Resolved:
			st = st.Resolve(p.InteractionID)
		case interaction.Cleared:
			st = st.Clear()
		}
	}
	ctx.State.Sys.Interaction = st
	return nil, nil
}

func withCommand(err error, ct game.CommandType) error {
	if ge, ok := err.(*game.Error); ok {
		return ge.WithCommand(ct)
	}
	return err
}
