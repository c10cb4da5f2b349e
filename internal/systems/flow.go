package systems

import (
	"fmt"

	"github.com/roach88/turnstile/internal/canonical"
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
)

// FlowSystem owns SystemState.Flow and walks the phase graph.
//
// Phase hooks are collected from every other system and then from the
// rule-set, in that order.
type FlowSystem[D any] struct {
	graph flow.Graph
}

// NewFlowSystem returns a flow system for g. The graph is validated.
func NewFlowSystem[D any](g flow.Graph) (*FlowSystem[D], error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &FlowSystem[D]{graph: g}, nil
}

func (s *FlowSystem[D]) Name() string { return "flow" }

// Graph returns the phase graph.
func (s *FlowSystem[D]) Graph() flow.Graph { return s.graph }

// Init enters the initial phase in round 1. Enter hooks do not run for the
// initial phase; Setup is responsible for its state.
func (s *FlowSystem[D]) Init(state *engine.MatchState[D], players []game.PlayerID) error {
	state.Sys.Flow = flow.State{Phase: s.graph.Initial, Round: 1}
	return nil
}

// HandleCommand executes AdvancePhase.
func (s *FlowSystem[D]) HandleCommand(ctx *engine.Context[D], cmd game.Command) ([]game.Event, bool, error) {
	p, ok := cmd.Payload.(game.AdvancePhase)
	if !ok {
		return nil, false, nil
	}
	if ctx.State.Blocked() {
		return nil, true, game.Blocked("cannot leave %q while a choice or window is pending", ctx.State.Phase()).WithCommand(cmd.Type)
	}
	from := ctx.State.Phase()
	to, err := s.graph.Target(from, p.To)
	if err != nil {
		return nil, true, withCommand(err, cmd.Type)
	}
	return nil, true, s.advance(ctx, from, to)
}

// AfterCommand applies flow events and resumes a halted advance once
// nothing blocks it anymore.
func (s *FlowSystem[D]) AfterCommand(ctx *engine.Context[D], batch []engine.Emitted) ([]game.Event, error) {
	for _, e := range batch {
		switch e.Payload.(type) {
		case flow.PhaseChanged, flow.AdvanceHalted:
			ctx.State.Sys.Flow = ctx.State.Sys.Flow.Apply(e.Payload)
		}
	}

	pending := ctx.State.Sys.Flow.Pending
	if pending == nil || ctx.State.Blocked() || ctx.State.Over() {
		return nil, nil
	}
	if !ctx.Once(canonical.Key("resume", pending.From, pending.To)) {
		return nil, nil
	}
	return nil, s.advance(ctx, pending.From, pending.To)
}

// advance runs exit hooks and, unless they halt, changes phase and runs
// enter and auto-continue hooks. Everything is emitted through ctx so each
// hook sees the effects of the ones before it.
func (s *FlowSystem[D]) advance(ctx *engine.Context[D], from, to string) error {
	halt := false
	for _, h := range phaseHooks[D, engine.PhaseExiter[D]](ctx) {
		res, err := h.OnPhaseExit(ctx, from)
		if err != nil {
			return fmt.Errorf("exit %s: %w", from, err)
		}
		if err := ctx.Emit(res.Events...); err != nil {
			return err
		}
		halt = halt || res.Halt
	}
	if ctx.State.Over() {
		return nil
	}
	if halt || ctx.State.Blocked() {
		return ctx.Emit(ctx.Event(flow.AdvanceHalted{From: from, To: to}))
	}

	round := s.graph.NextRound(ctx.State.Sys.Flow.Round, to)
	if err := ctx.Emit(ctx.Event(flow.PhaseChanged{From: from, To: to, Round: round})); err != nil {
		return err
	}
	for _, h := range phaseHooks[D, engine.PhaseEnterer[D]](ctx) {
		events, err := h.OnPhaseEnter(ctx, to)
		if err != nil {
			return fmt.Errorf("enter %s: %w", to, err)
		}
		if err := ctx.Emit(events...); err != nil {
			return err
		}
	}
	if ctx.State.Over() || ctx.State.Blocked() {
		return nil
	}

	for _, h := range phaseHooks[D, engine.AutoContinuer[D]](ctx) {
		if h.OnAutoContinueCheck(ctx, to) {
			next := game.NewCommand(ctx.Command.PlayerID, game.AdvancePhase{}, ctx.Command.Timestamp)
			return ctx.Dispatch(next)
		}
	}
	return nil
}

// phaseHooks lists the systems implementing H, followed by the rule-set.
func phaseHooks[D any, H any](ctx *engine.Context[D]) []H {
	var out []H
	for _, sys := range ctx.Systems() {
		if h, ok := sys.(H); ok {
			out = append(out, h)
		}
	}
	if h, ok := ctx.RuleSet().(H); ok {
		out = append(out, h)
	}
	return out
}
