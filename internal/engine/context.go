package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
	"github.com/roach88/turnstile/internal/response"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/tables"
)

// Context carries one Execute call through the pipeline. Hooks receive it
// and may read and replace their own slice of State.
//
// A Context is only valid during the hook call it was passed to.
type Context[D any] struct {
	// State is the working copy. It becomes the result on success and is
	// discarded on failure.
	State MatchState[D]

	// RNG is the working copy of the match RNG.
	RNG *rng.Source

	// Players lists the seats in turn order.
	Players []game.PlayerID

	// Command is the command currently being processed: the top-level
	// command, or the innermost internal command during Dispatch.
	Command game.Command

	cfg     *Config[D]
	budget  *budget
	once    *OnceSet
	emitted []game.Event
}

func newContext[D any](cfg *Config[D], state MatchState[D], r *rng.Source, players []game.PlayerID, cmd game.Command) *Context[D] {
	return &Context[D]{
		State:   state,
		RNG:     r,
		Players: players,
		Command: cmd,
		cfg:     cfg,
		budget:  newBudget(cfg.Limits),
		once:    NewOnceSet(),
	}
}

// RuleSet returns the configured rule-set.
func (c *Context[D]) RuleSet() RuleSet[D] { return c.cfg.RuleSet }

// Systems returns the configured systems in hook order.
func (c *Context[D]) Systems() []System[D] { return c.cfg.Systems }

// Tables returns the rule-set tables.
func (c *Context[D]) Tables() tables.Tables { return c.cfg.Tables }

// Depth returns the current dispatch depth; 0 for the top-level command.
func (c *Context[D]) Depth() int { return c.budget.depth }

// Once records key and returns true the first time it is seen during this
// invocation.
func (c *Context[D]) Once(key string) bool { return c.once.Once(key) }

// Emitted returns the number of events emitted so far in this invocation.
func (c *Context[D]) Emitted() int { return len(c.emitted) }

// Event stamps a payload with the command currently being processed.
func (c *Context[D]) Event(p game.EventPayload) game.Event {
	return game.NewEvent(c.Command, p)
}

// Events stamps several payloads.
func (c *Context[D]) Events(ps ...game.EventPayload) []game.Event {
	return game.EventsFrom(c.Command, ps...)
}

// Emit reduces events into the domain state and runs post-processing until
// no system derives anything further.
func (c *Context[D]) Emit(events ...game.Event) error {
	batch := events
	for len(batch) > 0 {
		if err := c.budget.step(c.Command.Type); err != nil {
			return err
		}
		emitted, err := c.record(batch)
		if err != nil {
			return err
		}
		var next []game.Event
		for _, sys := range c.cfg.Systems {
			ac, ok := sys.(AfterCommander[D])
			if !ok {
				continue
			}
			derived, err := ac.AfterCommand(c, emitted)
			if err != nil {
				return fmt.Errorf("%s: after command: %w", sys.Name(), err)
			}
			next = append(next, derived...)
		}
		batch = next
	}
	return nil
}

// record folds a batch into state and assigns invocation ordinals.
func (c *Context[D]) record(batch []game.Event) ([]Emitted, error) {
	out := make([]Emitted, len(batch))
	for i, ev := range batch {
		if ev.Payload == nil {
			return nil, fmt.Errorf("event without payload from %s", c.Command.Type)
		}
		if err := c.apply(ev); err != nil {
			return nil, err
		}
		out[i] = Emitted{Seq: len(c.emitted), Event: ev}
		c.emitted = append(c.emitted, ev)
	}
	return out, nil
}

// apply reduces a domain event, or applies an engine-owned system event.
func (c *Context[D]) apply(ev game.Event) error {
	switch p := ev.Payload.(type) {
	case game.GameEnded:
		o := p.Outcome
		c.State.Sys.Outcome = &o
		c.State.Sys.Interaction = c.State.Sys.Interaction.Clear()
		c.State.Sys.Response = c.State.Sys.Response.Clear()
		return nil
	case game.SystemPayload:
		return nil
	}
	next, err := c.cfg.RuleSet.Reduce(c.State.Domain, ev)
	if err != nil {
		return fmt.Errorf("reduce %s: %w", ev.Type(), err)
	}
	c.State.Domain = next
	return nil
}

// Dispatch runs an internal command through gate, validate, execute and
// post-processing, sharing this invocation's state, budget and once-set.
func (c *Context[D]) Dispatch(cmd game.Command) error {
	if err := c.budget.enter(cmd.Type); err != nil {
		return err
	}
	prev := c.Command
	c.Command = cmd
	defer func() {
		c.budget.leave()
		c.Command = prev
	}()

	slog.Debug("dispatching internal command",
		"command", cmd.Type,
		"player", cmd.PlayerID,
		"depth", c.budget.depth,
	)
	return c.process(cmd)
}

// process is pipeline steps 1-5 for one command.
func (c *Context[D]) process(cmd game.Command) error {
	if c.State.Over() {
		return game.Blocked("match is over").WithCommand(cmd.Type)
	}
	for _, sys := range c.cfg.Systems {
		if gate, ok := sys.(CommandGate[D]); ok {
			if err := gate.BeforeCommand(c, cmd); err != nil {
				return err
			}
		}
	}

	if err := c.cfg.RuleSet.Validate(c.State, cmd); err != nil {
		return err
	}

	events, err := c.execute(cmd)
	if err != nil {
		return err
	}
	return c.Emit(events...)
}

func (c *Context[D]) execute(cmd game.Command) ([]game.Event, error) {
	for _, sys := range c.cfg.Systems {
		h, ok := sys.(CommandHandler[D])
		if !ok {
			continue
		}
		events, handled, err := h.HandleCommand(c, cmd)
		if err != nil {
			return nil, err
		}
		if handled {
			return events, nil
		}
	}
	if game.IsCoreCommand(cmd.Type) {
		return nil, game.Blocked("no system handles %s", cmd.Type).WithCommand(cmd.Type)
	}
	return c.cfg.RuleSet.Execute(c.State, cmd, c.RNG)
}

// checkGameOver emits GameEnded once the rule-set reports the end.
func (c *Context[D]) checkGameOver() error {
	if c.State.Over() {
		return nil
	}
	outcome, over := c.cfg.RuleSet.IsGameOver(c.State.Domain)
	if !over {
		return nil
	}
	var evs []game.Event
	if c.State.Sys.Interaction.Pending() {
		evs = append(evs, c.Event(interaction.Cleared{}))
	}
	if c.State.Sys.Response.IsOpen() {
		evs = append(evs, c.Event(response.Cleared{}))
	}
	evs = append(evs, c.Event(game.GameEnded{Outcome: outcome}))
	return c.Emit(evs...)
}
