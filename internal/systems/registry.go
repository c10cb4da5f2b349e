package systems

import (
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/interaction"
)

// Generator computes the options of an interaction from the current state.
// Generators must be pure: they are re-run when options are displayed and
// again when an answer is checked.
type Generator[D any] func(state engine.MatchState[D], in interaction.Interaction) []interaction.Option

// Resolver turns an accepted answer into events. Resolvers of multi-step
// chains should re-check their preconditions against ctx.State and return
// no events when they no longer hold.
type Resolver[D any] func(ctx *engine.Context[D], in interaction.Interaction, choice interaction.Choice) ([]game.Event, error)

// Registry holds the named option generators and per-kind resolvers of one
// rule-set instance.
//
// Thread-safety: registration must finish before the registry is shared.
type Registry[D any] struct {
	generators map[string]Generator[D]
	resolvers  map[string]Resolver[D]
}

// NewRegistry returns an empty registry.
func NewRegistry[D any]() *Registry[D] {
	return &Registry[D]{
		generators: make(map[string]Generator[D]),
		resolvers:  make(map[string]Resolver[D]),
	}
}

// RegisterGenerator adds a named option generator. Registering a name twice
// panics.
func (r *Registry[D]) RegisterGenerator(name string, g Generator[D]) {
	if _, dup := r.generators[name]; dup {
		panic(fmt.Sprintf("systems: duplicate option generator %q", name))
	}
	r.generators[name] = g
}

// RegisterResolver adds the resolver for an interaction kind. Registering a
// kind twice panics.
func (r *Registry[D]) RegisterResolver(kind string, fn Resolver[D]) {
	if _, dup := r.resolvers[kind]; dup {
		panic(fmt.Sprintf("systems: duplicate resolver for kind %q", kind))
	}
	r.resolvers[kind] = fn
}

// Options returns the options of in as of state. Static options are
// returned as-is; generated ones are recomputed.
func (r *Registry[D]) Options(state engine.MatchState[D], in interaction.Interaction) ([]interaction.Option, error) {
	if in.Data.Generator == "" {
		return in.Data.Options, nil
	}
	g, ok := r.generators[in.Data.Generator]
	if !ok {
		return nil, fmt.Errorf("interaction %s: unknown option generator %q", in.ID, in.Data.Generator)
	}
	return g(state, in), nil
}

func (r *Registry[D]) resolver(kind string) (Resolver[D], bool) {
	fn, ok := r.resolvers[kind]
	return fn, ok
}

// CurrentOptions returns the re-evaluated options of the current
// interaction, or nil when nothing is pending.
func CurrentOptions[D any](r *Registry[D], state engine.MatchState[D]) ([]interaction.Option, error) {
	cur := state.Sys.Interaction.Current
	if cur == nil {
		return nil, nil
	}
	return r.Options(state, *cur)
}
