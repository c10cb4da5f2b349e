package engine

import (
	"fmt"

	"github.com/roach88/turnstile/internal/tables"
)

// Limits bound re-entrant processing within one Execute call.
type Limits struct {
	// MaxDepth caps nested internal commands. Default: 16.
	MaxDepth int

	// MaxSteps caps event batches post-processed per invocation.
	// Default: 1000.
	MaxSteps int
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{MaxDepth: 16, MaxSteps: 1000}
}

// Option configures a Config.
type Option func(*Limits)

// WithMaxDepth sets the dispatch depth limit.
func WithMaxDepth(n int) Option {
	return func(l *Limits) { l.MaxDepth = n }
}

// WithMaxSteps sets the per-invocation step limit.
func WithMaxSteps(n int) Option {
	return func(l *Limits) { l.MaxSteps = n }
}

// Config is everything Execute needs besides state, command and RNG.
// A Config is read-only once built and may be shared across matches.
type Config[D any] struct {
	RuleSet RuleSet[D]
	Systems []System[D]
	Tables  tables.Tables
	Limits  Limits
}

// NewConfig assembles a Config and checks it.
func NewConfig[D any](rs RuleSet[D], t tables.Tables, systems []System[D], opts ...Option) (*Config[D], error) {
	if rs == nil {
		return nil, fmt.Errorf("engine config: rule-set is required")
	}
	limits := DefaultLimits()
	for _, opt := range opts {
		opt(&limits)
	}
	if limits.MaxDepth <= 0 || limits.MaxSteps <= 0 {
		return nil, fmt.Errorf("engine config: limits must be positive (depth=%d, steps=%d)",
			limits.MaxDepth, limits.MaxSteps)
	}
	seen := make(map[string]bool, len(systems))
	for _, s := range systems {
		if seen[s.Name()] {
			return nil, fmt.Errorf("engine config: duplicate system %q", s.Name())
		}
		seen[s.Name()] = true
	}
	return &Config[D]{
		RuleSet: rs,
		Systems: systems,
		Tables:  t,
		Limits:  limits,
	}, nil
}
