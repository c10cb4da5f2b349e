package engine

import "github.com/roach88/turnstile/internal/game"

// budget enforces the termination limits of one Execute call: the number
// of event batches post-processed (steps) and the nesting of internal
// commands (depth).
//
// The once-set stops the same keyed effect firing twice; the step budget
// stops long chains of distinct effects. Together with the depth limit
// they bound every invocation.
type budget struct {
	limits Limits
	steps  int
	depth  int
}

func newBudget(l Limits) *budget {
	return &budget{limits: l}
}

// step charges one event batch caused by cmd.
func (b *budget) step(cmd game.CommandType) error {
	b.steps++
	if b.steps > b.limits.MaxSteps {
		return &StepsExceededError{Command: cmd, Steps: b.steps, Limit: b.limits.MaxSteps}
	}
	return nil
}

// enter descends into internal command cmd. Every successful enter must
// be paired with leave.
func (b *budget) enter(cmd game.CommandType) error {
	if b.depth+1 > b.limits.MaxDepth {
		return &DepthExceededError{Command: cmd, Depth: b.depth + 1, Limit: b.limits.MaxDepth}
	}
	b.depth++
	return nil
}

func (b *budget) leave() { b.depth-- }
