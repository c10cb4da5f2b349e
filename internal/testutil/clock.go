package testutil

import (
	"sync"

	"github.com/roach88/turnstile/internal/game"
)

// CommandClock stamps test commands with increasing timestamps.
//
// Commands carry issuer-supplied timestamps that are copied onto every event
// they produce. A scenario stamped from a fresh CommandClock logs
// byte-identical events on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type CommandClock struct {
	mu   sync.Mutex
	last int64
	step int64
}

// NewCommandClock returns a clock whose first timestamp is 1.
func NewCommandClock() *CommandClock {
	return NewCommandClockAt(0, 1)
}

// NewCommandClockAt returns a clock whose first timestamp is start+step.
// A non-positive step is treated as 1.
func NewCommandClockAt(start, step int64) *CommandClock {
	if step <= 0 {
		step = 1
	}
	return &CommandClock{last: start, step: step}
}

// Next advances the clock and returns the new timestamp.
func (c *CommandClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last += c.step
	return c.last
}

// Last returns the most recent timestamp without advancing.
func (c *CommandClock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Command builds a command for player stamped with the next timestamp.
func (c *CommandClock) Command(player game.PlayerID, p game.CommandPayload) game.Command {
	return game.NewCommand(player, p, c.Next())
}
