package client

import "sync/atomic"

// Clock stamps locally issued commands with strictly increasing logical
// timestamps. The server executes submitted commands with the timestamp
// they carry, so predictions and confirmations see identical commands.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though an Engine only calls it from its owner's goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start. Used after a sync so new
// commands stamp past anything the server has already seen.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next timestamp.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last timestamp handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Observe moves the clock forward to at least ts.
func (c *Clock) Observe(ts int64) {
	for {
		cur := c.seq.Load()
		if ts <= cur || c.seq.CompareAndSwap(cur, ts) {
			return
		}
	}
}
