package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/game"
)

func TestFilterPlayedEvents(t *testing.T) {
	var log eventstream.Log
	cmd := game.NewCommand("P0", inc{}, 1)
	log.Append(game.EventsFrom(cmd, incremented{}, incremented{}, incremented{})...)
	st := engine.MatchState[count]{Sys: engine.SystemState{Stream: log}}

	out := FilterPlayedEvents(st, 2)
	assert.Equal(t, []int64{3}, entryIDs(out))
	assert.Equal(t, []int64{1, 2, 3}, entryIDs(st), "input is not modified")

	assert.Empty(t, FilterPlayedEvents(st, 3).Sys.Stream.Entries)
	assert.Len(t, FilterPlayedEvents(st, 0).Sys.Stream.Entries, 3)
}

func TestRender_HidesEventsAfterWaitConfirm(t *testing.T) {
	srv := newServer(t, "s1")
	c := newClient(t, srv, "s1")

	predict(t, c, "P0", inc{})
	pred := predict(t, c, "P0", reveal{})
	after := predict(t, c, "P0", inc{})

	assert.Empty(t, pred.Events)
	assert.Empty(t, after.Events, "events behind a wait-confirm prediction stay hidden")
	assert.Equal(t, []int64{1}, entryIDs(c.Render()))
	assert.Equal(t, []int64{1, 2, 3}, entryIDs(c.Tip()))
	assert.Equal(t, 2, c.Render().Domain.N)
}
