package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/game"
)

func TestRandom_PredictedWithKnownSeed(t *testing.T) {
	srv := newServer(t, "s1")
	c := newClient(t, srv, "s1")

	pred := predict(t, c, "P0", roll{Times: 3})
	assert.True(t, pred.Pending.Predicted)
	assert.Equal(t, uint64(3), pred.Pending.RandomCalls)

	st, meta := srv.apply(pred.Pending.Command)
	res := reconcile(t, c, st, meta)
	require.NotNil(t, res.Confirmed)
	assert.NoError(t, res.Divergence)
	assert.Equal(t, st.Domain.Rolls, pred.Render.Domain.Rolls)
}

func TestRandom_UnknownSeedDemotes(t *testing.T) {
	srv := newServer(t, "s1")
	c := newClient(t, srv, "")

	pred, err := c.ProcessCommand("P0", roll{})
	require.NoError(t, err)
	require.Error(t, pred.Desync)
	assert.True(t, game.IsCode(pred.Desync, game.CodeRngDesync))
	assert.False(t, pred.Pending.Predicted)
	assert.Empty(t, pred.Render.Domain.Rolls)
	assert.True(t, c.Demoted("count.roll"))

	// Demoted types are not even tried until the next sync.
	pred, err = c.ProcessCommand("P0", roll{})
	require.NoError(t, err)
	assert.NoError(t, pred.Desync)
	assert.False(t, pred.Pending.Predicted)

	c.SyncRandom("s1", srv.rng.Consumed())
	assert.False(t, c.Demoted("count.roll"))
	assert.Equal(t, "s1", c.Seed())
}

func TestRandom_DivergedDigestDemotes(t *testing.T) {
	srv := newServer(t, "s1")
	c := newClient(t, srv, "not-the-seed")

	pred := predict(t, c, "P0", roll{Times: 8})
	require.True(t, pred.Pending.Predicted)

	st, meta := srv.apply(pred.Pending.Command)
	res := reconcile(t, c, st, meta)
	require.NotNil(t, res.Confirmed)
	assert.True(t, res.Rollback)
	require.Error(t, res.Divergence)
	assert.True(t, game.IsCode(res.Divergence, game.CodeRngDesync))
	assert.True(t, c.Demoted("count.roll"))
	assert.Equal(t, st, c.Confirmed())

	c.ApplySync(srv.snapshot("s1"))
	assert.False(t, c.Demoted("count.roll"))
}

func TestRandom_RollbackReplaysFromConfirmedCursor(t *testing.T) {
	srv := newServer(t, "s1")
	c := newClient(t, srv, "s1")

	pred := predict(t, c, "P0", roll{Times: 2})
	require.True(t, pred.Pending.Predicted)

	st, meta := srv.opponent("P1", roll{Times: 3})
	res := reconcile(t, c, st, meta)
	require.True(t, res.Rollback)
	assert.Len(t, res.Render.Domain.Rolls, 5)

	st, meta = srv.apply(pred.Pending.Command)
	res = reconcile(t, c, st, meta)
	require.NotNil(t, res.Confirmed)
	assert.NoError(t, res.Divergence)
	assert.Equal(t, st.Domain.Rolls, c.Render().Domain.Rolls)
	assert.Equal(t, uint64(5), c.Confirmed().Sys.RandomCursor)
}
