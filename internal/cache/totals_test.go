package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcart/internal/models"
)

func newTotals(t *testing.T) (*RedisTotals, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisTotals(client, time.Minute), mr
}

func TestRedisTotals_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTotals(t)
	u1, u2 := uuid.New(), uuid.New()

	_, v1, ok, err := c.Get(ctx, u1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 0, v1)

	require.NoError(t, c.Set(ctx, u1, v1, models.CartTotals{TotalItems: 3, TotalPrice: 25}))
	require.NoError(t, c.Set(ctx, u2, 0, models.CartTotals{TotalItems: 1, TotalPrice: 5}))
	assert.True(t, mr.Exists("cart:totals:"+u1.String()))
	assert.Equal(t, time.Minute, mr.TTL("cart:totals:"+u1.String()))

	got, _, ok, err := c.Get(ctx, u1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.CartTotals{TotalItems: 3, TotalPrice: 25}, got)

	require.NoError(t, c.Invalidate(ctx, u1, u2))
	_, v2, ok, err := c.Get(ctx, u2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, v2)

	require.NoError(t, c.Invalidate(ctx))
}

func TestRedisTotals_SetWithStaleVersionIsDropped(t *testing.T) {
	ctx := context.Background()
	c, mr := newTotals(t)
	u := uuid.New()

	_, version, ok, err := c.Get(ctx, u)
	require.NoError(t, err)
	require.False(t, ok)

	// the cart changes after the totals were computed
	require.NoError(t, c.Invalidate(ctx, u))

	require.NoError(t, c.Set(ctx, u, version, models.CartTotals{TotalItems: 1, TotalPrice: 10}))
	assert.False(t, mr.Exists("cart:totals:"+u.String()))

	_, fresh, _, err := c.Get(ctx, u)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, u, fresh, models.CartTotals{TotalItems: 2, TotalPrice: 20}))

	got, _, ok, err := c.Get(ctx, u)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.CartTotals{TotalItems: 2, TotalPrice: 20}, got)
}

func TestRedisTotals_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTotals(t)
	u := uuid.New()

	require.NoError(t, c.Set(ctx, u, 0, models.CartTotals{TotalItems: 1, TotalPrice: 1}))
	mr.FastForward(2 * time.Minute)

	_, _, ok, err := c.Get(ctx, u)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisTotals_CorruptValue(t *testing.T) {
	ctx := context.Background()
	c, mr := newTotals(t)
	u := uuid.New()

	require.NoError(t, mr.Set("cart:totals:"+u.String(), "{not json"))
	_, _, ok, err := c.Get(ctx, u)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
