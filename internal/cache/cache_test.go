package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

func setupCache(t *testing.T, opts ...Option) (*BalanceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, 10*time.Minute, opts...), mr
}

func balances() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"A": decimal.RequireFromString("1000"),
		"B": decimal.RequireFromString("-500.25"),
		"C": decimal.RequireFromString("-499.75"),
	}
}

func TestLoadStore(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	got, version, err := c.Load(ctx, models.GlobalScope)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, "0", version)

	require.NoError(t, c.Store(ctx, models.GlobalScope, version, balances()))

	got, version, err = c.Load(ctx, models.GlobalScope)
	require.NoError(t, err)
	assert.Equal(t, "0", version)
	require.Len(t, got, 3)
	assert.True(t, got["B"].Equal(decimal.RequireFromString("-500.25")))

	// Other scopes are independent.
	got, _, err = c.Load(ctx, models.GroupScope("trip"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInvalidateHidesStaleWrites(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)
	scope := models.GroupScope("trip")

	_, before, err := c.Load(ctx, scope)
	require.NoError(t, err)

	// A commit lands while the reader is still computing.
	require.NoError(t, c.Invalidate(ctx, models.GlobalScope, scope))
	require.NoError(t, c.Store(ctx, scope, before, balances()))

	got, version, err := c.Load(ctx, scope)
	require.NoError(t, err)
	assert.Nil(t, got, "balances computed before the commit must not be served")
	assert.Equal(t, "1", version)

	_, version, err = c.Load(ctx, models.GlobalScope)
	require.NoError(t, err)
	assert.Equal(t, "1", version)
}

func TestEntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.Store(ctx, models.GlobalScope, "0", balances()))
	mr.FastForward(11 * time.Minute)

	got, _, err := c.Load(ctx, models.GlobalScope)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmptyBalancesAreNotStored(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.Store(ctx, models.GlobalScope, "0", map[string]decimal.Decimal{}))
	assert.Empty(t, mr.Keys())
}

func TestCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	mr.HSet(dataKey(models.GlobalScope, "0"), "A", "not-a-number")
	_, _, err := c.Load(ctx, models.GlobalScope)
	assert.Error(t, err)
}

func TestUnavailableRedis(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)
	mr.Close()

	_, _, err := c.Load(ctx, models.GlobalScope)
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(ctx, models.GlobalScope))
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	c, _ := setupCache(t, WithMetrics(m))

	_, version, err := c.Load(ctx, models.GlobalScope)
	require.NoError(t, err)
	require.NoError(t, c.Store(ctx, models.GlobalScope, version, balances()))
	_, _, err = c.Load(ctx, models.GlobalScope)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	rdb.Close()

	_, err = Connect(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
