// Package cache keeps computed balance maps in Redis.
//
// Each scope has a version counter. Balances are stored under a key that
// embeds the version read before they were computed, and invalidation bumps
// the counter, so a result computed from pre-commit data is never served
// after the commit.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

const keyPrefix = "splitledger:balances:"

// BalanceCache is a Redis-backed calculator.BalanceCache and ledger.Invalidator.
type BalanceCache struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
}

// Option configures a BalanceCache.
type Option func(*BalanceCache)

// WithMetrics counts hits and misses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *BalanceCache) {
		c.metrics = m
	}
}

// New wraps rdb. Cached maps expire after ttl.
func New(rdb redis.UniversalClient, ttl time.Duration, opts ...Option) *BalanceCache {
	c := &BalanceCache{rdb: rdb, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens a client for addr and verifies it responds.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func versionKey(scope models.Scope) string {
	return keyPrefix + scope.String() + ":version"
}

func dataKey(scope models.Scope, version string) string {
	return keyPrefix + scope.String() + ":v" + version
}

// Load returns the cached balances for scope, or nil on a miss, along with
// the scope's current version.
func (c *BalanceCache) Load(ctx context.Context, scope models.Scope) (map[string]decimal.Decimal, string, error) {
	version, err := c.rdb.Get(ctx, versionKey(scope)).Result()
	if errors.Is(err, redis.Nil) {
		version = "0"
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to read cache version: %w", err)
	}

	raw, err := c.rdb.HGetAll(ctx, dataKey(scope, version)).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cached balances: %w", err)
	}
	if len(raw) == 0 {
		c.metrics.CacheMiss()
		return nil, version, nil
	}

	balances := make(map[string]decimal.Decimal, len(raw))
	for user, s := range raw {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return nil, "", fmt.Errorf("corrupt cached balance for %s: %w", user, err)
		}
		balances[user] = amount
	}
	c.metrics.CacheHit()
	return balances, version, nil
}

// Store caches balances for scope under version. Empty maps are not cached.
func (c *BalanceCache) Store(ctx context.Context, scope models.Scope, version string, balances map[string]decimal.Decimal) error {
	if len(balances) == 0 {
		return nil
	}

	fields := make(map[string]any, len(balances))
	for user, amount := range balances {
		fields[user] = amount.String()
	}

	key := dataKey(scope, version)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache balances: %w", err)
	}
	return nil
}

// Invalidate bumps the version of every scope so existing entries are no
// longer reachable. They expire on their own.
func (c *BalanceCache) Invalidate(ctx context.Context, scopes ...models.Scope) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, scope := range scopes {
			pipe.Incr(ctx, versionKey(scope))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate balances: %w", err)
	}
	return nil
}
