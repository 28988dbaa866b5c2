package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxmind/voxmind/domain/cache"
	"github.com/voxmind/voxmind/domain/plan"
)

// Cache is a Redis-backed implementation of cache.PlanCache. Each plan is
// written under two keys: a fresh key bounded by the TTL and a longer-lived
// shadow key that serves stale fallback reads after the fresh key expires.
type Cache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	staleTTL  time.Duration
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewCache creates a new Redis plan cache with the given configuration.
func NewCache(cfg Config, opts ...ConfigOption) (*Cache, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(cache.ErrConnectionFailed, err)
	}

	return &Cache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		staleTTL:  cfg.StaleTTL,
	}, nil
}

// NewCacheFromClient creates a cache from an existing Redis client.
func NewCacheFromClient(client *redis.Client, cfg Config) *Cache {
	return &Cache{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		staleTTL:  cfg.StaleTTL,
	}
}

func (c *Cache) freshKey(fp plan.Fingerprint) string {
	return c.keyPrefix + "plan:" + string(fp)
}

func (c *Cache) staleKey(fp plan.Fingerprint) string {
	return c.keyPrefix + "plan:stale:" + string(fp)
}

// Get retrieves a fresh cached plan.
func (c *Cache) Get(ctx context.Context, fp plan.Fingerprint) (*plan.CachedPlan, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if fp == "" {
		return nil, false, cache.ErrInvalidKey
	}

	data, err := c.client.Get(ctx, c.freshKey(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return nil, false, nil
		}
		c.misses.Add(1)
		return nil, false, err
	}

	cached, err := decodePlan(data)
	if err != nil {
		c.misses.Add(1)
		return nil, false, err
	}

	c.hits.Add(1)
	return cached, true, nil
}

// GetStale retrieves the shadow copy, which outlives the fresh entry.
func (c *Cache) GetStale(ctx context.Context, fp plan.Fingerprint) (*plan.CachedPlan, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if fp == "" {
		return nil, false, cache.ErrInvalidKey
	}

	data, err := c.client.Get(ctx, c.staleKey(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	cached, err := decodePlan(data)
	if err != nil {
		return nil, false, err
	}
	return cached, true, nil
}

// Put stores a plan under both the fresh and the shadow key.
func (c *Cache) Put(ctx context.Context, fp plan.Fingerprint, p *plan.CachedPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fp == "" {
		return cache.ErrInvalidKey
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.freshKey(fp), data, c.ttl)
	pipe.Set(ctx, c.staleKey(fp), data, c.staleTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Delete removes both copies of an entry.
func (c *Cache) Delete(ctx context.Context, fp plan.Fingerprint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fp == "" {
		return cache.ErrInvalidKey
	}
	return c.client.Del(ctx, c.freshKey(fp), c.staleKey(fp)).Err()
}

// Len counts the live fresh entries by scanning the keyspace. It is meant
// for diagnostics, not hot paths.
func (c *Cache) Len() int {
	ctx := context.Background()
	pattern := c.keyPrefix + "plan:*"
	stalePrefix := c.keyPrefix + "plan:stale:"

	var n int
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if len(iter.Val()) >= len(stalePrefix) && iter.Val()[:len(stalePrefix)] == stalePrefix {
			continue
		}
		n++
	}
	return n
}

// Stats returns cache statistics. Size and capacity are not tracked.
func (c *Cache) Stats() cache.Stats {
	return cache.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func decodePlan(data []byte) (*plan.CachedPlan, error) {
	var cached plan.CachedPlan
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

var (
	_ cache.PlanCache     = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
