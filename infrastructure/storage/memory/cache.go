// Package memory provides in-memory storage implementations.
package memory

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/voxmind/voxmind/domain/cache"
	"github.com/voxmind/voxmind/domain/plan"
)

const (
	// DefaultCapacity is the default total entry limit.
	DefaultCapacity = 500

	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 5 * time.Minute

	// DefaultShards spreads lock contention across segments.
	DefaultShards = 8
)

// cacheEntry holds a cached plan with expiration. Expired entries linger
// for stale reads until LRU pressure or an explicit delete removes them.
type cacheEntry struct {
	fp        plan.Fingerprint
	plan      *plan.CachedPlan
	expiresAt time.Time
	expired   bool // already counted as an expiry eviction
}

type cacheShard struct {
	mu       sync.Mutex
	elems    map[plan.Fingerprint]*list.Element
	lru      *list.List // front = most recently used
	capacity int
}

// Cache is a sharded in-memory implementation of cache.PlanCache with
// TTL expiration and strict LRU eviction at capacity.
type Cache struct {
	shards    []*cacheShard
	ttl       time.Duration
	capacity  int
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// CacheOption configures the cache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	capacity int
	ttl      time.Duration
	shards   int
}

// WithCapacity sets the maximum number of entries.
func WithCapacity(n int) CacheOption {
	return func(c *cacheConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithShards sets the number of segments.
func WithShards(n int) CacheOption {
	return func(c *cacheConfig) {
		if n > 0 {
			c.shards = n
		}
	}
}

// NewCache creates a new in-memory plan cache.
func NewCache(opts ...CacheOption) *Cache {
	config := cacheConfig{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		shards:   DefaultShards,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.shards > config.capacity {
		config.shards = 1
	}

	perShard := config.capacity / config.shards
	if perShard < 1 {
		perShard = 1
	}

	shards := make([]*cacheShard, config.shards)
	for i := range shards {
		shards[i] = &cacheShard{
			elems:    make(map[plan.Fingerprint]*list.Element),
			lru:      list.New(),
			capacity: perShard,
		}
	}

	return &Cache{
		shards:   shards,
		ttl:      config.ttl,
		capacity: perShard * config.shards,
	}
}

func (c *Cache) shard(fp plan.Fingerprint) *cacheShard {
	return c.shards[xxhash.Sum64String(string(fp))%uint64(len(c.shards))]
}

// Get retrieves a fresh cached plan and refreshes its recency. An expired
// entry reports a miss; it remains readable through GetStale until evicted.
func (c *Cache) Get(ctx context.Context, fp plan.Fingerprint) (*plan.CachedPlan, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if fp == "" {
		return nil, false, cache.ErrInvalidKey
	}

	s := c.shard(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.elems[fp]
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		if !entry.expired {
			entry.expired = true
			c.evictions.Add(1)
		}
		c.misses.Add(1)
		return nil, false, nil
	}

	s.lru.MoveToFront(elem)
	c.hits.Add(1)
	return entry.plan, true, nil
}

// GetStale retrieves the entry regardless of expiry, without refreshing
// recency or touching hit counters.
func (c *Cache) GetStale(ctx context.Context, fp plan.Fingerprint) (*plan.CachedPlan, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if fp == "" {
		return nil, false, cache.ErrInvalidKey
	}

	s := c.shard(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.elems[fp]
	if !ok {
		return nil, false, nil
	}
	return elem.Value.(*cacheEntry).plan, true, nil
}

// Put stores a plan, replacing any previous entry for the fingerprint. At
// capacity the least recently used entry is evicted first.
func (c *Cache) Put(ctx context.Context, fp plan.Fingerprint, p *plan.CachedPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fp == "" {
		return cache.ErrInvalidKey
	}

	s := c.shard(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.elems[fp]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.plan = p
		entry.expiresAt = time.Now().Add(c.ttl)
		entry.expired = false
		s.lru.MoveToFront(elem)
		return nil
	}

	if s.lru.Len() >= s.capacity {
		oldest := s.lru.Back()
		if oldest != nil {
			evicted := oldest.Value.(*cacheEntry)
			delete(s.elems, evicted.fp)
			s.lru.Remove(oldest)
			c.evictions.Add(1)
		}
	}

	s.elems[fp] = s.lru.PushFront(&cacheEntry{
		fp:        fp,
		plan:      p,
		expiresAt: time.Now().Add(c.ttl),
	})
	return nil
}

// Delete removes an entry.
func (c *Cache) Delete(ctx context.Context, fp plan.Fingerprint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fp == "" {
		return cache.ErrInvalidKey
	}

	s := c.shard(fp)
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.elems[fp]; ok {
		delete(s.elems, fp)
		s.lru.Remove(elem)
	}
	return nil
}

// Len reports the number of unexpired entries.
func (c *Cache) Len() int {
	now := time.Now()
	var n int
	for _, s := range c.shards {
		s.mu.Lock()
		for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
			if now.Before(elem.Value.(*cacheEntry).expiresAt) {
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

// Stats returns cache statistics.
func (c *Cache) Stats() cache.Stats {
	return cache.Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      int64(c.Len()),
		Capacity:  int64(c.capacity),
	}
}

var (
	_ cache.PlanCache     = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
