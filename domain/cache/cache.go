// Package cache provides the domain interface for plan memoization.
package cache

import (
	"context"

	"github.com/voxmind/voxmind/domain/plan"
)

// PlanCache memoizes planning results keyed by request fingerprint.
// Implementations may be in-memory or backed by a shared store such as
// Redis.
//
// The cache is advisory: implementations must degrade internal failures to
// a miss rather than propagate them, so planning is never blocked by cache
// unavailability. The error return exists for observability only; callers
// treat any error as a miss.
type PlanCache interface {
	// Get retrieves a fresh cached plan. A hit refreshes recency; an expired
	// entry is evicted and reported as a miss.
	Get(ctx context.Context, fp plan.Fingerprint) (*plan.CachedPlan, bool, error)

	// GetStale retrieves the most recent entry for the fingerprint even if
	// it has expired, for use as a planning fallback. It does not refresh
	// recency.
	GetStale(ctx context.Context, fp plan.Fingerprint) (*plan.CachedPlan, bool, error)

	// Put stores a plan, replacing any previous entry for the fingerprint.
	// At capacity the least-recently-used entry is evicted first.
	Put(ctx context.Context, fp plan.Fingerprint, p *plan.CachedPlan) error

	// Delete removes an entry.
	Delete(ctx context.Context, fp plan.Fingerprint) error

	// Len reports the current number of live entries.
	Len() int
}

// Stats provides cache statistics.
type Stats struct {
	// Hits is the number of cache hits.
	Hits int64
	// Misses is the number of cache misses.
	Misses int64
	// Evictions is the number of entries evicted by TTL or LRU pressure.
	Evictions int64
	// Size is the current number of entries.
	Size int64
	// Capacity is the maximum number of entries (0 = unlimited).
	Capacity int64
}

// HitRate returns hits / (hits + misses), or 0 with no traffic.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// StatsProvider is an optional interface for caches that expose statistics.
type StatsProvider interface {
	Stats() Stats
}
