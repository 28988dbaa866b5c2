package plan

// Status reports where a planning request is in its lifecycle. InFlight and
// Retrying mean the request is still being worked; only Failed means the
// service gave up on it.
type Status string

const (
	StatusInFlight   Status = "in_flight"   // Dispatched, first attempt pending
	StatusRetrying   Status = "retrying"    // At least one attempt failed, backoff in progress
	StatusReady      Status = "ready"       // Plan available
	StatusReadyStale Status = "ready_stale" // Fallback plan served from an expired cache entry
	StatusFailed     Status = "failed"      // Retries exhausted or circuit open
)

// Terminal returns true once no further delivery will occur for the request.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusReadyStale || s == StatusFailed
}

// Result is the outcome of one planning request.
type Result struct {
	CorrelationID string
	Fingerprint   Fingerprint
	Plan          *CachedPlan
	Status        Status
	Err           error
	CacheHit      bool
}
