package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxmind/voxmind/domain/cache"
	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/infrastructure/logging"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

// Ticket tracks one asynchronous planning request. Callers poll it between
// ticks; it never blocks the caller.
type Ticket struct {
	mu     sync.Mutex
	result plan.Result
	done   chan struct{}
}

func newTicket(correlationID string, fp plan.Fingerprint) *Ticket {
	return &Ticket{
		result: plan.Result{
			CorrelationID: correlationID,
			Fingerprint:   fp,
			Status:        plan.StatusInFlight,
		},
		done: make(chan struct{}),
	}
}

// Poll returns a snapshot of the current result without blocking.
func (t *Ticket) Poll() plan.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Done is closed once the result is terminal.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

func (t *Ticket) markRetrying() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.result.Status.Terminal() {
		t.result.Status = plan.StatusRetrying
	}
}

func (t *Ticket) complete(result plan.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result.Status.Terminal() {
		return
	}
	result.CorrelationID = t.result.CorrelationID
	result.Fingerprint = t.result.Fingerprint
	t.result = result
	close(t.done)
}

// Service is the planning front door: it fingerprints requests, serves
// cache hits synchronously, and pushes misses through the batcher. A failed
// call falls back to an expired cache entry when one exists.
type Service struct {
	cache   cache.PlanCache
	batcher *Batcher
	metrics telemetry.Metrics
}

// ServiceConfig configures the planning service.
type ServiceConfig struct {
	Cache   cache.PlanCache
	Batcher *Batcher

	// Metrics records cache and planning telemetry. Nil disables recording.
	Metrics telemetry.Metrics
}

// NewService creates a planning service.
func NewService(config ServiceConfig) *Service {
	metrics := config.Metrics
	if metrics == nil {
		metrics = &telemetry.NoopMetricsProvider{}
	}
	return &Service{
		cache:   config.Cache,
		batcher: config.Batcher,
		metrics: metrics,
	}
}

// PlanAsync submits a planning request and returns a ticket for it. A fresh
// cache hit resolves the ticket before it is returned.
func (s *Service) PlanAsync(ctx context.Context, agentID, command string, snap plan.Snapshot) *Ticket {
	return s.Plan(ctx, plan.NewRequest(agentID, command, snap, uuid.NewString()))
}

// Plan submits a prepared request, preserving its correlation ID.
func (s *Service) Plan(ctx context.Context, req plan.Request) *Ticket {
	start := time.Now()
	fp := req.Fingerprint()
	ticket := newTicket(req.CorrelationID, fp)

	if cached, ok, err := s.cache.Get(ctx, fp); err == nil && ok {
		logging.Debug().
			Add(logging.Component("planner")).
			Add(logging.AgentID(req.AgentID)).
			Add(logging.Fingerprint(fp)).
			Add(logging.Cached(true)).
			Msg("plan served from cache")
		s.metrics.RecordCacheHit(ctx, false)
		s.metrics.RecordPlanningDuration(ctx, time.Since(start), true)
		ticket.complete(plan.Result{
			Plan:     cached,
			Status:   plan.StatusReady,
			CacheHit: true,
		})
		return ticket
	}

	s.metrics.RecordCacheMiss(ctx)
	outcome := s.batcher.Enqueue(req, ticket.markRetrying)
	go s.await(ctx, req, ticket, outcome, start)
	return ticket
}

// await resolves the ticket once the batcher delivers.
func (s *Service) await(ctx context.Context, req plan.Request, ticket *Ticket, outcome <-chan Outcome, start time.Time) {
	fp := ticket.Poll().Fingerprint

	out := <-outcome
	s.metrics.RecordPlanningDuration(ctx, time.Since(start), false)
	if out.Err == nil {
		if err := s.cache.Put(ctx, fp, out.Plan); err != nil {
			logging.Warn().
				Add(logging.Component("planner")).
				Add(logging.Fingerprint(fp)).
				Add(logging.ErrorField(err)).
				Msg("failed to cache plan")
		}
		ticket.complete(plan.Result{
			Plan:   out.Plan,
			Status: plan.StatusReady,
		})
		return
	}

	// Stale fallback: an expired entry beats no plan at all.
	if stale, ok, err := s.cache.GetStale(ctx, fp); err == nil && ok {
		s.metrics.RecordCacheHit(ctx, true)
		logging.Warn().
			Add(logging.Component("planner")).
			Add(logging.AgentID(req.AgentID)).
			Add(logging.Fingerprint(fp)).
			Add(logging.Stale(true)).
			Add(logging.ErrorField(out.Err)).
			Msg("planning failed, serving stale plan")
		ticket.complete(plan.Result{
			Plan:     stale,
			Status:   plan.StatusReadyStale,
			CacheHit: true,
		})
		return
	}

	logging.Error().
		Add(logging.Component("planner")).
		Add(logging.AgentID(req.AgentID)).
		Add(logging.Fingerprint(fp)).
		Add(logging.ErrorField(out.Err)).
		Msg("planning failed")
	s.metrics.RecordPlanningFailure(ctx, failureReason(out.Err))
	ticket.complete(plan.Result{
		Status: plan.StatusFailed,
		Err:    fmt.Errorf("%w: %v", plan.ErrPlanningFailed, out.Err),
	})
}

// failureReason buckets a planning error for the failure counter.
func failureReason(err error) string {
	switch {
	case errors.Is(err, plan.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, plan.ErrExternalTimeout):
		return "timeout"
	case errors.Is(err, plan.ErrMalformedResponse):
		return "malformed_response"
	default:
		return "provider_error"
	}
}

// Close shuts down the underlying batcher.
func (s *Service) Close() {
	s.batcher.Close()
}
