package planner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/infrastructure/logging"
	"github.com/voxmind/voxmind/infrastructure/resilience"
)

const (
	// DefaultBatchWindow is how long the batcher holds the first request
	// while waiting for companions.
	DefaultBatchWindow = 50 * time.Millisecond

	// DefaultMaxBatch flushes early once this many requests are pending.
	DefaultMaxBatch = 8
)

// Outcome is the terminal result of one batched planning request.
type Outcome struct {
	Plan *plan.CachedPlan
	Err  error
}

// ErrBatcherClosed is returned for requests enqueued after Close.
var ErrBatcherClosed = fmt.Errorf("planner: batcher closed")

// Batcher coalesces planning requests that arrive within a short window
// into a single provider call. Each request keeps its own correlation ID;
// the batched response is split back into per-request outcomes.
type Batcher struct {
	provider    Provider
	exec        *resilience.Executor[map[string]*plan.CachedPlan]
	model       string
	temperature float64
	maxTokens   int
	window      time.Duration
	maxBatch    int

	mu      sync.Mutex
	pending []pendingRequest
	timer   *time.Timer
	closed  bool
}

type pendingRequest struct {
	req     plan.Request
	out     chan Outcome
	onRetry func()
}

// BatcherConfig configures the batcher.
type BatcherConfig struct {
	Provider    Provider
	Executor    *resilience.Executor[map[string]*plan.CachedPlan]
	Model       string
	Temperature float64
	MaxTokens   int
	Window      time.Duration
	MaxBatch    int
}

// NewBatcher creates a batcher around the given provider.
func NewBatcher(config BatcherConfig) *Batcher {
	window := config.Window
	if window <= 0 {
		window = DefaultBatchWindow
	}
	maxBatch := config.MaxBatch
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	exec := config.Executor
	if exec == nil {
		exec = resilience.NewDefaultExecutor[map[string]*plan.CachedPlan]()
	}
	temperature := config.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &Batcher{
		provider:    config.Provider,
		exec:        exec,
		model:       config.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
		window:      window,
		maxBatch:    maxBatch,
	}
}

// Enqueue adds a request to the current batch and returns a channel that
// delivers exactly one outcome. onRetry, if non-nil, is invoked each time
// a provider attempt for the batch fails and a retry is scheduled.
func (b *Batcher) Enqueue(req plan.Request, onRetry func()) <-chan Outcome {
	out := make(chan Outcome, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		out <- Outcome{Err: ErrBatcherClosed}
		return out
	}

	b.pending = append(b.pending, pendingRequest{req: req, out: out, onRetry: onRetry})

	switch {
	case len(b.pending) >= b.maxBatch:
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		batch := b.takeLocked()
		b.mu.Unlock()
		go b.dispatch(batch)
	case len(b.pending) == 1:
		b.timer = time.AfterFunc(b.window, b.Flush)
		b.mu.Unlock()
	default:
		b.mu.Unlock()
	}

	return out
}

// Flush dispatches the pending batch immediately.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.takeLocked()
	b.mu.Unlock()

	if len(batch) > 0 {
		b.dispatch(batch)
	}
}

// Close flushes any pending batch and rejects later requests.
func (b *Batcher) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.takeLocked()
	b.mu.Unlock()

	if len(batch) > 0 {
		b.dispatch(batch)
	}
}

func (b *Batcher) takeLocked() []pendingRequest {
	batch := b.pending
	b.pending = nil
	return batch
}

// dispatch runs one provider call for the batch and splits the response.
func (b *Batcher) dispatch(batch []pendingRequest) {
	reqs := make([]plan.Request, len(batch))
	for i, p := range batch {
		reqs[i] = p.req
	}

	start := time.Now()
	var attempts atomic.Int32

	// entryErrs carries per-entry validation failures out of the last
	// attempt; attempts run sequentially inside Execute.
	var entryErrs map[string]error

	plans, err := b.exec.Execute(context.Background(), func(ctx context.Context) (map[string]*plan.CachedPlan, error) {
		if attempts.Add(1) > 1 {
			for _, p := range batch {
				if p.onRetry != nil {
					p.onRetry()
				}
			}
		}
		batchPlans, batchEntryErrs, err := b.complete(ctx, reqs)
		entryErrs = batchEntryErrs
		return batchPlans, err
	})

	logging.Debug().
		Add(logging.Component("planner")).
		Add(logging.Str("provider", b.provider.Name())).
		Add(logging.Duration(time.Since(start))).
		Add(logging.QueueLen(len(batch))).
		Add(logging.ErrorField(err)).
		Msg("batch dispatched")

	if err != nil {
		for _, p := range batch {
			p.out <- Outcome{Err: err}
		}
		return
	}

	for _, p := range batch {
		if entryErr, ok := entryErrs[p.req.CorrelationID]; ok {
			p.out <- Outcome{Err: entryErr}
			continue
		}
		cached, ok := plans[p.req.CorrelationID]
		if !ok {
			p.out <- Outcome{Err: fmt.Errorf("%w: no entry for correlation ID %s", plan.ErrMalformedResponse, p.req.CorrelationID)}
			continue
		}
		p.out <- Outcome{Plan: cached}
	}
}

// complete performs one provider attempt for the batch.
func (b *Batcher) complete(ctx context.Context, reqs []plan.Request) (map[string]*plan.CachedPlan, map[string]error, error) {
	resp, err := b.provider.Complete(ctx, CompletionRequest{
		Model: b.model,
		Messages: []Message{
			{Role: "system", Content: DefaultSystemPrompt},
			{Role: "user", Content: buildBatchPrompt(reqs)},
		},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return nil, nil, err
	}
	if resp.Error != nil {
		return nil, nil, resp.Error
	}
	return ParseBatch(resp.Message.Content)
}
