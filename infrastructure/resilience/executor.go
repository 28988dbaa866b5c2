// Package resilience provides resilient planner execution using fortify.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/voxmind/voxmind/domain/plan"
)

// Call is a single attempt against the planning dependency.
type Call[T any] func(ctx context.Context) (T, error)

// Executor shields the planning dependency with circuit breaker, retry,
// bulkhead and timeout patterns.
type Executor[T any] struct {
	bulkhead bulkhead.Bulkhead[T]
	breaker  circuitbreaker.CircuitBreaker[T]
	retry    retry.Retry[T]
	timeout  time.Duration

	onCircuitChange func(open bool)
	mu              sync.Mutex
	wasOpen         bool
}

// ExecutorConfig configures the resilient executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent planning calls.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum number of attempts per call.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// CallTimeout is the per-call deadline.
	CallTimeout time.Duration

	// OnCircuitChange is invoked whenever the circuit opens or closes.
	OnCircuitChange func(open bool)
}

// DefaultExecutorConfig returns a configuration with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:           8,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        3,
		RetryInitialDelay:       200 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		CallTimeout:             30 * time.Second,
	}
}

// NewExecutor creates a new resilient executor.
func NewExecutor[T any](config ExecutorConfig) *Executor[T] {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 8
	}
	threshold := config.CircuitBreakerThreshold
	if threshold < 1 {
		threshold = 5
	}

	return &Executor[T]{
		bulkhead: bulkhead.New[T](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[T](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    config.CircuitBreakerTimeout,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[T](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		}),
		timeout:         config.CallTimeout,
		onCircuitChange: config.OnCircuitChange,
	}
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor[T any]() *Executor[T] {
	return NewExecutor[T](DefaultExecutorConfig())
}

// Execute runs a planning call with resilience patterns applied.
// Composition order: Bulkhead → Timeout → Circuit Breaker → Retry.
// An open circuit fails fast with ErrCircuitOpen without invoking the call.
func (e *Executor[T]) Execute(ctx context.Context, call Call[T]) (T, error) {
	var zero T
	if e.CircuitOpen() {
		return zero, plan.ErrCircuitOpen
	}

	result, err := e.bulkhead.Execute(ctx, func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		return e.breaker.Execute(ctx, func(ctx context.Context) (T, error) {
			return e.retry.Do(ctx, func(ctx context.Context) (T, error) {
				return call(ctx)
			})
		})
	})
	e.noteCircuit()
	if err != nil {
		return zero, e.mapError(err)
	}
	return result, nil
}

// noteCircuit reports open/close flips to the configured observer.
func (e *Executor[T]) noteCircuit() {
	if e.onCircuitChange == nil {
		return
	}
	open := e.CircuitOpen()

	e.mu.Lock()
	changed := open != e.wasOpen
	e.wasOpen = open
	e.mu.Unlock()

	if changed {
		e.onCircuitChange(open)
	}
}

// CircuitOpen reports whether the circuit breaker is open.
func (e *Executor[T]) CircuitOpen() bool {
	return e.breaker.State().String() == "open"
}

// CircuitState returns the current state of the circuit breaker.
func (e *Executor[T]) CircuitState() circuitbreaker.State {
	return e.breaker.State()
}

// mapError translates transport failures into domain planning errors.
func (e *Executor[T]) mapError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", plan.ErrExternalTimeout, err)
	case errors.Is(err, plan.ErrMalformedResponse):
		return err
	case e.CircuitOpen():
		return fmt.Errorf("%w: %v", plan.ErrCircuitOpen, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", plan.ErrExternalError, err)
	}
}
