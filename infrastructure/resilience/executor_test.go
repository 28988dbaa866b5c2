package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voxmind/voxmind/domain/plan"
)

func TestExecutor_Success(t *testing.T) {
	t.Parallel()

	exec := NewDefaultExecutor[*plan.CachedPlan]()

	want := plan.NewCachedPlan([]plan.Step{{Kind: "move"}}, 0.9, "")
	got, err := exec.Execute(context.Background(), func(ctx context.Context) (*plan.CachedPlan, error) {
		return want, nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(got.Steps) != 1 || got.Steps[0].Kind != "move" {
		t.Errorf("Execute() plan = %+v, want one move step", got)
	}
}

func TestExecutor_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	exec := NewExecutorWithOptions[*plan.CachedPlan](
		WithRetryAttempts(3),
		WithRetryDelay(time.Millisecond),
	)

	var calls atomic.Int32
	got, err := exec.Execute(context.Background(), func(ctx context.Context) (*plan.CachedPlan, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection reset")
		}
		return plan.NewCachedPlan(nil, 0.5, ""), nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got == nil {
		t.Fatal("Execute() returned nil plan")
	}
	if calls.Load() != 3 {
		t.Errorf("call count = %d, want 3", calls.Load())
	}
}

func TestExecutor_MapsTimeout(t *testing.T) {
	t.Parallel()

	exec := NewExecutorWithOptions[*plan.CachedPlan](
		WithCallTimeout(10*time.Millisecond),
		WithRetryAttempts(1),
	)

	_, err := exec.Execute(context.Background(), func(ctx context.Context) (*plan.CachedPlan, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, plan.ErrExternalTimeout) {
		t.Errorf("Execute() error = %v, want ErrExternalTimeout", err)
	}
}

func TestExecutor_MapsExternalError(t *testing.T) {
	t.Parallel()

	exec := NewExecutorWithOptions[*plan.CachedPlan](
		WithRetryAttempts(1),
		WithRetryDelay(time.Millisecond),
	)

	_, err := exec.Execute(context.Background(), func(ctx context.Context) (*plan.CachedPlan, error) {
		return nil, errors.New("boom")
	})
	if !errors.Is(err, plan.ErrExternalError) {
		t.Errorf("Execute() error = %v, want ErrExternalError", err)
	}
}

func TestExecutor_PreservesMalformedResponse(t *testing.T) {
	t.Parallel()

	exec := NewExecutorWithOptions[*plan.CachedPlan](
		WithRetryAttempts(1),
		WithRetryDelay(time.Millisecond),
	)

	_, err := exec.Execute(context.Background(), func(ctx context.Context) (*plan.CachedPlan, error) {
		return nil, plan.ErrMalformedResponse
	})
	if !errors.Is(err, plan.ErrMalformedResponse) {
		t.Errorf("Execute() error = %v, want ErrMalformedResponse", err)
	}
}

func TestExecutor_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	exec := NewExecutorWithOptions[*plan.CachedPlan](
		WithCircuitBreakerThreshold(5),
		WithCircuitBreakerTimeout(time.Minute),
		WithRetryAttempts(1),
		WithRetryDelay(time.Millisecond),
	)

	var calls atomic.Int32
	failing := func(ctx context.Context) (*plan.CachedPlan, error) {
		calls.Add(1)
		return nil, errors.New("dependency down")
	}

	for i := 0; i < 5; i++ {
		if _, err := exec.Execute(context.Background(), failing); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}
	invoked := calls.Load()
	if invoked != 5 {
		t.Fatalf("dependency invoked %d times, want 5", invoked)
	}
	if !exec.CircuitOpen() {
		t.Fatal("circuit should be open after 5 consecutive failures")
	}

	// While open, calls short-circuit without reaching the dependency.
	for i := 0; i < 10; i++ {
		_, err := exec.Execute(context.Background(), failing)
		if !errors.Is(err, plan.ErrCircuitOpen) {
			t.Fatalf("call while open: error = %v, want ErrCircuitOpen", err)
		}
	}
	if calls.Load() != invoked {
		t.Errorf("dependency invoked %d times while open, want 0", calls.Load()-invoked)
	}
}

func TestExecutor_SuccessResetsFailureStreak(t *testing.T) {
	t.Parallel()

	exec := NewExecutorWithOptions[*plan.CachedPlan](
		WithCircuitBreakerThreshold(3),
		WithCircuitBreakerTimeout(time.Minute),
		WithRetryAttempts(1),
		WithRetryDelay(time.Millisecond),
	)

	failing := func(ctx context.Context) (*plan.CachedPlan, error) {
		return nil, errors.New("flaky")
	}
	ok := func(ctx context.Context) (*plan.CachedPlan, error) {
		return plan.NewCachedPlan(nil, 1, ""), nil
	}

	exec.Execute(context.Background(), failing)
	exec.Execute(context.Background(), failing)
	if _, err := exec.Execute(context.Background(), ok); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	exec.Execute(context.Background(), failing)
	exec.Execute(context.Background(), failing)

	if exec.CircuitOpen() {
		t.Error("circuit should stay closed when failures are not consecutive")
	}
}

func TestExecutor_CircuitObserver(t *testing.T) {
	t.Parallel()

	var flips []bool
	var mu sync.Mutex

	exec := NewExecutorWithOptions[*plan.CachedPlan](
		WithCircuitBreakerThreshold(2),
		WithCircuitBreakerTimeout(time.Minute),
		WithRetryAttempts(1),
		WithRetryDelay(time.Millisecond),
		WithCircuitObserver(func(open bool) {
			mu.Lock()
			flips = append(flips, open)
			mu.Unlock()
		}),
	)

	failing := func(ctx context.Context) (*plan.CachedPlan, error) {
		return nil, errors.New("dependency down")
	}
	for i := 0; i < 2; i++ {
		if _, err := exec.Execute(context.Background(), failing); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(flips) != 1 || !flips[0] {
		t.Errorf("observer flips = %v, want [true]", flips)
	}
}
