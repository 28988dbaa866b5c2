package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/voxmind/voxmind/application"
	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/policy"
	"github.com/voxmind/voxmind/domain/reactive"
	"github.com/voxmind/voxmind/infrastructure/statemachine"
)

// scriptBehavior is an instrumented behavior: it counts lifecycle calls
// and completes after a fixed number of ticks.
type scriptBehavior struct {
	doneAfter int
	startErrs int
	tickErr   error

	starts  int
	ticks   int
	cancels int
}

func (b *scriptBehavior) Start(context.Context, *action.Exec) error {
	b.starts++
	if b.starts <= b.startErrs {
		return errors.New("start refused")
	}
	return nil
}

func (b *scriptBehavior) Tick(context.Context, *action.Exec) (bool, error) {
	b.ticks++
	if b.tickErr != nil {
		return false, b.tickErr
	}
	return b.ticks >= b.doneAfter, nil
}

func (b *scriptBehavior) Cancel(context.Context, *action.Exec) {
	b.cancels++
}

func newExecutingMachine(t *testing.T) *statemachine.Pushdown {
	t.Helper()

	machine, err := statemachine.NewPushdown("agent-1")
	if err != nil {
		t.Fatalf("NewPushdown() error = %v", err)
	}
	machine.Start()
	t.Cleanup(machine.Stop)

	if !machine.TransitionTo(agent.StatePlanning, "test") {
		t.Fatal("transition to planning rejected")
	}
	if !machine.TransitionTo(agent.StateExecuting, "test") {
		t.Fatal("transition to executing rejected")
	}
	return machine
}

func newTestExecutor(t *testing.T, maxAttempts int) (*application.Executor, *statemachine.Pushdown) {
	t.Helper()

	machine := newExecutingMachine(t)
	executor := application.NewExecutor(application.ExecutorConfig{
		AgentID:     "agent-1",
		Machine:     machine,
		MaxAttempts: maxAttempts,
	})
	return executor, machine
}

func drain(ctx context.Context, t *testing.T, executor *application.Executor) {
	t.Helper()

	for i := 0; i < 100; i++ {
		if executor.Idle() {
			return
		}
		executor.Tick(ctx)
	}
	t.Fatal("executor did not drain in 100 ticks")
}

func TestExecutor_RunsActionsInOrder(t *testing.T) {
	t.Parallel()

	executor, _ := newTestExecutor(t, 0)
	first := &scriptBehavior{doneAfter: 2}
	second := &scriptBehavior{doneAfter: 1}
	a1 := action.New(action.KindMove, nil, first)
	a2 := action.New(action.KindWait, nil, second)
	executor.Enqueue(a1)
	executor.Enqueue(a2)

	ctx := context.Background()

	// First cycle starts the head action without ticking it.
	executor.Tick(ctx)
	if first.starts != 1 || first.ticks != 0 {
		t.Fatalf("after start cycle: starts = %d, ticks = %d, want 1, 0", first.starts, first.ticks)
	}
	if second.starts != 0 {
		t.Fatalf("second action started early: starts = %d", second.starts)
	}

	drain(ctx, t, executor)

	if a1.Status() != action.StatusSucceeded || a2.Status() != action.StatusSucceeded {
		t.Errorf("statuses = %s, %s, want succeeded, succeeded", a1.Status(), a2.Status())
	}
	if first.starts != 1 || second.starts != 1 {
		t.Errorf("starts = %d, %d, want exactly one each", first.starts, second.starts)
	}
	if first.cancels != 0 || second.cancels != 0 {
		t.Errorf("cancels = %d, %d, want 0, 0", first.cancels, second.cancels)
	}
	if first.ticks != 2 || second.ticks != 1 {
		t.Errorf("ticks = %d, %d, want 2, 1", first.ticks, second.ticks)
	}
}

func TestExecutor_RetriesWithinBudgetThenAdvances(t *testing.T) {
	t.Parallel()

	executor, _ := newTestExecutor(t, 2)
	failing := &scriptBehavior{startErrs: 5}
	next := &scriptBehavior{doneAfter: 1}
	bad := action.New(action.KindMove, nil, failing)
	executor.Enqueue(bad)
	executor.Enqueue(action.New(action.KindWait, nil, next))

	drain(context.Background(), t, executor)

	if failing.starts != 2 {
		t.Errorf("failing starts = %d, want 2", failing.starts)
	}
	if bad.Status() != action.StatusFailed {
		t.Errorf("Status = %s, want failed", bad.Status())
	}
	if next.starts != 1 || next.ticks != 1 {
		t.Errorf("next action starts, ticks = %d, %d, want 1, 1", next.starts, next.ticks)
	}
}

func TestExecutor_TransientStartFailureRecovers(t *testing.T) {
	t.Parallel()

	executor, _ := newTestExecutor(t, 2)
	flaky := &scriptBehavior{startErrs: 1, doneAfter: 1}
	a := action.New(action.KindMove, nil, flaky)
	executor.Enqueue(a)

	drain(context.Background(), t, executor)

	if a.Status() != action.StatusSucceeded {
		t.Fatalf("Status = %s, want succeeded", a.Status())
	}
	if flaky.starts != 2 {
		t.Errorf("starts = %d, want 2", flaky.starts)
	}
}

func TestExecutor_SoftInterruptPreservesQueue(t *testing.T) {
	t.Parallel()

	executor, machine := newTestExecutor(t, 0)
	running := &scriptBehavior{doneAfter: 10}
	a1 := action.New(action.KindMove, nil, running)
	a2 := action.New(action.KindInteract, nil, &scriptBehavior{doneAfter: 1})
	a3 := action.New(action.KindWait, nil, &scriptBehavior{doneAfter: 1})
	executor.Enqueue(a1)
	executor.Enqueue(a2)
	executor.Enqueue(a3)

	ctx := context.Background()
	executor.Tick(ctx) // start a1
	executor.Tick(ctx) // tick a1 once

	sig := reactive.Signal{CandidateID: "flee", Severity: reactive.SeveritySoft, Utility: 0.9}
	if err := executor.Interrupt(ctx, sig, "hostile nearby"); err != nil {
		t.Fatalf("Interrupt() error = %v", err)
	}

	if machine.State() != agent.StateInterrupted {
		t.Errorf("State = %s, want interrupted", machine.State())
	}
	if a1.Status() != action.StatusCancelled {
		t.Errorf("running action Status = %s, want cancelled", a1.Status())
	}
	if running.cancels != 1 {
		t.Errorf("running action cancels = %d, want exactly 1", running.cancels)
	}
	if executor.QueueLen() != 2 {
		t.Errorf("QueueLen() = %d, want 2", executor.QueueLen())
	}

	if _, err := machine.Resume("threat cleared"); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	drain(ctx, t, executor)

	// The cancelled action is dropped, not retried.
	if running.starts != 1 {
		t.Errorf("cancelled action starts = %d, want 1", running.starts)
	}
	if a2.Status() != action.StatusSucceeded || a3.Status() != action.StatusSucceeded {
		t.Errorf("remaining statuses = %s, %s, want succeeded, succeeded", a2.Status(), a3.Status())
	}
}

func TestExecutor_CriticalInterruptClearsQueue(t *testing.T) {
	t.Parallel()

	executor, _ := newTestExecutor(t, 0)
	a1 := action.New(action.KindMove, nil, &scriptBehavior{doneAfter: 10})
	a2 := action.New(action.KindWait, nil, &scriptBehavior{doneAfter: 1})
	executor.Enqueue(a1)
	executor.Enqueue(a2)

	ctx := context.Background()
	executor.Tick(ctx)

	sig := reactive.Signal{CandidateID: "low-health", Severity: reactive.SeverityCritical, Utility: 0.95}
	if err := executor.Interrupt(ctx, sig, "health critical"); err != nil {
		t.Fatalf("Interrupt() error = %v", err)
	}

	if executor.QueueLen() != 0 {
		t.Errorf("QueueLen() = %d, want 0", executor.QueueLen())
	}
	if a2.Status() != action.StatusCancelled {
		t.Errorf("queued action Status = %s, want cancelled", a2.Status())
	}
}

func TestExecutor_RejectedInterruptLeavesActionRunning(t *testing.T) {
	t.Parallel()

	// No edge out of executing into interrupted: every interrupt is
	// rejected by the state machine.
	rules := policy.NewTransitionsWith(policy.TransitionRules{
		agent.StateIdle:      {agent.StatePlanning},
		agent.StatePlanning:  {agent.StateExecuting, agent.StateIdle},
		agent.StateExecuting: {agent.StateIdle},
	})
	machine, err := statemachine.NewPushdown("agent-1", statemachine.WithTransitionRules(rules))
	if err != nil {
		t.Fatalf("NewPushdown() error = %v", err)
	}
	machine.Start()
	t.Cleanup(machine.Stop)
	machine.TransitionTo(agent.StatePlanning, "test")
	machine.TransitionTo(agent.StateExecuting, "test")

	executor := application.NewExecutor(application.ExecutorConfig{
		AgentID: "agent-1",
		Machine: machine,
	})
	running := &scriptBehavior{doneAfter: 10}
	a := action.New(action.KindMove, nil, running)
	executor.Enqueue(a)
	ctx := context.Background()
	executor.Tick(ctx)

	sig := reactive.Signal{CandidateID: "flee", Severity: reactive.SeveritySoft, Utility: 0.9}
	if err := executor.Interrupt(ctx, sig, "hostile nearby"); err == nil {
		t.Fatal("Interrupt() should be rejected")
	}
	if machine.State() != agent.StateExecuting {
		t.Errorf("State = %s, want executing", machine.State())
	}

	if a.Status() != action.StatusRunning {
		t.Errorf("Status = %s, want running", a.Status())
	}
	if running.cancels != 0 {
		t.Errorf("cancels = %d, want 0", running.cancels)
	}
}

func TestExecutor_SnapshotQueueIncludesRunningHead(t *testing.T) {
	t.Parallel()

	executor, _ := newTestExecutor(t, 0)
	a1 := action.New(action.KindMove, nil, &scriptBehavior{doneAfter: 10})
	a2 := action.New(action.KindWait, nil, &scriptBehavior{doneAfter: 1})
	executor.Enqueue(a1)
	executor.Enqueue(a2)

	executor.Tick(context.Background())

	snap := executor.SnapshotQueue()
	if len(snap) != 2 {
		t.Fatalf("len(snap) = %d, want 2", len(snap))
	}
	if snap[0].ID != a1.ID || snap[0].Status != string(action.StatusRunning) {
		t.Errorf("head = %s/%s, want %s/running", snap[0].ID, snap[0].Status, a1.ID)
	}
	if snap[1].ID != a2.ID {
		t.Errorf("snap[1].ID = %s, want %s", snap[1].ID, a2.ID)
	}
}
