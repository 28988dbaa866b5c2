package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voxmind/voxmind/application"
	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/domain/reactive"
	"github.com/voxmind/voxmind/infrastructure/planner"
	"github.com/voxmind/voxmind/infrastructure/resilience"
	"github.com/voxmind/voxmind/infrastructure/sim"
	"github.com/voxmind/voxmind/infrastructure/storage/memory"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

var calm = reactive.Facts{"hostile_proximity": 0}

func hostileSelector() *reactive.Selector {
	return reactive.NewSelector(reactive.Candidate{
		ID:       "flee-hostiles",
		Severity: reactive.SeveritySoft,
		Considerations: []reactive.Consideration{{
			Weight: 1,
			Curve:  reactive.Linear(),
			Input:  func(f reactive.Facts) float64 { return f["hostile_proximity"] },
		}},
	})
}

func newTestPlannerService(t *testing.T, provider planner.Provider) *planner.Service {
	t.Helper()

	batcher := planner.NewBatcher(planner.BatcherConfig{
		Provider: provider,
		Executor: resilience.NewExecutorWithOptions[map[string]*plan.CachedPlan](
			resilience.WithRetryAttempts(1),
			resilience.WithRetryDelay(time.Millisecond),
		),
		Window: time.Millisecond,
	})
	svc := planner.NewService(planner.ServiceConfig{
		Cache:   memory.NewCache(),
		Batcher: batcher,
	})
	t.Cleanup(svc.Close)
	return svc
}

func newTestAgent(t *testing.T, provider planner.Provider, eff *sim.Effector, opts ...application.AgentOption) *application.Agent {
	t.Helper()

	registry, err := action.NewRegistry(action.Builtins())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	svc := newTestPlannerService(t, provider)

	a, err := application.NewAgent("agent-1", eff, svc, registry, opts...)
	if err != nil {
		t.Fatalf("NewAgent() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

// tickUntil drives the agent with the given facts until the condition
// holds, failing the test after the deadline.
func tickUntil(t *testing.T, a *application.Agent, facts reactive.Facts, what string, cond func() bool) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting: %s (state %s)", what, a.State())
		default:
		}
		a.Tick(context.Background(), facts)
		time.Sleep(time.Millisecond)
	}
}

func shelterProvider() *planner.ScriptedProvider {
	return planner.NewScriptedProvider().On("build shelter",
		plan.Step{Kind: "move", Params: []byte(`{"x": 10, "y": 0, "z": 4}`)},
		plan.Step{Kind: "interact", Params: []byte(`{"x": 10, "y": 0, "z": 4, "verb": "place_block"}`)},
		plan.Step{Kind: "wait", Params: []byte(`{"ticks": 1}`)},
	)
}

func TestAgent_ExecutesPlannedCommand(t *testing.T) {
	t.Parallel()

	eff := sim.NewEffector()
	a := newTestAgent(t, shelterProvider(), eff)

	correlationID, err := a.Submit(context.Background(), "Build Shelter", plan.Snapshot{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if correlationID == "" {
		t.Fatal("Submit() returned empty correlation ID")
	}
	if a.State() != agent.StatePlanning {
		t.Fatalf("State = %s, want planning", a.State())
	}

	tickUntil(t, a, calm, "plan to finish", func() bool {
		return a.State() == agent.StateIdle && a.Executor().Idle()
	})

	// One move and one interact reached the effector; the wait is local.
	if got := eff.Started(); got != 2 {
		t.Errorf("effector operations started = %d, want 2", got)
	}
	if got := eff.InFlight(); got != 0 {
		t.Errorf("operations still in flight = %d, want 0", got)
	}
}

func TestAgent_HostileInterruptSuspendsAndResumes(t *testing.T) {
	t.Parallel()

	// A slow move keeps the first action running long enough for the
	// hostile to close in.
	eff := sim.NewEffector(sim.WithMoveTicks(1000))
	a := newTestAgent(t, shelterProvider(), eff,
		application.WithSelector(hostileSelector()),
		application.WithInertia(0.6),
	)

	ctx := context.Background()
	if _, err := a.Submit(ctx, "build shelter", plan.Snapshot{}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	tickUntil(t, a, calm, "execution to start", func() bool {
		return a.State() == agent.StateExecuting && a.Executor().Current() != nil
	})
	if got := a.Executor().QueueLen(); got != 2 {
		t.Fatalf("QueueLen() = %d, want 2 pending behind the running move", got)
	}

	// A hostile closes in: utility clears the inertia threshold.
	a.Tick(ctx, reactive.Facts{"hostile_proximity": 0.9})

	if a.State() != agent.StateInterrupted {
		t.Fatalf("State = %s, want interrupted", a.State())
	}
	sig := a.LastSignal()
	if sig.CandidateID != "flee-hostiles" || sig.Severity != reactive.SeveritySoft {
		t.Errorf("LastSignal = %s/%s, want flee-hostiles/soft", sig.CandidateID, sig.Severity)
	}
	if sig.Utility <= 0.6 {
		t.Errorf("Utility = %v, want > 0.6", sig.Utility)
	}
	if got := a.Executor().QueueLen(); got != 2 {
		t.Errorf("QueueLen() after soft interrupt = %d, want 2", got)
	}
	if a.Executor().Current() != nil {
		t.Error("running action should be cancelled and dropped")
	}

	// While suspended the agent ignores execution work entirely.
	a.Tick(ctx, reactive.Facts{"hostile_proximity": 0.9})
	if a.State() != agent.StateInterrupted {
		t.Fatalf("State after suspended tick = %s, want interrupted", a.State())
	}

	if err := a.Resume(ctx, "threat cleared"); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if a.State() != agent.StateExecuting {
		t.Fatalf("State after resume = %s, want executing", a.State())
	}

	tickUntil(t, a, calm, "remaining actions to drain", func() bool {
		return a.State() == agent.StateIdle && a.Executor().Idle()
	})

	// The cancelled move is not retried: one move op, one interact op.
	if got := eff.Started(); got != 2 {
		t.Errorf("effector operations started = %d, want 2", got)
	}
}

func TestAgent_PlanningFailureDrivesErrorStateAndRecovers(t *testing.T) {
	t.Parallel()

	provider := planner.NewMockProvider()
	provider.FailNext(10, nil)
	eff := sim.NewEffector()
	a := newTestAgent(t, provider, eff,
		application.WithMaxPlanningFailures(1),
	)

	ctx := context.Background()
	if _, err := a.Submit(ctx, "explore the cave", plan.Snapshot{}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	tickUntil(t, a, calm, "planning to fail into error", func() bool {
		return a.State() == agent.StateError
	})

	if err := a.Recover(ctx, "operator reset"); err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if a.State() != agent.StateIdle {
		t.Errorf("State after recover = %s, want idle", a.State())
	}
}

func TestAgent_SnapshotRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := memory.NewSnapshotStore()
	eff := sim.NewEffector(sim.WithMoveTicks(1000))
	a := newTestAgent(t, shelterProvider(), eff,
		application.WithSnapshotStore(store),
	)

	ctx := context.Background()
	if _, err := a.Submit(ctx, "build shelter", plan.Snapshot{}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	tickUntil(t, a, calm, "execution to start", func() bool {
		return a.State() == agent.StateExecuting && a.Executor().Current() != nil
	})

	if err := a.Snapshot(); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	restored := newTestAgent(t, shelterProvider(), sim.NewEffector(),
		application.WithSnapshotStore(store),
	)
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if restored.State() != agent.StateExecuting {
		t.Errorf("restored State = %s, want executing", restored.State())
	}
	// The interrupted head comes back pending alongside the two queued
	// actions.
	if got := restored.Executor().QueueLen(); got != 3 {
		t.Errorf("restored QueueLen() = %d, want 3", got)
	}

	tickUntil(t, restored, calm, "restored plan to drain", func() bool {
		return restored.State() == agent.StateIdle && restored.Executor().Idle()
	})
}

func TestCore_SubmitCommand(t *testing.T) {
	t.Parallel()

	eff := sim.NewEffector()
	a := newTestAgent(t, shelterProvider(), eff)
	core := application.NewCore()
	core.Register(a)

	ctx := context.Background()

	t.Run("empty command rejected", func(t *testing.T) {
		if _, err := core.SubmitCommand(ctx, "agent-1", "   ", plan.Snapshot{}); err == nil {
			t.Error("SubmitCommand() with blank text should fail")
		}
	})

	t.Run("unknown agent rejected", func(t *testing.T) {
		_, err := core.SubmitCommand(ctx, "nobody", "build shelter", plan.Snapshot{})
		if err == nil {
			t.Error("SubmitCommand() for unknown agent should fail")
		}
	})

	t.Run("accepted then queued", func(t *testing.T) {
		first, err := core.SubmitCommand(ctx, "agent-1", "build shelter", plan.Snapshot{})
		if err != nil {
			t.Fatalf("SubmitCommand() error = %v", err)
		}
		if first.Queued {
			t.Error("first command should start planning immediately")
		}
		if first.CorrelationID == "" {
			t.Error("missing correlation ID")
		}

		second, err := core.SubmitCommand(ctx, "agent-1", "build shelter again", plan.Snapshot{})
		if err != nil {
			t.Fatalf("queued SubmitCommand() error = %v", err)
		}
		if !second.Queued {
			t.Error("second command should be queued while the agent is busy")
		}

		// Two plans of two effector operations each.
		tickUntil(t, a, calm, "both plans to drain", func() bool {
			return a.State() == agent.StateIdle && a.Executor().Idle() && eff.Started() == 4
		})
	})
}

// agentMetrics captures transition and interrupt telemetry.
type agentMetrics struct {
	telemetry.NoopMetricsProvider
	mu          sync.Mutex
	transitions []string
	interrupts  []string
}

func (m *agentMetrics) RecordStateTransition(_ context.Context, from, to, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, from+">"+to)
}

func (m *agentMetrics) RecordInterrupt(_ context.Context, condition, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interrupts = append(m.interrupts, condition)
}

func (m *agentMetrics) sawTransition(step string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range m.transitions {
		if tr == step {
			return true
		}
	}
	return false
}

func TestAgent_RecordsTelemetry(t *testing.T) {
	t.Parallel()

	eff := sim.NewEffector(sim.WithMoveTicks(1000))
	metrics := &agentMetrics{}
	a := newTestAgent(t, shelterProvider(), eff,
		application.WithSelector(hostileSelector()),
		application.WithInertia(0.6),
		application.WithMetrics(metrics),
	)

	ctx := context.Background()
	if _, err := a.Submit(ctx, "build shelter", plan.Snapshot{}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	tickUntil(t, a, calm, "execution to start", func() bool {
		return a.State() == agent.StateExecuting && a.Executor().Current() != nil
	})
	a.Tick(ctx, reactive.Facts{"hostile_proximity": 0.9})
	if a.State() != agent.StateInterrupted {
		t.Fatalf("State = %s, want interrupted", a.State())
	}
	a.Tick(ctx, calm)

	for _, step := range []string{"idle>planning", "planning>executing", "executing>interrupted"} {
		if !metrics.sawTransition(step) {
			t.Errorf("transition %s was not recorded", step)
		}
	}
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if len(metrics.interrupts) != 1 || metrics.interrupts[0] != "flee-hostiles" {
		t.Errorf("interrupts = %v, want [flee-hostiles]", metrics.interrupts)
	}
}
