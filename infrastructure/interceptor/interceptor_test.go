package interceptor_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/event"
	domain "github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/infrastructure/interceptor"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

func testInfo() domain.Info {
	return domain.Info{
		AgentID:  "agent-1",
		ActionID: "a1",
		Kind:     action.KindMove,
		Tick:     3,
		Started:  time.Now().Add(-50 * time.Millisecond),
	}
}

func TestEvents_PublishesLifecycle(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	defer bus.Close()
	sub := bus.Subscribe(8)

	events := interceptor.NewEvents(bus)
	info := testInfo()

	events.BeforeStart(info)
	events.OnComplete(info, action.StatusSucceeded)

	started := <-sub
	if started.Type != event.TypeActionStarted {
		t.Errorf("first event Type = %s, want action_started", started.Type)
	}
	if started.AgentID != "agent-1" {
		t.Errorf("AgentID = %s, want agent-1", started.AgentID)
	}

	completed := <-sub
	if completed.Type != event.TypeActionCompleted {
		t.Errorf("second event Type = %s, want action_completed", completed.Type)
	}

	var payload struct {
		ActionID string `json:"action_id"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(completed.Payload, &payload); err != nil {
		t.Fatalf("payload decode error = %v", err)
	}
	if payload.ActionID != "a1" || payload.Status != "succeeded" {
		t.Errorf("payload = %+v, want a1/succeeded", payload)
	}
}

func TestEvents_FailureMapsToActionFailed(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	defer bus.Close()
	sub := bus.Subscribe(8)

	events := interceptor.NewEvents(bus)
	events.OnComplete(testInfo(), action.StatusFailed)

	got := <-sub
	if got.Type != event.TypeActionFailed {
		t.Errorf("Type = %s, want action_failed", got.Type)
	}
}

func TestMetrics_NilProviderDefaultsToNoop(t *testing.T) {
	t.Parallel()

	m := interceptor.NewMetrics(nil)

	// Must not panic.
	m.OnComplete(testInfo(), action.StatusSucceeded)
	m.OnError(testInfo(), action.ErrActionFailure)
}

func TestInterceptors_SatisfyChain(t *testing.T) {
	t.Parallel()

	chain := domain.NewChain(
		interceptor.NewLogging(),
		interceptor.NewMetrics(&telemetry.NoopMetricsProvider{}),
	)
	if chain.Len() != 2 {
		t.Errorf("Len() = %d, want 2", chain.Len())
	}

	info := testInfo()
	chain.BeforeStart(info)
	chain.AfterTick(info)
	chain.OnComplete(info, action.StatusSucceeded)
}
