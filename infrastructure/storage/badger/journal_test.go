package badger_test

import (
	"context"
	"testing"
	"time"

	"github.com/voxmind/voxmind/domain/event"
	"github.com/voxmind/voxmind/infrastructure/storage/badger"
)

func newTestJournal(t *testing.T) *badger.Journal {
	t.Helper()

	journal, err := badger.NewJournal(badger.Config{InMemory: true, KeyPrefix: "test:"})
	if err != nil {
		t.Fatalf("NewJournal() error = %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func testEvent(agentID string, eventType event.Type) event.Event {
	return event.Event{
		AgentID:   agentID,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   []byte(`{"reason":"test"}`),
	}
}

func TestJournal_AppendAndList(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	err := journal.Append(ctx,
		testEvent("agent-1", event.TypeCommandAccepted),
		testEvent("agent-1", event.TypeStateTransition),
		testEvent("agent-1", event.TypeActionStarted),
	)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events, err := journal.List(ctx, "agent-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("List() returned %d events, want 3", len(events))
	}
	for i, e := range events {
		if e.Sequence != uint64(i+1) {
			t.Errorf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
		}
	}
	if events[1].Type != event.TypeStateTransition {
		t.Errorf("events[1].Type = %s, want state_transition", events[1].Type)
	}
}

func TestJournal_SequencePersistsAcrossAppends(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	if err := journal.Append(ctx, testEvent("agent-1", event.TypeActionStarted)); err != nil {
		t.Fatalf("first Append() error = %v", err)
	}
	if err := journal.Append(ctx, testEvent("agent-1", event.TypeActionCompleted)); err != nil {
		t.Fatalf("second Append() error = %v", err)
	}

	events, err := journal.List(ctx, "agent-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("List() returned %d events, want 2", len(events))
	}
	if events[1].Sequence != 2 {
		t.Errorf("second event Sequence = %d, want 2", events[1].Sequence)
	}
}

func TestJournal_AgentsIsolated(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	journal.Append(ctx, testEvent("agent-1", event.TypeActionStarted))
	journal.Append(ctx, testEvent("agent-2", event.TypeInterruptFired))

	events, err := journal.List(ctx, "agent-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("List(agent-1) returned %d events, want 1", len(events))
	}
	if events[0].Type != event.TypeActionStarted {
		t.Errorf("Type = %s, want action_started", events[0].Type)
	}
}

func TestJournal_ListFrom(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	journal.Append(ctx,
		testEvent("agent-1", event.TypeActionStarted),
		testEvent("agent-1", event.TypeActionCompleted),
		testEvent("agent-1", event.TypeActionStarted),
	)

	events, err := journal.ListFrom(ctx, "agent-1", 2)
	if err != nil {
		t.Fatalf("ListFrom() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListFrom(2) returned %d events, want 2", len(events))
	}
	if events[0].Sequence != 2 {
		t.Errorf("first Sequence = %d, want 2", events[0].Sequence)
	}
}

func TestJournal_Count(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	journal.Append(ctx,
		testEvent("agent-1", event.TypeActionStarted),
		testEvent("agent-1", event.TypeActionCompleted),
	)

	count, err := journal.Count(ctx, "agent-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestJournal_DeleteAgent(t *testing.T) {
	journal := newTestJournal(t)
	ctx := context.Background()

	journal.Append(ctx, testEvent("agent-1", event.TypeActionStarted))
	if err := journal.DeleteAgent(ctx, "agent-1"); err != nil {
		t.Fatalf("DeleteAgent() error = %v", err)
	}

	events, err := journal.List(ctx, "agent-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("List() returned %d events after delete, want 0", len(events))
	}

	// Sequence counter resets with the stream.
	journal.Append(ctx, testEvent("agent-1", event.TypeActionStarted))
	events, _ = journal.List(ctx, "agent-1")
	if len(events) != 1 || events[0].Sequence != 1 {
		t.Errorf("after delete, got %d events first seq %d, want 1 event seq 1", len(events), events[0].Sequence)
	}
}

func TestJournal_CancelledContext(t *testing.T) {
	journal := newTestJournal(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := journal.Append(ctx, testEvent("agent-1", event.TypeActionStarted)); err == nil {
		t.Error("Append() with cancelled context should fail")
	}
	if _, err := journal.List(ctx, "agent-1"); err == nil {
		t.Error("List() with cancelled context should fail")
	}
}
