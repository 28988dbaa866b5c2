package sim_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/voxmind/voxmind/domain/effector"
	"github.com/voxmind/voxmind/infrastructure/sim"
)

func TestEffector_MoveCompletesAfterTicks(t *testing.T) {
	t.Parallel()

	e := sim.NewEffector(sim.WithMoveTicks(3))
	id, err := e.Move(context.Background(), effector.Target{X: 10, Y: 64, Z: -3})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if status := e.Poll(id); status.Done {
			t.Fatalf("Poll() done after %d polls, want 3", i+1)
		}
	}
	status := e.Poll(id)
	if !status.Done || status.Err != nil {
		t.Errorf("Poll() = %+v, want done without error", status)
	}
}

func TestEffector_QueryResult(t *testing.T) {
	t.Parallel()

	e := sim.NewEffector()
	e.SetObservation("nearby_entities", json.RawMessage(`{"hostiles":2}`))

	id, err := e.Query(context.Background(), "nearby_entities")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if status := e.Poll(id); !status.Done {
		t.Fatal("query should complete in one poll")
	}

	obs, ok := e.Result(id)
	if !ok {
		t.Fatal("Result() should return the observation")
	}
	var decoded struct {
		Hostiles int `json:"hostiles"`
	}
	if err := json.Unmarshal(obs.Data, &decoded); err != nil {
		t.Fatalf("observation decode error = %v", err)
	}
	if decoded.Hostiles != 2 {
		t.Errorf("hostiles = %d, want 2", decoded.Hostiles)
	}
}

func TestEffector_FailureInjection(t *testing.T) {
	t.Parallel()

	e := sim.NewEffector(sim.WithInteractTicks(1))
	boom := errors.New("door is locked")
	e.FailOn("open", boom)

	id, err := e.Interact(context.Background(), effector.Target{}, "open")
	if err != nil {
		t.Fatalf("Interact() error = %v", err)
	}

	status := e.Poll(id)
	if !status.Done || !errors.Is(status.Err, boom) {
		t.Errorf("Poll() = %+v, want done with injected error", status)
	}
}

func TestEffector_Rejection(t *testing.T) {
	t.Parallel()

	e := sim.NewEffector()
	e.RejectOn("move", errors.New("path blocked"))

	_, err := e.Move(context.Background(), effector.Target{})
	if !errors.Is(err, effector.ErrRejected) {
		t.Errorf("Move() error = %v, want ErrRejected", err)
	}
}

func TestEffector_PollUnknownOp(t *testing.T) {
	t.Parallel()

	e := sim.NewEffector()
	status := e.Poll("no-such-op")
	if !status.Done || !errors.Is(status.Err, effector.ErrUnknownOp) {
		t.Errorf("Poll() = %+v, want done with ErrUnknownOp", status)
	}
}

func TestEffector_Release(t *testing.T) {
	t.Parallel()

	e := sim.NewEffector()
	id, _ := e.Move(context.Background(), effector.Target{})

	if e.InFlight() != 1 {
		t.Fatalf("InFlight() = %d, want 1", e.InFlight())
	}

	e.Release(id)
	e.Release(id) // idempotent

	if e.InFlight() != 0 {
		t.Errorf("InFlight() = %d, want 0", e.InFlight())
	}
	if status := e.Poll(id); !errors.Is(status.Err, effector.ErrUnknownOp) {
		t.Errorf("Poll() after release = %+v, want ErrUnknownOp", status)
	}
}

func TestEffector_CancelledContext(t *testing.T) {
	t.Parallel()

	e := sim.NewEffector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Move(ctx, effector.Target{}); err == nil {
		t.Error("Move() with cancelled context should fail")
	}
}
