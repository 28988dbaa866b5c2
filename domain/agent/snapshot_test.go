package agent_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/voxmind/voxmind/domain/agent"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	snap := &agent.Snapshot{
		AgentID:         "crew-7",
		CurrentState:    agent.StateInterrupted,
		SuspensionStack: []agent.State{agent.StateExecuting},
		Queue: []agent.QueuedAction{
			{ID: "a1", Kind: "move", Params: json.RawMessage(`{"x":10,"y":64,"z":-3}`), Status: "pending"},
			{ID: "a2", Kind: "interact", Params: json.RawMessage(`{"verb":"open"}`), Status: "pending"},
		},
	}

	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := agent.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}

	if got.AgentID != snap.AgentID {
		t.Errorf("AgentID = %s, want %s", got.AgentID, snap.AgentID)
	}
	if got.CurrentState != snap.CurrentState {
		t.Errorf("CurrentState = %s, want %s", got.CurrentState, snap.CurrentState)
	}
	if !reflect.DeepEqual(got.SuspensionStack, snap.SuspensionStack) {
		t.Errorf("SuspensionStack = %v, want %v", got.SuspensionStack, snap.SuspensionStack)
	}
	if len(got.Queue) != 2 {
		t.Fatalf("Queue length = %d, want 2", len(got.Queue))
	}
	if got.Queue[0].Kind != "move" || string(got.Queue[0].Params) != `{"x":10,"y":64,"z":-3}` {
		t.Errorf("Queue[0] did not round-trip: %+v", got.Queue[0])
	}
}

func TestSnapshot_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		snap    agent.Snapshot
		wantErr bool
	}{
		{"valid", agent.Snapshot{AgentID: "a", CurrentState: agent.StateIdle}, false},
		{"empty agent id", agent.Snapshot{CurrentState: agent.StateIdle}, true},
		{"bogus state", agent.Snapshot{AgentID: "a", CurrentState: "sleeping"}, true},
		{"bogus suspended state", agent.Snapshot{
			AgentID:         "a",
			CurrentState:    agent.StateInterrupted,
			SuspensionStack: []agent.State{"combat"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.snap.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
