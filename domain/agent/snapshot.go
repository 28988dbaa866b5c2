package agent

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueuedAction is the serialized form of one queue entry. Params are kept
// as raw JSON so the snapshot round-trips without knowing kind internals.
type QueuedAction struct {
	ID     string          `json:"id"`
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params,omitempty"`
	Status string          `json:"status"`
}

// Snapshot captures everything needed to resume an agent across a process
// restart: identity, current state, the suspension stack, and the pending
// task queue.
type Snapshot struct {
	AgentID         string         `json:"agent_id"`
	CurrentState    State          `json:"current_state"`
	SuspensionStack []State        `json:"suspension_stack"`
	Queue           []QueuedAction `json:"queue"`
	TakenAt         time.Time      `json:"taken_at"`
}

// Validate checks that the snapshot refers only to canonical states.
func (s *Snapshot) Validate() error {
	if s.AgentID == "" {
		return fmt.Errorf("%w: empty agent id", ErrInvalidState)
	}
	if !s.CurrentState.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, s.CurrentState)
	}
	for _, st := range s.SuspensionStack {
		if !st.IsValid() {
			return fmt.Errorf("%w: suspended %q", ErrInvalidState, st)
		}
	}
	return nil
}

// Encode serializes the snapshot to JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot deserializes a snapshot from JSON and validates it.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SnapshotStore persists agent snapshots for resumability.
type SnapshotStore interface {
	// Save stores or replaces the snapshot for its agent.
	Save(snapshot *Snapshot) error

	// Load retrieves the snapshot for an agent. The second return is false
	// when no snapshot exists.
	Load(agentID string) (*Snapshot, bool, error)

	// Delete removes the snapshot for an agent.
	Delete(agentID string) error

	// Close releases any resources held by the store.
	Close() error
}
