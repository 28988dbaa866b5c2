package memory

import (
	"sync"

	"github.com/voxmind/voxmind/domain/agent"
)

// SnapshotStore is an in-memory implementation of agent.SnapshotStore.
// Snapshots are stored encoded so the store observes the same round-trip
// semantics as the persistent backends.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string][]byte),
	}
}

// Save stores or replaces the snapshot for its agent.
func (s *SnapshotStore) Save(snapshot *agent.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	data, err := snapshot.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.AgentID] = data
	return nil
}

// Load retrieves the snapshot for an agent.
func (s *SnapshotStore) Load(agentID string) (*agent.Snapshot, bool, error) {
	s.mu.RLock()
	data, ok := s.snapshots[agentID]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	snapshot, err := agent.DecodeSnapshot(data)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

// Delete removes the snapshot for an agent.
func (s *SnapshotStore) Delete(agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, agentID)
	return nil
}

// Close releases the store.
func (s *SnapshotStore) Close() error {
	return nil
}

var _ agent.SnapshotStore = (*SnapshotStore)(nil)
