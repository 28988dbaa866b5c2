package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/voxmind/voxmind/domain/agent"
)

// SnapshotStore is a SQLite-backed implementation of agent.SnapshotStore.
// One row per agent; Save replaces the previous snapshot.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a new SQLite snapshot store.
func NewSnapshotStore(cfg Config, opts ...Option) (*SnapshotStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &SnapshotStore{db: db}

	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewSnapshotStoreFromDB creates a snapshot store from an existing
// database connection.
func NewSnapshotStoreFromDB(db *sql.DB) (*SnapshotStore, error) {
	s := &SnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the snapshots table if it doesn't exist.
func (s *SnapshotStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			agent_id TEXT PRIMARY KEY,
			current_state TEXT NOT NULL,
			data BLOB NOT NULL,
			taken_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_state ON snapshots(current_state);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
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

	now := time.Now().Unix()
	_, err = s.db.Exec(
		`INSERT INTO snapshots (agent_id, current_state, data, taken_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(agent_id) DO UPDATE SET
			current_state = excluded.current_state,
			data = excluded.data,
			taken_at = excluded.taken_at,
			updated_at = excluded.updated_at`,
		snapshot.AgentID, string(snapshot.CurrentState), data, snapshot.TakenAt.Unix(), now,
	)
	return err
}

// Load retrieves the snapshot for an agent.
func (s *SnapshotStore) Load(agentID string) (*agent.Snapshot, bool, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM snapshots WHERE agent_id = ?",
		agentID,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	snapshot, err := agent.DecodeSnapshot(data)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

// Delete removes the snapshot for an agent.
func (s *SnapshotStore) Delete(agentID string) error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE agent_id = ?", agentID)
	return err
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SnapshotStore) DB() *sql.DB {
	return s.db
}

var _ agent.SnapshotStore = (*SnapshotStore)(nil)
