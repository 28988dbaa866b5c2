package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/voxmind/voxmind/domain/event"
)

// Journal is a BadgerDB-backed implementation of event.Store. Events are
// keyed by agent ID and a monotonically increasing sequence number, so
// iteration returns them in append order.
type Journal struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
}

// NewJournal creates a new BadgerDB journal with the given configuration.
func NewJournal(cfg Config, opts ...Option) (*Journal, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		gcStop:    make(chan struct{}),
	}

	if cfg.GCInterval > 0 {
		j.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return j, nil
}

// NewJournalFromDB creates a journal from an existing BadgerDB database.
func NewJournalFromDB(db *badger.DB, keyPrefix string) *Journal {
	return &Journal{
		db:        db,
		keyPrefix: keyPrefix,
		gcStop:    make(chan struct{}),
	}
}

// startGC starts the value log garbage collection goroutine.
func (j *Journal) startGC(interval time.Duration, discardRatio float64) {
	j.gcWg.Add(1)
	go func() {
		defer j.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-j.gcStop:
				return
			case <-ticker.C:
				for {
					if err := j.db.RunValueLogGC(discardRatio); err != nil {
						break
					}
				}
			}
		}
	}()
}

// Key format: prefix + "events:" + agentID + ":" + sequence (8 bytes, big-endian)
func (j *Journal) eventKey(agentID string, seq uint64) []byte {
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	return append([]byte(j.keyPrefix+"events:"+agentID+":"), seqBytes...)
}

// Key format: prefix + "seq:" + agentID for the sequence counter
func (j *Journal) seqKey(agentID string) []byte {
	return []byte(j.keyPrefix + "seq:" + agentID)
}

// Append persists events atomically, assigning each a sequence number
// within its agent's stream.
func (j *Journal) Append(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	byAgent := make(map[string][]event.Event)
	for _, e := range events {
		byAgent[e.AgentID] = append(byAgent[e.AgentID], e)
	}

	return j.db.Update(func(txn *badger.Txn) error {
		for agentID, agentEvents := range byAgent {
			seq, err := j.currentSeq(txn, agentID)
			if err != nil {
				return err
			}

			for i := range agentEvents {
				e := &agentEvents[i]
				seq++
				e.Sequence = seq

				data, err := json.Marshal(e)
				if err != nil {
					return err
				}
				if err := txn.Set(j.eventKey(agentID, seq), data); err != nil {
					return err
				}
			}

			seqBytes := make([]byte, 8)
			binary.BigEndian.PutUint64(seqBytes, seq)
			if err := txn.Set(j.seqKey(agentID), seqBytes); err != nil {
				return err
			}
		}
		return nil
	})
}

// currentSeq reads the sequence counter for an agent, zero when absent.
func (j *Journal) currentSeq(txn *badger.Txn, agentID string) (uint64, error) {
	item, err := txn.Get(j.seqKey(agentID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) == 8 {
			seq = binary.BigEndian.Uint64(val)
		}
		return nil
	})
	return seq, err
}

// List returns the stored events for an agent in sequence order.
func (j *Journal) List(ctx context.Context, agentID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(j.keyPrefix + "events:" + agentID + ":")
	var events []event.Event

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e event.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue // skip malformed entries
			}
			events = append(events, e)
		}
		return nil
	})

	return events, err
}

// ListFrom returns events for an agent starting at a sequence number.
func (j *Journal) ListFrom(ctx context.Context, agentID string, fromSeq uint64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startKey := j.eventKey(agentID, fromSeq)
	prefix := []byte(j.keyPrefix + "events:" + agentID + ":")
	var events []event.Event

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(startKey); it.Valid(); it.Next() {
			var e event.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				continue
			}
			events = append(events, e)
		}
		return nil
	})

	return events, err
}

// Count returns the number of events stored for an agent.
func (j *Journal) Count(ctx context.Context, agentID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := []byte(j.keyPrefix + "events:" + agentID + ":")
	var count int64

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// DeleteAgent removes all events and the sequence counter for an agent.
func (j *Journal) DeleteAgent(ctx context.Context, agentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := []byte(j.keyPrefix + "events:" + agentID + ":")
	if err := j.db.DropPrefix(prefix); err != nil {
		return err
	}

	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(j.seqKey(agentID))
	})
}

// Close stops GC and closes the database.
func (j *Journal) Close() error {
	close(j.gcStop)
	j.gcWg.Wait()
	return j.db.Close()
}

// DB returns the underlying BadgerDB database.
func (j *Journal) DB() *badger.DB {
	return j.db
}

var _ event.Store = (*Journal)(nil)
