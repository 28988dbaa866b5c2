package event

import "context"

// Store persists an agent's event stream as an append-only journal.
type Store interface {
	// Append writes events to the journal.
	Append(ctx context.Context, events ...Event) error

	// List returns the stored events for an agent in sequence order.
	List(ctx context.Context, agentID string) ([]Event, error)

	// Close releases resources held by the store.
	Close() error
}
