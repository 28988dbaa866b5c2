package action

import (
	"github.com/voxmind/voxmind/domain/agent"
)

// Queue is the FIFO task queue for one agent. It has a single writer and a
// single consumer (the owning agent's executor on the tick goroutine), so
// it carries no locking of its own.
type Queue struct {
	items []*Action
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an action.
func (q *Queue) Push(a *Action) {
	q.items = append(q.items, a)
}

// Pop removes and returns the oldest action, or nil when empty.
func (q *Queue) Pop() *Action {
	if len(q.items) == 0 {
		return nil
	}
	a := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return a
}

// Peek returns the oldest action without removing it.
func (q *Queue) Peek() *Action {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	return len(q.items)
}

// Clear drops every queued action, marking each cancelled.
func (q *Queue) Clear() {
	for _, a := range q.items {
		a.SetStatus(StatusCancelled)
	}
	q.items = nil
}

// Snapshot serializes the pending queue contents.
func (q *Queue) Snapshot() []agent.QueuedAction {
	out := make([]agent.QueuedAction, 0, len(q.items))
	for _, a := range q.items {
		out = append(out, agent.QueuedAction{
			ID:     a.ID,
			Kind:   string(a.Kind),
			Params: a.Params,
			Status: string(a.Status()),
		})
	}
	return out
}

// RestoreQueue rebuilds a queue from a snapshot through the registry.
// Actions keep their recorded IDs; terminal entries are skipped since they
// hold no further work.
func RestoreQueue(registry *Registry, entries []agent.QueuedAction) (*Queue, error) {
	q := NewQueue()
	for _, e := range entries {
		if Status(e.Status).Terminal() {
			continue
		}
		a, err := registry.Build(Kind(e.Kind), e.Params)
		if err != nil {
			return nil, err
		}
		a.ID = e.ID
		q.Push(a)
	}
	return q, nil
}
