// Package action provides the unit of executable work: discrete actions
// with a tick-based lifecycle, the FIFO queue they wait in, and the closed
// registry of action kinds.
package action

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/voxmind/voxmind/domain/effector"
)

// Status is the lifecycle state of an action.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal returns true for the three end states.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Exec carries the collaborators a behavior may use during its lifecycle.
type Exec struct {
	AgentID  string
	Effector effector.Effector
}

// Behavior is the strategy object an action delegates its lifecycle to.
// Actions hold a behavior by composition; there is no base-type hierarchy.
//
// Tick must complete in bounded time: work that cannot finish in one call
// is decomposed across repeated ticks. Cancel must be idempotent, safe at
// any point in the lifecycle, and must release any effector operations the
// behavior started.
type Behavior interface {
	Start(ctx context.Context, exec *Exec) error
	Tick(ctx context.Context, exec *Exec) (done bool, err error)
	Cancel(ctx context.Context, exec *Exec)
}

// Action is one unit of work owned by exactly one executor. No two
// executors may drive the same instance concurrently.
type Action struct {
	ID     string
	Kind   Kind
	Params json.RawMessage

	status   Status
	behavior Behavior
	attempts int
}

// New creates a pending action with a fresh ID.
func New(kind Kind, params json.RawMessage, behavior Behavior) *Action {
	return &Action{
		ID:       uuid.NewString(),
		Kind:     kind,
		Params:   params,
		status:   StatusPending,
		behavior: behavior,
	}
}

// Status returns the current lifecycle status.
func (a *Action) Status() Status {
	return a.status
}

// SetStatus updates the lifecycle status. Only the owning executor calls
// this.
func (a *Action) SetStatus(s Status) {
	a.status = s
}

// Behavior returns the action's strategy object.
func (a *Action) Behavior() Behavior {
	return a.behavior
}

// Attempts reports how many times the action has been started.
func (a *Action) Attempts() int {
	return a.attempts
}

// RecordAttempt increments the start counter.
func (a *Action) RecordAttempt() {
	a.attempts++
}

// Reset returns a terminal action to pending for a bounded retry.
func (a *Action) Reset() {
	a.status = StatusPending
}
