// Package effector defines the narrow interface through which actions touch
// the simulated environment. The core depends only on success/failure plus a
// per-tick completion signal, never on world internals.
package effector

import (
	"context"
	"encoding/json"
)

// OpID identifies one in-flight environment operation.
type OpID string

// Target is a world position an operation is aimed at.
type Target struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// OpStatus is the per-tick completion signal for an operation. Done with a
// nil Err means success; Done with a non-nil Err means the environment
// reported failure.
type OpStatus struct {
	Done bool
	Err  error
}

// Observation is an opaque query result handed back to the requesting
// action.
type Observation struct {
	Data json.RawMessage
}

// Effector starts environment operations. All calls return immediately; the
// caller polls completion with Poll once per tick. Implementations live
// outside the execution core.
type Effector interface {
	// Move starts walking toward a target.
	Move(ctx context.Context, target Target) (OpID, error)

	// Interact starts an interaction (open, use, attack) at a target.
	Interact(ctx context.Context, target Target, verb string) (OpID, error)

	// Query starts a read-only probe of the environment.
	Query(ctx context.Context, probe string) (OpID, error)

	// Poll reports the status of an operation. Polling an unknown or already
	// reaped operation reports Done with ErrUnknownOp.
	Poll(id OpID) OpStatus

	// Result returns the observation produced by a completed Query.
	Result(id OpID) (Observation, bool)

	// Release discards any state held for an operation. Safe to call more
	// than once and for operations still in flight; an in-flight operation
	// is abandoned.
	Release(id OpID)
}
