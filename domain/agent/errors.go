package agent

import "errors"

// Domain errors for the agent state machine.
var (
	// ErrInvalidState indicates the state is not a recognized canonical state.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidTransition indicates an attempted state transition is not in
	// the declared edge table.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrStackFull indicates the suspension stack is at its configured depth
	// and a further interrupt was rejected. The caller decides whether to
	// escalate or drop the condition.
	ErrStackFull = errors.New("suspension stack full")

	// ErrStackEmpty indicates resume was requested with nothing suspended.
	ErrStackEmpty = errors.New("suspension stack empty")

	// ErrNotRecoverable indicates a recovery transition was requested from a
	// state other than error.
	ErrNotRecoverable = errors.New("agent is not in error state")
)
