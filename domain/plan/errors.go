package plan

import "errors"

// Domain errors for planning.
var (
	// ErrExternalTimeout is returned when one external call exceeded its hard
	// per-call timeout. It is retried by policy.
	ErrExternalTimeout = errors.New("external planner timeout")

	// ErrExternalError is returned for any other external dependency failure.
	// It is retried by policy.
	ErrExternalError = errors.New("external planner error")

	// ErrCircuitOpen is returned when the circuit breaker short-circuits a
	// call without invoking the external dependency.
	ErrCircuitOpen = errors.New("planner circuit open")

	// ErrMalformedResponse is returned when a response cannot be parsed into
	// plan steps.
	ErrMalformedResponse = errors.New("malformed planner response")

	// ErrPlanningFailed is the terminal failure surfaced once retries are
	// exhausted or the circuit is open and no stale fallback exists.
	ErrPlanningFailed = errors.New("planning failed")
)
