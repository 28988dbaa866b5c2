// Package agent provides the core domain model for the execution core:
// agent states, transition records, and persistable snapshots.
package agent

// State represents an execution phase of an agent.
// States are identified by stable strings, not behavioral definitions.
type State string

// Canonical states.
const (
	StateIdle        State = "idle"        // Waiting for a command
	StatePlanning    State = "planning"    // Waiting on the external planner
	StateExecuting   State = "executing"   // Draining the action queue
	StateInterrupted State = "interrupted" // Preempted by a reactive condition
	StateResuming    State = "resuming"    // Restoring suspended work
	StateError       State = "error"       // Requires explicit recovery
)

// IsValid returns true if the state is a recognized canonical state.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StatePlanning, StateExecuting, StateInterrupted, StateResuming, StateError:
		return true
	default:
		return false
	}
}

// IsBusy returns true if the agent is actively working on a command.
func (s State) IsBusy() bool {
	return s == StatePlanning || s == StateExecuting || s == StateInterrupted || s == StateResuming
}

// AllowsInterrupt returns true if a reactive condition may preempt this state.
// ERROR is excluded: a faulted agent must be recovered explicitly first.
func (s State) AllowsInterrupt() bool {
	return s != StateError && s != StateInterrupted
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns all canonical states.
func AllStates() []State {
	return []State{
		StateIdle,
		StatePlanning,
		StateExecuting,
		StateInterrupted,
		StateResuming,
		StateError,
	}
}
