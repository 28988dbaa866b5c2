// Package statemachine provides the statekit integration for the agent lifecycle.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/policy"
)

// Context carries agent identity and transition rules through the state machine.
type Context struct {
	AgentID string
	Current agent.State
	Rules   *policy.Transitions
}

// NewContext creates a new machine context.
func NewContext(agentID string) *Context {
	return &Context{
		AgentID: agentID,
		Current: agent.StateIdle,
		Rules:   policy.DefaultTransitions(),
	}
}

// State IDs as StateID type for statekit.
const (
	stateIdle        statekit.StateID = statekit.StateID(agent.StateIdle)
	statePlanning    statekit.StateID = statekit.StateID(agent.StatePlanning)
	stateExecuting   statekit.StateID = statekit.StateID(agent.StateExecuting)
	stateInterrupted statekit.StateID = statekit.StateID(agent.StateInterrupted)
	stateResuming    statekit.StateID = statekit.StateID(agent.StateResuming)
	stateError       statekit.StateID = statekit.StateID(agent.StateError)
)

// NewAgentMachine creates the canonical agent lifecycle statechart.
func NewAgentMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("agent").
		WithInitial(stateIdle).
		WithContext(&Context{}).
		// Register actions
		WithAction("applyTransition", applyTransition).
		// Register guards
		WithGuard("canTransition", guardCanTransition).
		// Define states
		State(stateIdle).
			On("PLAN").Target(statePlanning).Guard("canTransition").Do("applyTransition").
			On("INTERRUPT").Target(stateInterrupted).Guard("canTransition").Do("applyTransition").
			On("FAIL").Target(stateError).Do("applyTransition").
			Done().
		State(statePlanning).
			On("EXECUTE").Target(stateExecuting).Guard("canTransition").Do("applyTransition").
			On("IDLE").Target(stateIdle).Guard("canTransition").Do("applyTransition").
			On("INTERRUPT").Target(stateInterrupted).Guard("canTransition").Do("applyTransition").
			On("FAIL").Target(stateError).Do("applyTransition").
			Done().
		State(stateExecuting).
			On("IDLE").Target(stateIdle).Guard("canTransition").Do("applyTransition").
			On("INTERRUPT").Target(stateInterrupted).Guard("canTransition").Do("applyTransition").
			On("FAIL").Target(stateError).Do("applyTransition").
			Done().
		State(stateInterrupted).
			On("RESUME").Target(stateResuming).Guard("canTransition").Do("applyTransition").
			On("FAIL").Target(stateError).Do("applyTransition").
			Done().
		State(stateResuming).
			On("IDLE").Target(stateIdle).Guard("canTransition").Do("applyTransition").
			On("PLAN").Target(statePlanning).Guard("canTransition").Do("applyTransition").
			On("EXECUTE").Target(stateExecuting).Guard("canTransition").Do("applyTransition").
			On("FAIL").Target(stateError).Do("applyTransition").
			Done().
		State(stateError).
			On("RECOVER").Target(stateIdle).Guard("canTransition").Do("applyTransition").
			Done().
		Build()
}

// EventForTransition returns the event type that drives a transition into the
// target state. Leaving the error state uses RECOVER instead of IDLE.
func EventForTransition(from, to agent.State) statekit.EventType {
	if from == agent.StateError && to == agent.StateIdle {
		return "RECOVER"
	}
	switch to {
	case agent.StatePlanning:
		return "PLAN"
	case agent.StateExecuting:
		return "EXECUTE"
	case agent.StateInterrupted:
		return "INTERRUPT"
	case agent.StateResuming:
		return "RESUME"
	case agent.StateIdle:
		return "IDLE"
	case agent.StateError:
		return "FAIL"
	default:
		return statekit.EventType(to)
	}
}

// StateFromMachine converts the machine state ID to domain State.
func StateFromMachine(stateID statekit.StateID) agent.State {
	return agent.State(stateID)
}
