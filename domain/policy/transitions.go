// Package policy provides declarative behavioral constraints for agents.
package policy

import (
	"github.com/voxmind/voxmind/domain/agent"
)

// Transitions defines the allowed state transition edges. There is no
// wildcard or implicit edge: a (from, to) pair absent from the table is
// rejected.
//
// Thread Safety: Transitions is NOT safe for concurrent modification. It
// should be fully configured before being passed to the state machine and
// treated as immutable thereafter. CanTransition and AllowedFrom are safe
// for concurrent use after configuration is complete.
type Transitions struct {
	edges map[agent.State][]agent.State
}

// TransitionRules maps states to the states they can transition to.
// This is the preferred way to declare the edge table.
//
// Example:
//
//	rules := policy.TransitionRules{
//	    agent.StateIdle:     {agent.StatePlanning},
//	    agent.StatePlanning: {agent.StateExecuting, agent.StateIdle},
//	}
//	transitions := policy.NewTransitionsWith(rules)
type TransitionRules map[agent.State][]agent.State

// NewTransitions creates an empty transition table. Use Allow to add edges,
// or DefaultTransitions for the canonical configuration.
func NewTransitions() *Transitions {
	return &Transitions{
		edges: make(map[agent.State][]agent.State),
	}
}

// NewTransitionsWith creates a transition table from a rules map.
func NewTransitionsWith(rules TransitionRules) *Transitions {
	t := NewTransitions()
	for from, toStates := range rules {
		for _, to := range toStates {
			t.Allow(from, to)
		}
	}
	return t
}

// Allow permits a transition from one state to another.
func (t *Transitions) Allow(from, to agent.State) *Transitions {
	t.edges[from] = append(t.edges[from], to)
	return t
}

// CanTransition checks if an edge is in the table.
func (t *Transitions) CanTransition(from, to agent.State) bool {
	allowed, exists := t.edges[from]
	if !exists {
		return false
	}
	for _, state := range allowed {
		if state == to {
			return true
		}
	}
	return false
}

// AllowedFrom returns all states reachable from the given state.
func (t *Transitions) AllowedFrom(from agent.State) []agent.State {
	return t.edges[from]
}

// DefaultTransitions returns the canonical edge table.
//
// The normal command flow is:
//
//	idle → planning → executing → idle
//
// Interrupts suspend planning or executing work:
//
//	planning|executing → interrupted → resuming → (restored state)
//
// Error is reachable from every state and leaves only through an explicit
// reset back to idle.
func DefaultTransitions() *Transitions {
	return NewTransitionsWith(TransitionRules{
		agent.StateIdle:        {agent.StatePlanning, agent.StateInterrupted, agent.StateError},
		agent.StatePlanning:    {agent.StateExecuting, agent.StateIdle, agent.StateInterrupted, agent.StateError},
		agent.StateExecuting:   {agent.StateIdle, agent.StateInterrupted, agent.StateError},
		agent.StateInterrupted: {agent.StateResuming, agent.StateError},
		agent.StateResuming:    {agent.StateIdle, agent.StatePlanning, agent.StateExecuting, agent.StateError},
		agent.StateError:       {agent.StateIdle},
	})
}
