package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/voxmind/voxmind/domain/agent"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToState agent.State
	Reason  string
}

// applyTransition updates the context's current state.
// In statekit, actions receive a pointer to the context. Since our context is
// *Context, actions receive **Context.
func applyTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx

	var toState agent.State
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toState = payload.ToState
	} else {
		toState = stateFromEventType(c.Current, event.Type)
	}

	if toState != "" {
		c.Current = toState
	}
}

// guardCanTransition checks the transition against the configured rules.
// Guards receive the context by value, so a *Context arrives directly.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Rules == nil {
		return false
	}

	var toState agent.State
	if payload, ok := event.Payload.(TransitionPayload); ok {
		toState = payload.ToState
	} else {
		toState = stateFromEventType(ctx.Current, event.Type)
	}

	return ctx.Rules.CanTransition(ctx.Current, toState)
}

// stateFromEventType derives the target state from an event type.
func stateFromEventType(from agent.State, eventType statekit.EventType) agent.State {
	switch eventType {
	case "PLAN":
		return agent.StatePlanning
	case "EXECUTE":
		return agent.StateExecuting
	case "INTERRUPT":
		return agent.StateInterrupted
	case "RESUME":
		return agent.StateResuming
	case "IDLE", "RECOVER":
		return agent.StateIdle
	case "FAIL":
		return agent.StateError
	default:
		return agent.State(eventType)
	}
}
