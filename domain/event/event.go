// Package event provides the domain events emitted by the execution core
// and the non-blocking bus that fans them out to observers.
package event

import (
	"encoding/json"
	"time"
)

// Type classifies an event.
type Type string

const (
	TypeCommandAccepted Type = "command_accepted"
	TypeStateTransition Type = "state_transition"
	TypePlanReady       Type = "plan_ready"
	TypePlanFailed      Type = "plan_failed"
	TypeActionStarted   Type = "action_started"
	TypeActionCompleted Type = "action_completed"
	TypeActionFailed    Type = "action_failed"
	TypeInterruptFired  Type = "interrupt_fired"
)

// Event is one observable occurrence in an agent's execution stream.
type Event struct {
	// AgentID is the agent the event belongs to.
	AgentID string `json:"agent_id"`

	// Type classifies the event.
	Type Type `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Payload contains the event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Sequence is the ordering number within the agent's event stream.
	Sequence uint64 `json:"sequence"`
}

// New creates an event with the given type and payload.
func New(agentID string, eventType Type, payload any) (Event, error) {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		data = encoded
	}
	return Event{
		AgentID:   agentID,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}

// UnmarshalPayload decodes the event payload into the given value.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}
