package agent

import "time"

// TransitionRecord is an immutable audit entry for a state transition
// attempt. Rejected attempts are recorded too, with Accepted false and the
// state left unchanged.
type TransitionRecord struct {
	AgentID  string    `json:"agent_id"`
	From     State     `json:"from"`
	To       State     `json:"to"`
	Reason   string    `json:"reason"`
	Accepted bool      `json:"accepted"`
	At       time.Time `json:"at"`
}

// NewTransitionRecord creates a record stamped with the current time.
func NewTransitionRecord(agentID string, from, to State, reason string, accepted bool) TransitionRecord {
	return TransitionRecord{
		AgentID:  agentID,
		From:     from,
		To:       to,
		Reason:   reason,
		Accepted: accepted,
		At:       time.Now(),
	}
}
