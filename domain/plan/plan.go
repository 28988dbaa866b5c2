// Package plan provides the planning domain model: requests sent to the
// external reasoning service, their fingerprints, and the cached plans that
// come back.
package plan

import (
	"encoding/json"
	"strings"
	"time"
)

// Step is one discrete unit of a plan, mapped onto an action kind at the
// queue boundary.
type Step struct {
	Kind        string          `json:"action"`
	Params      json.RawMessage `json:"params,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Request describes one planning call. Command is stored normalized so that
// textual variants of the same order share a fingerprint.
type Request struct {
	AgentID       string
	Command       string
	Context       Snapshot
	CorrelationID string
}

// NewRequest normalizes the raw command and captures the context snapshot.
func NewRequest(agentID, rawCommand string, ctx Snapshot, correlationID string) Request {
	return Request{
		AgentID:       agentID,
		Command:       NormalizeCommand(rawCommand),
		Context:       ctx,
		CorrelationID: correlationID,
	}
}

// NormalizeCommand lowercases and collapses interior whitespace so that
// "Build  a Shelter" and "build a shelter" fingerprint identically.
func NormalizeCommand(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// CachedPlan is an immutable memoized planning result. Superseded entries
// are replaced in the cache, never mutated in place.
type CachedPlan struct {
	Steps      []Step    `json:"steps"`
	Confidence float64   `json:"confidence"`
	RawText    string    `json:"raw_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCachedPlan builds a cached plan stamped with the current time.
// The step slice is copied so later mutation of the argument cannot reach
// the cached entry.
func NewCachedPlan(steps []Step, confidence float64, rawText string) *CachedPlan {
	copied := make([]Step, len(steps))
	copy(copied, steps)
	return &CachedPlan{
		Steps:      copied,
		Confidence: confidence,
		RawText:    rawText,
		CreatedAt:  time.Now(),
	}
}

// Empty returns true when the plan carries no steps.
func (p *CachedPlan) Empty() bool {
	return p == nil || len(p.Steps) == 0
}
