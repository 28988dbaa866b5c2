package planner

import (
	"fmt"
	"strings"

	"github.com/voxmind/voxmind/domain/plan"
)

// DefaultSystemPrompt is the default system prompt for plan generation.
const DefaultSystemPrompt = `You are the planning brain of an autonomous game agent. Given a command and the agent's situation, produce a short sequence of concrete actions.

## Response Format

You MUST respond with a JSON object:

{"plans": [{"correlation_id": "<id>", "steps": [{"action": "<kind>", "params": {...}, "description": "<what>"}], "confidence": <0..1>}]}

One entry per request, echoing its correlation_id exactly.

## Actions

- move: {"x": <int>, "y": <int>, "z": <int>}
- interact: {"x": <int>, "y": <int>, "z": <int>, "verb": "<use|attack|gather>"}
- query: {"probe": "<what to observe>"}
- wait: {"ticks": <int>}

## Guidelines

1. Keep plans short; three to six steps is typical
2. Prefer actions the agent can verify
3. Respond ONLY with valid JSON, no additional text`

// buildBatchPrompt renders one user message covering every request in the
// batch. Requests are numbered by correlation ID so the response can be
// split back apart.
func buildBatchPrompt(reqs []plan.Request) string {
	var sb strings.Builder

	sb.WriteString("## Requests\n\n")
	for i, req := range reqs {
		sb.WriteString(fmt.Sprintf("### Request %d\n", i+1))
		sb.WriteString(fmt.Sprintf("correlation_id: %s\n", req.CorrelationID))
		sb.WriteString(fmt.Sprintf("command: %s\n", req.Command))
		sb.WriteString(fmt.Sprintf("position: (%d, %d, %d)\n", req.Context.X, req.Context.Y, req.Context.Z))
		sb.WriteString(fmt.Sprintf("health: %.0f%%\n", req.Context.HealthFraction*100))
		if req.Context.Inventory != "" {
			sb.WriteString(fmt.Sprintf("inventory: %s\n", req.Context.Inventory))
		}
		if req.Context.TimeOfDay != "" {
			sb.WriteString(fmt.Sprintf("time_of_day: %s\n", req.Context.TimeOfDay))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Produce one plan per request. Respond with JSON only.")
	return sb.String()
}
