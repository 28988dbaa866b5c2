package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voxmind/voxmind/domain/plan"
)

// planResponse is the expected JSON shape of a single plan.
type planResponse struct {
	Steps      []plan.Step `json:"steps"`
	Confidence float64     `json:"confidence"`
}

// batchResponse is the expected JSON shape of a batched completion. Each
// entry echoes the correlation ID it answers.
type batchResponse struct {
	Plans []batchEntry `json:"plans"`
}

type batchEntry struct {
	CorrelationID string      `json:"correlation_id"`
	Steps         []plan.Step `json:"steps"`
	Confidence    float64     `json:"confidence"`
}

// ParsePlan parses a single completion into a cached plan. Responses that
// are not valid JSON, carry no steps, or name an empty action are rejected
// with ErrMalformedResponse.
func ParsePlan(content string) (*plan.CachedPlan, error) {
	cleaned := stripFences(content)

	var resp planResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v (content: %s)", plan.ErrMalformedResponse, err, truncate(cleaned, 200))
	}
	steps, err := validateSteps(resp.Steps)
	if err != nil {
		return nil, err
	}
	return plan.NewCachedPlan(steps, clampConfidence(resp.Confidence), content), nil
}

// ParseBatch parses a batched completion into per-correlation-ID plans.
// An entry that fails validation only fails itself: its error lands in the
// second return keyed by correlation ID, and valid siblings still parse.
// Entries without a correlation ID cannot be attributed and are dropped;
// the owning request fails when its ID is absent from the plan map. Only a
// response that cannot be decoded at all is an error for the whole batch.
func ParseBatch(content string) (map[string]*plan.CachedPlan, map[string]error, error) {
	cleaned := stripFences(content)

	var resp batchResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid JSON: %v (content: %s)", plan.ErrMalformedResponse, err, truncate(cleaned, 200))
	}
	if len(resp.Plans) == 0 {
		return nil, nil, fmt.Errorf("%w: empty batch", plan.ErrMalformedResponse)
	}

	out := make(map[string]*plan.CachedPlan, len(resp.Plans))
	entryErrs := make(map[string]error)
	for _, entry := range resp.Plans {
		if entry.CorrelationID == "" {
			continue
		}
		steps, err := validateSteps(entry.Steps)
		if err != nil {
			entryErrs[entry.CorrelationID] = err
			continue
		}
		out[entry.CorrelationID] = plan.NewCachedPlan(steps, clampConfidence(entry.Confidence), "")
	}
	return out, entryErrs, nil
}

func validateSteps(steps []plan.Step) ([]plan.Step, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: plan carries no steps", plan.ErrMalformedResponse)
	}
	for i, step := range steps {
		if strings.TrimSpace(step.Kind) == "" {
			return nil, fmt.Errorf("%w: step %d has no action", plan.ErrMalformedResponse, i)
		}
	}
	return steps, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// stripFences removes markdown code blocks wrapping the response.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
