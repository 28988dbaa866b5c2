package planner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/voxmind/voxmind/domain/plan"
)

// ScriptedProvider is a deterministic offline provider. It answers batch
// prompts by matching each request's command against registered rules,
// which makes it usable both in tests and in simulation runs with no
// reasoning service available.
type ScriptedProvider struct {
	rules    []scriptedRule
	fallback []plan.Step
}

type scriptedRule struct {
	substring string
	steps     []plan.Step
}

// NewScriptedProvider creates a scripted provider. The fallback steps are
// served for commands no rule matches; a nil fallback yields a single wait.
func NewScriptedProvider(fallback ...plan.Step) *ScriptedProvider {
	if len(fallback) == 0 {
		fallback = []plan.Step{{Kind: "wait", Params: json.RawMessage(`{"ticks": 1}`)}}
	}
	return &ScriptedProvider{fallback: fallback}
}

// On registers steps for commands containing the given substring. Rules are
// matched in registration order.
func (p *ScriptedProvider) On(substring string, steps ...plan.Step) *ScriptedProvider {
	p.rules = append(p.rules, scriptedRule{
		substring: plan.NormalizeCommand(substring),
		steps:     steps,
	})
	return p
}

// Name returns the provider name.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Complete answers the batch prompt with one scripted plan per request.
func (p *ScriptedProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	var prompt string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			prompt = msg.Content
		}
	}

	resp := batchResponse{}
	for _, parsed := range parseBatchPrompt(prompt) {
		resp.Plans = append(resp.Plans, batchEntry{
			CorrelationID: parsed.correlationID,
			Steps:         p.stepsFor(parsed.command),
			Confidence:    1.0,
		})
	}

	content, err := json.Marshal(resp)
	if err != nil {
		return CompletionResponse{}, err
	}
	return CompletionResponse{
		Model:   "scripted",
		Message: Message{Role: "assistant", Content: string(content)},
	}, nil
}

func (p *ScriptedProvider) stepsFor(command string) []plan.Step {
	normalized := plan.NormalizeCommand(command)
	for _, rule := range p.rules {
		if strings.Contains(normalized, rule.substring) {
			return rule.steps
		}
	}
	return p.fallback
}

type promptRequest struct {
	correlationID string
	command       string
}

// parseBatchPrompt recovers correlation IDs and commands from the batch
// prompt layout produced by buildBatchPrompt.
func parseBatchPrompt(prompt string) []promptRequest {
	var (
		out     []promptRequest
		current promptRequest
	)
	flush := func() {
		if current.correlationID != "" {
			out = append(out, current)
			current = promptRequest{}
		}
	}
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "### "):
			flush()
		case strings.HasPrefix(line, "correlation_id: "):
			current.correlationID = strings.TrimPrefix(line, "correlation_id: ")
		case strings.HasPrefix(line, "command: "):
			current.command = strings.TrimPrefix(line, "command: ")
		}
	}
	flush()
	return out
}
