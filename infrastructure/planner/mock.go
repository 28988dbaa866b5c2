// Package planner provides planning backends for the agent runtime: an
// HTTP provider, deterministic offline providers, and the batching service
// that coalesces requests into shared completions.
package planner

import (
	"context"
	"errors"
	"sync"
)

// MockProvider returns a predefined sequence of completion contents for
// testing. Failures can be injected ahead of the scripted contents.
type MockProvider struct {
	mu       sync.Mutex
	contents []string
	index    int
	failures int
	failErr  error
	calls    int
	last     CompletionRequest
}

// NewMockProvider creates a mock provider with the given completion contents.
func NewMockProvider(contents ...string) *MockProvider {
	return &MockProvider{
		contents: contents,
		failErr:  errors.New("mock provider failure"),
	}
}

// FailNext makes the next n completions fail before contents are served.
func (p *MockProvider) FailNext(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = n
	if err != nil {
		p.failErr = err
	}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete returns the next scripted content.
func (p *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	p.last = req

	if p.failures > 0 {
		p.failures--
		return CompletionResponse{}, p.failErr
	}

	if p.index >= len(p.contents) {
		return CompletionResponse{}, errors.New("mock provider exhausted")
	}
	content := p.contents[p.index]
	p.index++

	return CompletionResponse{
		Model:   "mock",
		Message: Message{Role: "assistant", Content: content},
	}, nil
}

// Calls returns the number of completions requested, including failures.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// LastRequest returns the most recent completion request.
func (p *MockProvider) LastRequest() CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
