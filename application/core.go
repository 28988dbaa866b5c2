package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/effector"
	"github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/infrastructure/planner"
	"github.com/voxmind/voxmind/infrastructure/statemachine"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

// ErrUnknownAgent is returned for commands addressed to an unregistered
// agent.
var ErrUnknownAgent = errors.New("unknown agent")

// ValidationError rejects a malformed command before any planning work.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid command: %s %s", e.Field, e.Message)
}

// NewAgent assembles an agent's execution core.
func NewAgent(id string, eff effector.Effector, svc *planner.Service, registry *action.Registry, opts ...AgentOption) (*Agent, error) {
	if id == "" {
		return nil, ValidationError{Field: "id", Message: "is required"}
	}
	if eff == nil || svc == nil || registry == nil {
		return nil, ValidationError{Field: "collaborators", Message: "effector, planner, and registry are required"}
	}

	options := defaultAgentOptions()
	for _, opt := range opts {
		opt(&options)
	}

	var machineOpts []statemachine.Option
	if options.stackDepth > 0 {
		machineOpts = append(machineOpts, statemachine.WithStackDepth(options.stackDepth))
	}
	if options.rules != nil {
		machineOpts = append(machineOpts, statemachine.WithTransitionRules(options.rules))
	}
	machine, err := statemachine.NewPushdown(id, machineOpts...)
	if err != nil {
		return nil, err
	}
	machine.Start()

	chain := options.chain
	if chain == nil {
		chain = interceptor.NewChain()
	}
	metrics := options.metrics
	if metrics == nil {
		metrics = &telemetry.NoopMetricsProvider{}
	}

	executor := NewExecutor(ExecutorConfig{
		AgentID:     id,
		Effector:    eff,
		Machine:     machine,
		Chain:       chain,
		MaxAttempts: options.maxAttempts,
	})

	return &Agent{
		id:                  id,
		machine:             machine,
		executor:            executor,
		selector:            options.selector,
		planner:             svc,
		registry:            registry,
		bus:                 options.bus,
		store:               options.store,
		metrics:             metrics,
		inertia:             options.inertia,
		maxPlanningFailures: options.maxPlanningFailures,
	}, nil
}

// Ack acknowledges an accepted command.
type Ack struct {
	AgentID       string `json:"agent_id"`
	CorrelationID string `json:"correlation_id"`
	Command       string `json:"command"`
	Queued        bool   `json:"queued"`
}

// Core is the inbound surface over a set of agents. Registration and
// lookup are safe from any goroutine; SubmitCommand touches agent
// internals and shares the Agent's single-goroutine contract.
type Core struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewCore creates an empty agent registry.
func NewCore() *Core {
	return &Core{agents: make(map[string]*Agent)}
}

// Register adds an agent to the core.
func (c *Core) Register(a *Agent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents[a.ID()] = a
}

// Agent returns a registered agent.
func (c *Core) Agent(id string) (*Agent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.agents[id]
	return a, ok
}

// SubmitCommand validates and normalizes a raw command, then starts
// planning for it. The command is queued when the agent is mid-plan.
// Call from the goroutine that drives the agent's Tick; submissions are
// not synchronized against a concurrent tick.
func (c *Core) SubmitCommand(ctx context.Context, agentID, rawText string, snap plan.Snapshot) (Ack, error) {
	if plan.NormalizeCommand(rawText) == "" {
		return Ack{}, ValidationError{Field: "command", Message: "must not be empty"}
	}

	a, ok := c.Agent(agentID)
	if !ok {
		return Ack{}, fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}

	wasIdle := a.State() == agent.StateIdle && a.ticket == nil
	correlationID, err := a.Submit(ctx, rawText, snap)
	if err != nil {
		return Ack{}, err
	}

	return Ack{
		AgentID:       agentID,
		CorrelationID: correlationID,
		Command:       plan.NormalizeCommand(rawText),
		Queued:        !wasIdle,
	}, nil
}

// Close stops every registered agent.
func (c *Core) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.agents {
		a.Close()
	}
	c.agents = make(map[string]*Agent)
}
