package application

import (
	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/event"
	"github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/domain/policy"
	"github.com/voxmind/voxmind/domain/reactive"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

// DefaultInertia is the utility threshold a reactive signal must beat
// before an interrupt fires.
const DefaultInertia = 0.5

// agentOptions collects the optional collaborators and tunables for an
// Agent.
type agentOptions struct {
	selector            *reactive.Selector
	chain               *interceptor.Chain
	bus                 *event.Bus
	store               agent.SnapshotStore
	rules               *policy.Transitions
	metrics             telemetry.Metrics
	inertia             float64
	stackDepth          int
	maxAttempts         int
	maxPlanningFailures int
}

func defaultAgentOptions() agentOptions {
	return agentOptions{
		inertia:             DefaultInertia,
		maxPlanningFailures: DefaultMaxPlanningFailures,
	}
}

// AgentOption configures an Agent.
type AgentOption func(*agentOptions)

// WithSelector installs the reactive interrupt selector.
func WithSelector(s *reactive.Selector) AgentOption {
	return func(o *agentOptions) {
		o.selector = s
	}
}

// WithInterceptors installs the action lifecycle observer chain.
func WithInterceptors(c *interceptor.Chain) AgentOption {
	return func(o *agentOptions) {
		o.chain = c
	}
}

// WithBus installs the event bus agent events are published to.
func WithBus(b *event.Bus) AgentOption {
	return func(o *agentOptions) {
		o.bus = b
	}
}

// WithSnapshotStore installs the store Snapshot and Restore use.
func WithSnapshotStore(s agent.SnapshotStore) AgentOption {
	return func(o *agentOptions) {
		o.store = s
	}
}

// WithMetrics installs the telemetry provider transition and interrupt
// counters are recorded through.
func WithMetrics(m telemetry.Metrics) AgentOption {
	return func(o *agentOptions) {
		o.metrics = m
	}
}

// WithTransitionRules overrides the default transition table.
func WithTransitionRules(rules *policy.Transitions) AgentOption {
	return func(o *agentOptions) {
		o.rules = rules
	}
}

// WithInertia sets the interrupt utility threshold.
func WithInertia(inertia float64) AgentOption {
	return func(o *agentOptions) {
		o.inertia = inertia
	}
}

// WithStackDepth sets the suspension stack depth.
func WithStackDepth(depth int) AgentOption {
	return func(o *agentOptions) {
		o.stackDepth = depth
	}
}

// WithMaxAttempts bounds starts per failing action.
func WithMaxAttempts(n int) AgentOption {
	return func(o *agentOptions) {
		o.maxAttempts = n
	}
}

// WithMaxPlanningFailures sets how many consecutive planning failures
// drive the agent into the error state.
func WithMaxPlanningFailures(n int) AgentOption {
	return func(o *agentOptions) {
		o.maxPlanningFailures = n
	}
}
