package statemachine

import (
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/policy"
)

const (
	// DefaultStackDepth bounds the suspension stack to a single held state.
	DefaultStackDepth = 1

	// DefaultJournalSize bounds the in-memory transition journal.
	DefaultJournalSize = 256

	// DefaultRecordBuffer is the buffer size of the record channel.
	DefaultRecordBuffer = 64
)

// Pushdown wraps the lifecycle interpreter with a bounded suspension stack.
// Interrupting pushes the current state, resuming pops it back. Every
// transition attempt, accepted or rejected, produces a TransitionRecord.
type Pushdown struct {
	mu       sync.Mutex
	interp   *statekit.Interpreter[*Context]
	ctx      *Context
	stack    []agent.State
	maxDepth int

	journal     []agent.TransitionRecord
	journalSize int
	records     chan agent.TransitionRecord
}

// Option configures a Pushdown.
type Option func(*Pushdown)

// WithStackDepth sets the maximum suspension stack depth. Live execution
// suspends at most one frame, since an interrupted agent cannot be
// interrupted again; depths above 1 only widen the bound Restore accepts
// when readopting a persisted stack.
func WithStackDepth(depth int) Option {
	return func(p *Pushdown) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithJournalSize sets the transition journal capacity.
func WithJournalSize(size int) Option {
	return func(p *Pushdown) {
		if size > 0 {
			p.journalSize = size
		}
	}
}

// WithTransitionRules overrides the default transition table.
func WithTransitionRules(rules *policy.Transitions) Option {
	return func(p *Pushdown) {
		if rules != nil {
			p.ctx.Rules = rules
		}
	}
}

// NewPushdown creates a pushdown automaton for the given agent.
func NewPushdown(agentID string, opts ...Option) (*Pushdown, error) {
	machine, err := NewAgentMachine()
	if err != nil {
		return nil, fmt.Errorf("building agent machine: %w", err)
	}

	ctx := NewContext(agentID)
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})

	p := &Pushdown{
		interp:      interp,
		ctx:         ctx,
		maxDepth:    DefaultStackDepth,
		journalSize: DefaultJournalSize,
		records:     make(chan agent.TransitionRecord, DefaultRecordBuffer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start enters the initial state.
func (p *Pushdown) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interp.Start()
	p.ctx.Current = agent.State(p.interp.State().Value)
}

// Stop stops the interpreter.
func (p *Pushdown) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interp.Stop()
}

// State returns the current state.
func (p *Pushdown) State() agent.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx.Current
}

// StackDepth returns the number of suspended states.
func (p *Pushdown) StackDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stack)
}

// SuspensionStack returns a copy of the suspended states, oldest first.
func (p *Pushdown) SuspensionStack() []agent.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]agent.State, len(p.stack))
	copy(out, p.stack)
	return out
}

// CanTransition reports whether a transition to the target state is allowed
// from the current state.
func (p *Pushdown) CanTransition(to agent.State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx.Rules.CanTransition(p.ctx.Current, to)
}

// TransitionTo attempts a transition to the target state. It returns true if
// the transition was accepted. Rejected attempts leave the state unchanged
// and are still journaled.
func (p *Pushdown) TransitionTo(to agent.State, reason string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transitionLocked(to, reason)
}

// Interrupt suspends the current state and enters the interrupted state.
// The suspended state is pushed onto the stack for a later Resume. An
// interrupt arriving while the stack is full is rejected with ErrStackFull.
func (p *Pushdown) Interrupt(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	from := p.ctx.Current
	if !from.AllowsInterrupt() {
		p.record(from, agent.StateInterrupted, reason, false)
		return fmt.Errorf("interrupt from %s: %w", from, agent.ErrInvalidTransition)
	}
	if len(p.stack) >= p.maxDepth {
		p.record(from, agent.StateInterrupted, reason, false)
		return fmt.Errorf("suspension stack at depth %d: %w", p.maxDepth, agent.ErrStackFull)
	}

	if !p.transitionLocked(agent.StateInterrupted, reason) {
		return fmt.Errorf("interrupt from %s: %w", from, agent.ErrInvalidTransition)
	}
	p.stack = append(p.stack, from)
	return nil
}

// Resume pops the most recently suspended state and returns to it through
// the resuming state. It returns the restored state.
func (p *Pushdown) Resume(reason string) (agent.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.stack) == 0 {
		p.record(p.ctx.Current, agent.StateResuming, reason, false)
		return "", agent.ErrStackEmpty
	}
	if p.ctx.Current != agent.StateInterrupted {
		p.record(p.ctx.Current, agent.StateResuming, reason, false)
		return "", fmt.Errorf("resume from %s: %w", p.ctx.Current, agent.ErrInvalidTransition)
	}

	target := p.stack[len(p.stack)-1]

	if !p.transitionLocked(agent.StateResuming, reason) {
		return "", fmt.Errorf("resume from %s: %w", p.ctx.Current, agent.ErrInvalidTransition)
	}
	if !p.transitionLocked(target, reason) {
		return "", fmt.Errorf("restore to %s: %w", target, agent.ErrInvalidTransition)
	}
	p.stack = p.stack[:len(p.stack)-1]
	return target, nil
}

// Fail moves the machine into the error state from any state.
func (p *Pushdown) Fail(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitionLocked(agent.StateError, reason)
	p.stack = p.stack[:0]
}

// Recover returns the machine from the error state to idle. Recovery from
// any other state is rejected with ErrNotRecoverable.
func (p *Pushdown) Recover(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Current != agent.StateError {
		p.record(p.ctx.Current, agent.StateIdle, reason, false)
		return fmt.Errorf("recover from %s: %w", p.ctx.Current, agent.ErrNotRecoverable)
	}
	if !p.transitionLocked(agent.StateIdle, reason) {
		return fmt.Errorf("recover from %s: %w", p.ctx.Current, agent.ErrInvalidTransition)
	}
	return nil
}

// Restore rebuilds the machine from a snapshot state and suspension stack.
func (p *Pushdown) Restore(state agent.State, stack []agent.State) error {
	if !state.IsValid() {
		return fmt.Errorf("restore to %q: %w", state, agent.ErrInvalidState)
	}
	if len(stack) > p.maxDepth {
		return fmt.Errorf("snapshot stack depth %d exceeds %d: %w", len(stack), p.maxDepth, agent.ErrStackFull)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "agent",
		CurrentState: statekit.StateID(string(state)),
		Context:      p.ctx,
		CreatedAt:    time.Now(),
	}
	if err := p.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("restoring interpreter: %w", err)
	}

	p.ctx.Current = state
	p.stack = p.stack[:0]
	p.stack = append(p.stack, stack...)
	return nil
}

// Records returns a channel of transition records. The channel is buffered
// and never blocks the machine; records are dropped when it is full.
func (p *Pushdown) Records() <-chan agent.TransitionRecord {
	return p.records
}

// Journal returns a copy of the retained transition records, oldest first.
func (p *Pushdown) Journal() []agent.TransitionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]agent.TransitionRecord, len(p.journal))
	copy(out, p.journal)
	return out
}

// transitionLocked performs a transition attempt under the held lock.
func (p *Pushdown) transitionLocked(to agent.State, reason string) bool {
	from := p.ctx.Current
	if !p.ctx.Rules.CanTransition(from, to) {
		p.record(from, to, reason, false)
		return false
	}

	event := statekit.Event{
		Type:    EventForTransition(from, to),
		Payload: TransitionPayload{ToState: to, Reason: reason},
	}
	p.interp.Send(event)
	p.ctx.Current = agent.State(p.interp.State().Value)

	accepted := p.ctx.Current == to
	p.record(from, to, reason, accepted)
	return accepted
}

// record journals a transition attempt and publishes it without blocking.
func (p *Pushdown) record(from, to agent.State, reason string, accepted bool) {
	rec := agent.NewTransitionRecord(p.ctx.AgentID, from, to, reason, accepted)

	if len(p.journal) >= p.journalSize {
		copy(p.journal, p.journal[1:])
		p.journal = p.journal[:len(p.journal)-1]
	}
	p.journal = append(p.journal, rec)

	select {
	case p.records <- rec:
	default:
	}
}
