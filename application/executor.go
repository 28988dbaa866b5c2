// Package application wires the domain into a running agent: the action
// queue executor, the per-agent tick loop, and the inbound command surface.
package application

import (
	"context"
	"time"

	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/effector"
	"github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/domain/reactive"
	"github.com/voxmind/voxmind/infrastructure/logging"
	"github.com/voxmind/voxmind/infrastructure/statemachine"
)

// DefaultMaxAttempts bounds how many times a failing action is started
// before the executor records the failure and advances.
const DefaultMaxAttempts = 2

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// AgentID identifies the owning agent.
	AgentID string
	// Effector is handed to behaviors through the exec context.
	Effector effector.Effector
	// Machine is the agent's state machine; interrupts go through it.
	Machine *statemachine.Pushdown
	// Chain observes the action lifecycle. Nil means no observers.
	Chain *interceptor.Chain
	// MaxAttempts bounds starts per action. Zero means DefaultMaxAttempts.
	MaxAttempts int
}

// Executor drains the agent's FIFO queue one action at a time. Each action
// is started exactly once per attempt, ticked once per cycle until it
// reaches a terminal status, then the executor advances. The executor is
// driven from the agent's single tick goroutine and carries no locking.
type Executor struct {
	agentID     string
	queue       *action.Queue
	current     *action.Action
	exec        *action.Exec
	machine     *statemachine.Pushdown
	chain       *interceptor.Chain
	maxAttempts int

	tick      int
	startedAt time.Time
}

// NewExecutor creates an executor over an empty queue.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	chain := cfg.Chain
	if chain == nil {
		chain = interceptor.NewChain()
	}
	return &Executor{
		agentID:     cfg.AgentID,
		queue:       action.NewQueue(),
		exec:        &action.Exec{AgentID: cfg.AgentID, Effector: cfg.Effector},
		machine:     cfg.Machine,
		chain:       chain,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Enqueue appends an action to the queue.
func (e *Executor) Enqueue(a *action.Action) {
	e.queue.Push(a)
}

// QueueLen returns the number of pending actions, excluding the running one.
func (e *Executor) QueueLen() int {
	return e.queue.Len()
}

// Current returns the running action, or nil.
func (e *Executor) Current() *action.Action {
	return e.current
}

// Idle reports whether no action is running and the queue is empty.
func (e *Executor) Idle() bool {
	return e.current == nil && e.queue.Len() == 0
}

// Tick advances execution by one cycle. It returns false when there was
// nothing to do.
func (e *Executor) Tick(ctx context.Context) bool {
	if e.current == nil {
		next := e.queue.Pop()
		if next == nil {
			return false
		}
		e.current = next
		e.tick = 0
		e.startedAt = time.Now()
	}

	a := e.current
	if a.Status() == action.StatusPending {
		e.start(ctx, a)
		return true
	}

	e.tick++
	done, err := a.Behavior().Tick(ctx, e.exec)
	e.chain.AfterTick(e.info())
	if err != nil {
		e.chain.OnError(e.info(), err)
		e.handleFailure(a)
		return true
	}
	if done {
		a.SetStatus(action.StatusSucceeded)
		e.chain.OnComplete(e.info(), action.StatusSucceeded)
		e.current = nil
	}
	return true
}

func (e *Executor) start(ctx context.Context, a *action.Action) {
	e.chain.BeforeStart(e.info())
	a.RecordAttempt()
	if err := a.Behavior().Start(ctx, e.exec); err != nil {
		e.chain.OnError(e.info(), err)
		e.handleFailure(a)
		return
	}
	a.SetStatus(action.StatusRunning)
}

// handleFailure retries the action within its attempt budget, then records
// the failure and advances.
func (e *Executor) handleFailure(a *action.Action) {
	if a.Attempts() < e.maxAttempts {
		a.Reset()
		logging.Debug().
			Add(logging.AgentID(e.agentID)).
			Add(logging.ActionID(a.ID)).
			Add(logging.Attempt(a.Attempts())).
			Msg("action retrying")
		return
	}
	a.SetStatus(action.StatusFailed)
	e.chain.OnComplete(e.info(), action.StatusFailed)
	e.current = nil
}

// Interrupt suspends execution for a reactive signal. The state machine
// decides first: a rejected interrupt leaves the running action untouched.
// On acceptance the running action is cancelled and dropped, and a critical
// severity clears the remaining queue.
func (e *Executor) Interrupt(ctx context.Context, sig reactive.Signal, reason string) error {
	if err := e.machine.Interrupt(reason); err != nil {
		return err
	}

	if e.current != nil {
		e.current.Behavior().Cancel(ctx, e.exec)
		e.current.SetStatus(action.StatusCancelled)
		e.chain.OnComplete(e.info(), action.StatusCancelled)
		e.current = nil
	}

	if sig.Severity == reactive.SeverityCritical {
		cleared := e.queue.Len()
		e.queue.Clear()
		logging.Info().
			Add(logging.AgentID(e.agentID)).
			Add(logging.Severity(sig.Severity)).
			Add(logging.QueueLen(cleared)).
			Msg("critical interrupt cleared queue")
	}
	return nil
}

// Abort cancels the running action and clears the queue without touching
// the state machine. Used when the agent enters the error state.
func (e *Executor) Abort(ctx context.Context) {
	if e.current != nil {
		e.current.Behavior().Cancel(ctx, e.exec)
		e.current.SetStatus(action.StatusCancelled)
		e.chain.OnComplete(e.info(), action.StatusCancelled)
		e.current = nil
	}
	e.queue.Clear()
}

// SnapshotQueue serializes the running action followed by the pending
// queue.
func (e *Executor) SnapshotQueue() []agent.QueuedAction {
	pending := e.queue.Snapshot()
	if e.current == nil {
		return pending
	}
	head := agent.QueuedAction{
		ID:     e.current.ID,
		Kind:   string(e.current.Kind),
		Params: e.current.Params,
		Status: string(e.current.Status()),
	}
	return append([]agent.QueuedAction{head}, pending...)
}

// AdoptQueue replaces the queue with a restored one. The executor must be
// idle.
func (e *Executor) AdoptQueue(q *action.Queue) {
	e.current = nil
	e.queue = q
}

func (e *Executor) info() interceptor.Info {
	info := interceptor.Info{
		AgentID: e.agentID,
		Tick:    e.tick,
		Started: e.startedAt,
	}
	if e.current != nil {
		info.ActionID = e.current.ID
		info.Kind = e.current.Kind
	}
	return info
}
