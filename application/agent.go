package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/event"
	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/domain/reactive"
	"github.com/voxmind/voxmind/infrastructure/logging"
	"github.com/voxmind/voxmind/infrastructure/planner"
	"github.com/voxmind/voxmind/infrastructure/statemachine"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

// DefaultMaxPlanningFailures is how many consecutive planning failures
// drive the agent into the error state.
const DefaultMaxPlanningFailures = 3

// ErrNotIdle is returned when a command arrives while the agent cannot
// start planning; the command is queued instead.
var ErrNotIdle = errors.New("agent not idle")

// pendingCommand is a submitted command waiting for the agent to go idle.
type pendingCommand struct {
	command       string
	correlationID string
	snap          plan.Snapshot
}

// Agent owns one agent's execution core: the pushdown state machine, the
// action queue executor, the reactive interrupt selector, and the planning
// ticket in flight. All methods are driven from a single tick goroutine.
type Agent struct {
	id       string
	machine  *statemachine.Pushdown
	executor *Executor
	selector *reactive.Selector
	planner  *planner.Service
	registry *action.Registry
	bus      *event.Bus
	store    agent.SnapshotStore
	metrics  telemetry.Metrics

	inertia             float64
	maxPlanningFailures int

	ticket           *planner.Ticket
	pendingCommands  []pendingCommand
	planningFailures int
	lastSignal       reactive.Signal
}

// Tick runs one cooperative cycle: drain state machine records, poll the
// planning ticket, evaluate reactive interrupts, then drive the executor.
// It never blocks on I/O; planner work happens on goroutines behind the
// ticket.
func (a *Agent) Tick(ctx context.Context, facts reactive.Facts) {
	a.drainRecords()
	a.pollTicket()
	a.startPendingCommand(ctx)

	state := a.machine.State()
	if state != agent.StateExecuting {
		return
	}

	if a.selector != nil {
		if sig, fire := a.selector.Evaluate(facts, a.inertia); fire {
			a.fireInterrupt(ctx, sig)
			return
		}
	}

	a.executor.Tick(ctx)
	if a.executor.Idle() {
		a.machine.TransitionTo(agent.StateIdle, "plan complete")
	}
}

// Submit accepts a command for planning. When the agent is idle, planning
// starts immediately; otherwise the command is queued until the agent
// returns to idle. The returned correlation ID tracks the request either
// way.
func (a *Agent) Submit(ctx context.Context, command string, snap plan.Snapshot) (string, error) {
	normalized := plan.NormalizeCommand(command)
	if normalized == "" {
		return "", fmt.Errorf("%w: empty command", plan.ErrPlanningFailed)
	}

	if a.machine.State() == agent.StateIdle && a.ticket == nil {
		return a.beginPlanning(ctx, command, snap, uuid.NewString())
	}

	correlationID := uuid.NewString()
	a.pendingCommands = append(a.pendingCommands, pendingCommand{command: command, correlationID: correlationID, snap: snap})
	a.publish(event.TypeCommandAccepted, commandPayload{Command: normalized, CorrelationID: correlationID, Queued: true})
	return correlationID, nil
}

// Resume pops the suspension stack and continues execution. Call after the
// condition that raised the interrupt has cleared.
func (a *Agent) Resume(ctx context.Context, reason string) error {
	state, err := a.machine.Resume(reason)
	if err != nil {
		return err
	}
	a.drainRecords()
	logging.Info().
		Add(logging.AgentID(a.id)).
		Add(logging.State(state)).
		Add(logging.Reason(reason)).
		Msg("agent resumed")
	return nil
}

// Recover returns the agent from the error state to idle and resets the
// failure streak.
func (a *Agent) Recover(ctx context.Context, reason string) error {
	if err := a.machine.Recover(reason); err != nil {
		return err
	}
	a.planningFailures = 0
	a.executor.Abort(ctx)
	a.drainRecords()
	return nil
}

// State returns the agent's current state.
func (a *Agent) State() agent.State {
	return a.machine.State()
}

// ID returns the agent identifier.
func (a *Agent) ID() string {
	return a.id
}

// Executor exposes the action queue executor.
func (a *Agent) Executor() *Executor {
	return a.executor
}

// LastSignal returns the most recent interrupt signal.
func (a *Agent) LastSignal() reactive.Signal {
	return a.lastSignal
}

// Snapshot persists the agent's resumable state: current state, suspension
// stack, and pending queue.
func (a *Agent) Snapshot() error {
	if a.store == nil {
		return nil
	}
	snap := &agent.Snapshot{
		AgentID:         a.id,
		CurrentState:    a.machine.State(),
		SuspensionStack: a.machine.SuspensionStack(),
		Queue:           a.executor.SnapshotQueue(),
		TakenAt:         time.Now(),
	}
	return a.store.Save(snap)
}

// Restore rebuilds state machine and queue from the latest persisted
// snapshot. Without one the agent keeps its current state.
func (a *Agent) Restore() error {
	if a.store == nil {
		return nil
	}
	snap, ok, err := a.store.Load(a.id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := a.machine.Restore(snap.CurrentState, snap.SuspensionStack); err != nil {
		return err
	}
	queue, err := action.RestoreQueue(a.registry, snap.Queue)
	if err != nil {
		return err
	}
	a.executor.AdoptQueue(queue)
	return nil
}

// Close stops the state machine.
func (a *Agent) Close() {
	a.machine.Stop()
}

// beginPlanning transitions to planning and opens a ticket.
func (a *Agent) beginPlanning(ctx context.Context, command string, snap plan.Snapshot, correlationID string) (string, error) {
	if !a.machine.TransitionTo(agent.StatePlanning, "command accepted") {
		return "", fmt.Errorf("%w: state %s", ErrNotIdle, a.machine.State())
	}
	a.ticket = a.planner.Plan(ctx, plan.NewRequest(a.id, command, snap, correlationID))
	a.publish(event.TypeCommandAccepted, commandPayload{
		Command:       plan.NormalizeCommand(command),
		CorrelationID: correlationID,
	})
	logging.Info().
		Add(logging.AgentID(a.id)).
		Add(logging.Command(plan.NormalizeCommand(command))).
		Add(logging.CorrelationID(correlationID)).
		Msg("command accepted")
	return correlationID, nil
}

// pollTicket checks the in-flight planning ticket without blocking.
func (a *Agent) pollTicket() {
	if a.ticket == nil {
		return
	}
	result := a.ticket.Poll()
	if !result.Status.Terminal() {
		return
	}
	a.ticket = nil

	switch result.Status {
	case plan.StatusReady, plan.StatusReadyStale:
		a.acceptPlan(result)
	default:
		a.planningFailed(result)
	}
}

// acceptPlan validates every step against the closed kind set and enqueues
// the built actions. A plan with any unknown kind is rejected whole.
func (a *Agent) acceptPlan(result plan.Result) {
	actions := make([]*action.Action, 0, len(result.Plan.Steps))
	for _, step := range result.Plan.Steps {
		built, err := a.registry.Build(action.Kind(step.Kind), step.Params)
		if err != nil {
			a.planningFailed(plan.Result{
				CorrelationID: result.CorrelationID,
				Fingerprint:   result.Fingerprint,
				Status:        plan.StatusFailed,
				Err:           err,
			})
			return
		}
		actions = append(actions, built)
	}

	for _, built := range actions {
		a.executor.Enqueue(built)
	}
	a.planningFailures = 0
	a.machine.TransitionTo(agent.StateExecuting, "plan accepted")
	a.publish(event.TypePlanReady, planPayload{
		CorrelationID: result.CorrelationID,
		Steps:         len(actions),
		CacheHit:      result.CacheHit,
		Stale:         result.Status == plan.StatusReadyStale,
	})
	logging.Info().
		Add(logging.AgentID(a.id)).
		Add(logging.CorrelationID(result.CorrelationID)).
		Add(logging.Steps(len(actions))).
		Add(logging.Cached(result.CacheHit)).
		Msg("plan accepted")
}

// planningFailed returns to idle, or to error after repeated failures.
func (a *Agent) planningFailed(result plan.Result) {
	a.planningFailures++
	a.publish(event.TypePlanFailed, planPayload{
		CorrelationID: result.CorrelationID,
		Error:         errString(result.Err),
	})
	logging.Warn().
		Add(logging.AgentID(a.id)).
		Add(logging.CorrelationID(result.CorrelationID)).
		Add(logging.ErrorField(result.Err)).
		Msg("planning failed")

	if a.planningFailures >= a.maxPlanningFailures {
		a.machine.Fail("planning failures exhausted")
		a.executor.Abort(context.Background())
		return
	}
	a.machine.TransitionTo(agent.StateIdle, "planning failed")
}

// startPendingCommand begins planning for the oldest queued command once
// the agent is idle again.
func (a *Agent) startPendingCommand(ctx context.Context) {
	if len(a.pendingCommands) == 0 || a.ticket != nil {
		return
	}
	if a.machine.State() != agent.StateIdle {
		return
	}
	next := a.pendingCommands[0]
	a.pendingCommands = a.pendingCommands[1:]
	if _, err := a.beginPlanning(ctx, next.command, next.snap, next.correlationID); err != nil {
		logging.Warn().
			Add(logging.AgentID(a.id)).
			Add(logging.ErrorField(err)).
			Msg("queued command failed to start")
	}
}

// fireInterrupt suspends execution for a reactive signal.
func (a *Agent) fireInterrupt(ctx context.Context, sig reactive.Signal) {
	if err := a.executor.Interrupt(ctx, sig, "reactive: "+sig.CandidateID); err != nil {
		logging.Debug().
			Add(logging.AgentID(a.id)).
			Add(logging.ErrorField(err)).
			Msg("interrupt rejected")
		return
	}
	a.lastSignal = sig
	a.metrics.RecordInterrupt(ctx, sig.CandidateID, string(sig.Severity))
	a.publish(event.TypeInterruptFired, interruptPayload{
		CandidateID: sig.CandidateID,
		Severity:    string(sig.Severity),
		Utility:     sig.Utility,
	})
	logging.Info().
		Add(logging.AgentID(a.id)).
		Add(logging.Str("candidate", sig.CandidateID)).
		Add(logging.Severity(sig.Severity)).
		Add(logging.Utility(sig.Utility)).
		Msg("interrupt fired")
}

// drainRecords publishes buffered state transition records to the bus and
// counts the accepted ones.
func (a *Agent) drainRecords() {
	for {
		select {
		case rec := <-a.machine.Records():
			a.publish(event.TypeStateTransition, transitionPayload{
				From:     string(rec.From),
				To:       string(rec.To),
				Reason:   rec.Reason,
				Accepted: rec.Accepted,
			})
			if rec.Accepted {
				a.metrics.RecordStateTransition(context.Background(), string(rec.From), string(rec.To), a.id)
				logging.Debug().
					Add(logging.AgentID(a.id)).
					Add(logging.FromState(rec.From)).
					Add(logging.ToState(rec.To)).
					Add(logging.Reason(rec.Reason)).
					Msg("state transition")
			}
		default:
			return
		}
	}
}

func (a *Agent) publish(eventType event.Type, payload any) {
	if a.bus == nil {
		return
	}
	evt, err := event.New(a.id, eventType, payload)
	if err != nil {
		return
	}
	a.bus.Publish(evt)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Event payloads.
type commandPayload struct {
	Command       string `json:"command"`
	CorrelationID string `json:"correlation_id"`
	Queued        bool   `json:"queued,omitempty"`
}

type planPayload struct {
	CorrelationID string `json:"correlation_id"`
	Steps         int    `json:"steps,omitempty"`
	CacheHit      bool   `json:"cache_hit,omitempty"`
	Stale         bool   `json:"stale,omitempty"`
	Error         string `json:"error,omitempty"`
}

type interruptPayload struct {
	CandidateID string  `json:"candidate_id"`
	Severity    string  `json:"severity"`
	Utility     float64 `json:"utility"`
}

type transitionPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Reason   string `json:"reason"`
	Accepted bool   `json:"accepted"`
}
