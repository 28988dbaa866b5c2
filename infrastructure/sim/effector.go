// Package sim provides a deterministic in-process effector for tests and
// offline runs. Operations complete after a fixed number of polls, so a
// tick-driven executor sees the same world on every run.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/voxmind/voxmind/domain/effector"
)

// DefaultOpTicks is how many polls an operation takes to complete unless
// configured otherwise.
const DefaultOpTicks = 2

type op struct {
	remaining int
	err       error
	result    json.RawMessage
	done      bool
}

// Effector is a deterministic effector.Effector implementation. All
// methods are safe for concurrent use.
type Effector struct {
	mu sync.Mutex

	moveTicks     int
	interactTicks int
	queryTicks    int

	ops          map[effector.OpID]*op
	seq          int
	failVerbs    map[string]error
	rejectVerbs  map[string]error
	observations map[string]json.RawMessage

	started  int
	released int
}

// Option configures the sim effector.
type Option func(*Effector)

// WithMoveTicks sets how many polls a move takes.
func WithMoveTicks(n int) Option {
	return func(e *Effector) {
		e.moveTicks = n
	}
}

// WithInteractTicks sets how many polls an interaction takes.
func WithInteractTicks(n int) Option {
	return func(e *Effector) {
		e.interactTicks = n
	}
}

// WithQueryTicks sets how many polls a query takes.
func WithQueryTicks(n int) Option {
	return func(e *Effector) {
		e.queryTicks = n
	}
}

// NewEffector creates a sim effector.
func NewEffector(opts ...Option) *Effector {
	e := &Effector{
		moveTicks:     DefaultOpTicks,
		interactTicks: DefaultOpTicks,
		queryTicks:    1,
		ops:           make(map[effector.OpID]*op),
		failVerbs:     make(map[string]error),
		rejectVerbs:   make(map[string]error),
		observations:  make(map[string]json.RawMessage),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// FailOn makes operations with the given verb or probe complete with err.
// The verb for moves is "move".
func (e *Effector) FailOn(verb string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failVerbs[verb] = err
}

// RejectOn makes operations with the given verb or probe fail to start.
func (e *Effector) RejectOn(verb string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejectVerbs[verb] = err
}

// ClearFaults removes all configured failures and rejections.
func (e *Effector) ClearFaults() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failVerbs = make(map[string]error)
	e.rejectVerbs = make(map[string]error)
}

// SetObservation sets the result a query for probe will produce.
func (e *Effector) SetObservation(probe string, data json.RawMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observations[probe] = data
}

// Move starts walking toward a target.
func (e *Effector) Move(ctx context.Context, target effector.Target) (effector.OpID, error) {
	return e.start(ctx, "move", e.moveTicks, nil)
}

// Interact starts an interaction at a target.
func (e *Effector) Interact(ctx context.Context, target effector.Target, verb string) (effector.OpID, error) {
	return e.start(ctx, verb, e.interactTicks, nil)
}

// Query starts a read-only probe.
func (e *Effector) Query(ctx context.Context, probe string) (effector.OpID, error) {
	e.mu.Lock()
	result, ok := e.observations[probe]
	e.mu.Unlock()
	if !ok {
		result = json.RawMessage(`{}`)
	}
	return e.start(ctx, probe, e.queryTicks, result)
}

func (e *Effector) start(ctx context.Context, verb string, ticks int, result json.RawMessage) (effector.OpID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err, ok := e.rejectVerbs[verb]; ok {
		return "", fmt.Errorf("%w: %v", effector.ErrRejected, err)
	}

	e.seq++
	id := effector.OpID(fmt.Sprintf("sim-%d", e.seq))
	e.ops[id] = &op{
		remaining: ticks,
		err:       e.failVerbs[verb],
		result:    result,
	}
	e.started++
	return id, nil
}

// Poll reports the status of an operation, advancing it by one tick.
func (e *Effector) Poll(id effector.OpID) effector.OpStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.ops[id]
	if !ok {
		return effector.OpStatus{Done: true, Err: effector.ErrUnknownOp}
	}

	if o.done {
		return effector.OpStatus{Done: true, Err: o.err}
	}

	o.remaining--
	if o.remaining <= 0 {
		o.done = true
		return effector.OpStatus{Done: true, Err: o.err}
	}
	return effector.OpStatus{}
}

// Result returns the observation produced by a completed query.
func (e *Effector) Result(id effector.OpID) (effector.Observation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.ops[id]
	if !ok || !o.done || o.err != nil || o.result == nil {
		return effector.Observation{}, false
	}
	return effector.Observation{Data: o.result}, true
}

// Release discards any state held for an operation.
func (e *Effector) Release(id effector.OpID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.ops[id]; ok {
		delete(e.ops, id)
		e.released++
	}
}

// InFlight returns how many operations are started but not yet released.
func (e *Effector) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.ops)
}

// Started returns how many operations have been started.
func (e *Effector) Started() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

var _ effector.Effector = (*Effector)(nil)
