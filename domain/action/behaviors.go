package action

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voxmind/voxmind/domain/effector"
)

// Builtins returns the factory set for the built-in kinds. Callers may
// extend the map with domain-specific kinds before constructing the
// registry.
func Builtins() map[Kind]Factory {
	return map[Kind]Factory{
		KindMove: func(params json.RawMessage) (Behavior, error) {
			var p MoveParams
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			return &moveBehavior{params: p}, nil
		},
		KindInteract: func(params json.RawMessage) (Behavior, error) {
			var p InteractParams
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if p.Verb == "" {
				return nil, fmt.Errorf("%w: interact requires a verb", ErrBadParams)
			}
			return &interactBehavior{params: p}, nil
		},
		KindQuery: func(params json.RawMessage) (Behavior, error) {
			var p QueryParams
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if p.Probe == "" {
				return nil, fmt.Errorf("%w: query requires a probe", ErrBadParams)
			}
			return &queryBehavior{params: p}, nil
		},
		KindWait: func(params json.RawMessage) (Behavior, error) {
			var p WaitParams
			if err := decodeParams(params, &p); err != nil {
				return nil, err
			}
			if p.Ticks <= 0 {
				p.Ticks = 1
			}
			return &waitBehavior{remaining: p.Ticks}, nil
		},
	}
}

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	return nil
}

// MoveParams aim a move action at a world position.
type MoveParams struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// InteractParams describe an interaction at a position.
type InteractParams struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	Verb string `json:"verb"`
}

// QueryParams describe a read-only probe.
type QueryParams struct {
	Probe string `json:"probe"`
}

// WaitParams hold a tick count to idle for.
type WaitParams struct {
	Ticks int `json:"ticks"`
}

// opBehavior is the shared shape of the effector-driven behaviors: start
// one operation, poll it each tick, release it on cancel.
type opBehavior struct {
	op        effector.OpID
	started   bool
	cancelled bool
}

func (b *opBehavior) poll(exec *Exec) (bool, error) {
	status := exec.Effector.Poll(b.op)
	if !status.Done {
		return false, nil
	}
	exec.Effector.Release(b.op)
	if status.Err != nil {
		return true, fmt.Errorf("%w: %v", ErrActionFailure, status.Err)
	}
	return true, nil
}

func (b *opBehavior) cancel(exec *Exec) {
	if b.cancelled {
		return
	}
	b.cancelled = true
	if b.started {
		exec.Effector.Release(b.op)
	}
}

type moveBehavior struct {
	opBehavior
	params MoveParams
}

func (b *moveBehavior) Start(ctx context.Context, exec *Exec) error {
	op, err := exec.Effector.Move(ctx, effector.Target{X: b.params.X, Y: b.params.Y, Z: b.params.Z})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrActionFailure, err)
	}
	b.op = op
	b.started = true
	return nil
}

func (b *moveBehavior) Tick(_ context.Context, exec *Exec) (bool, error) {
	return b.poll(exec)
}

func (b *moveBehavior) Cancel(_ context.Context, exec *Exec) {
	b.cancel(exec)
}

type interactBehavior struct {
	opBehavior
	params InteractParams
}

func (b *interactBehavior) Start(ctx context.Context, exec *Exec) error {
	op, err := exec.Effector.Interact(ctx, effector.Target{X: b.params.X, Y: b.params.Y, Z: b.params.Z}, b.params.Verb)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrActionFailure, err)
	}
	b.op = op
	b.started = true
	return nil
}

func (b *interactBehavior) Tick(_ context.Context, exec *Exec) (bool, error) {
	return b.poll(exec)
}

func (b *interactBehavior) Cancel(_ context.Context, exec *Exec) {
	b.cancel(exec)
}

type queryBehavior struct {
	opBehavior
	params QueryParams
}

func (b *queryBehavior) Start(ctx context.Context, exec *Exec) error {
	op, err := exec.Effector.Query(ctx, b.params.Probe)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrActionFailure, err)
	}
	b.op = op
	b.started = true
	return nil
}

func (b *queryBehavior) Tick(_ context.Context, exec *Exec) (bool, error) {
	return b.poll(exec)
}

func (b *queryBehavior) Cancel(_ context.Context, exec *Exec) {
	b.cancel(exec)
}

// waitBehavior idles for a fixed tick count without touching the effector.
type waitBehavior struct {
	remaining int
}

func (b *waitBehavior) Start(context.Context, *Exec) error { return nil }

func (b *waitBehavior) Tick(context.Context, *Exec) (bool, error) {
	b.remaining--
	return b.remaining <= 0, nil
}

func (b *waitBehavior) Cancel(context.Context, *Exec) {}
