package action_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/voxmind/voxmind/domain/action"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("builds from builtin set", func(t *testing.T) {
		t.Parallel()

		r, err := action.NewRegistry(action.Builtins())
		if err != nil {
			t.Fatalf("NewRegistry() error = %v", err)
		}

		want := []action.Kind{action.KindInteract, action.KindMove, action.KindQuery, action.KindWait}
		got := r.Kinds()
		if len(got) != len(want) {
			t.Fatalf("Kinds() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Kinds()[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("rejects empty set", func(t *testing.T) {
		t.Parallel()

		if _, err := action.NewRegistry(nil); err == nil {
			t.Error("NewRegistry(nil) should fail")
		}
	})
}

func TestRegistry_Build(t *testing.T) {
	t.Parallel()

	r, err := action.NewRegistry(action.Builtins())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	t.Run("known kind", func(t *testing.T) {
		t.Parallel()

		a, err := r.Build(action.KindMove, json.RawMessage(`{"x":1,"y":2,"z":3}`))
		if err != nil {
			t.Fatalf("Build(move) error = %v", err)
		}
		if a.Status() != action.StatusPending {
			t.Errorf("new action status = %s, want pending", a.Status())
		}
		if a.ID == "" {
			t.Error("new action should have an ID")
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		_, err := r.Build("teleport", nil)
		if !errors.Is(err, action.ErrUnknownKind) {
			t.Errorf("Build(teleport) error = %v, want ErrUnknownKind", err)
		}
	})

	t.Run("bad params", func(t *testing.T) {
		t.Parallel()

		_, err := r.Build(action.KindInteract, json.RawMessage(`{"verb":""}`))
		if !errors.Is(err, action.ErrBadParams) {
			t.Errorf("Build(interact, no verb) error = %v, want ErrBadParams", err)
		}

		_, err = r.Build(action.KindMove, json.RawMessage(`not json`))
		if !errors.Is(err, action.ErrBadParams) {
			t.Errorf("Build(move, garbage) error = %v, want ErrBadParams", err)
		}
	})
}

func TestWaitBehavior_DecomposesAcrossTicks(t *testing.T) {
	t.Parallel()

	r, _ := action.NewRegistry(action.Builtins())
	a, err := r.Build(action.KindWait, json.RawMessage(`{"ticks":3}`))
	if err != nil {
		t.Fatalf("Build(wait) error = %v", err)
	}

	exec := &action.Exec{AgentID: "crew-1"}
	ctx := context.Background()
	if err := a.Behavior().Start(ctx, exec); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ticks := 0
	for {
		done, err := a.Behavior().Tick(ctx, exec)
		if err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
		ticks++
		if done {
			break
		}
		if ticks > 10 {
			t.Fatal("wait behavior never finished")
		}
	}
	if ticks != 3 {
		t.Errorf("wait took %d ticks, want 3", ticks)
	}
}
