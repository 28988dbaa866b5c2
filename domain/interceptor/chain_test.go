package interceptor_test

import (
	"errors"
	"testing"

	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/interceptor"
)

type recordingInterceptor struct {
	interceptor.Base
	name   string
	calls  []string
	panics bool
}

func (r *recordingInterceptor) Name() string { return r.name }

func (r *recordingInterceptor) BeforeStart(interceptor.Info) {
	if r.panics {
		panic("interceptor fault")
	}
	r.calls = append(r.calls, "before")
}

func (r *recordingInterceptor) AfterTick(interceptor.Info) {
	r.calls = append(r.calls, "tick")
}

func (r *recordingInterceptor) OnComplete(_ interceptor.Info, status action.Status) {
	r.calls = append(r.calls, "complete:"+string(status))
}

func (r *recordingInterceptor) OnError(_ interceptor.Info, err error) {
	r.calls = append(r.calls, "error:"+err.Error())
}

func TestChain_InvokesInOrder(t *testing.T) {
	t.Parallel()

	first := &recordingInterceptor{name: "first"}
	second := &recordingInterceptor{name: "second"}
	chain := interceptor.NewChain(first, second)

	info := interceptor.Info{AgentID: "crew-1", ActionID: "a1", Kind: action.KindMove}
	chain.BeforeStart(info)
	chain.AfterTick(info)
	chain.OnComplete(info, action.StatusSucceeded)
	chain.OnError(info, errors.New("boom"))

	want := []string{"before", "tick", "complete:succeeded", "error:boom"}
	for _, rec := range []*recordingInterceptor{first, second} {
		if len(rec.calls) != len(want) {
			t.Fatalf("%s calls = %v, want %v", rec.name, rec.calls, want)
		}
		for i := range want {
			if rec.calls[i] != want[i] {
				t.Errorf("%s calls[%d] = %s, want %s", rec.name, i, rec.calls[i], want[i])
			}
		}
	}
}

func TestChain_FaultingInterceptorIsSkipped(t *testing.T) {
	t.Parallel()

	faulty := &recordingInterceptor{name: "faulty", panics: true}
	healthy := &recordingInterceptor{name: "healthy"}
	chain := interceptor.NewChain(faulty, healthy)

	var faultedName string
	chain.SetFaultHandler(func(name string, _ any) {
		faultedName = name
	})

	chain.BeforeStart(interceptor.Info{ActionID: "a1"})

	if faultedName != "faulty" {
		t.Errorf("fault handler got %q, want faulty", faultedName)
	}
	if len(healthy.calls) != 1 || healthy.calls[0] != "before" {
		t.Errorf("healthy interceptor should still run, calls = %v", healthy.calls)
	}
}

func TestChain_Use(t *testing.T) {
	t.Parallel()

	chain := interceptor.NewChain()
	if chain.Len() != 0 {
		t.Fatalf("empty chain Len() = %d", chain.Len())
	}
	chain.Use(&recordingInterceptor{name: "a"}).Use(&recordingInterceptor{name: "b"})
	if chain.Len() != 2 {
		t.Errorf("Len() = %d, want 2", chain.Len())
	}
}
