// Package interceptor provides ordered, side-effect-only observers wrapped
// around the action lifecycle. Interceptors record and emit; they cannot
// veto a lifecycle step or alter the executor's decisions.
package interceptor

import (
	"time"

	"github.com/voxmind/voxmind/domain/action"
)

// Info describes the action an interceptor is observing.
type Info struct {
	AgentID  string
	ActionID string
	Kind     action.Kind
	Tick     int
	Started  time.Time
}

// Elapsed returns how long the action has been running.
func (i Info) Elapsed() time.Duration {
	if i.Started.IsZero() {
		return 0
	}
	return time.Since(i.Started)
}

// Interceptor observes the action lifecycle. Implementations must be cheap:
// they run on the tick path.
type Interceptor interface {
	// Name identifies the interceptor in fault logs.
	Name() string

	// BeforeStart runs immediately before the action's single Start call.
	BeforeStart(info Info)

	// AfterTick runs after each Tick call.
	AfterTick(info Info)

	// OnComplete runs once when the action reaches a terminal status.
	OnComplete(info Info, status action.Status)

	// OnError runs when the action's behavior returned an error.
	OnError(info Info, err error)
}

// Base is a no-op Interceptor for embedding, so implementations override
// only the hooks they care about.
type Base struct{}

func (Base) BeforeStart(Info)                  {}
func (Base) AfterTick(Info)                    {}
func (Base) OnComplete(Info, action.Status)    {}
func (Base) OnError(Info, error)               {}
