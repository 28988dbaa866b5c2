// Package interceptor provides infrastructure-backed observers for the
// action lifecycle: structured logging, metrics, and event stream emission.
package interceptor

import (
	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/infrastructure/logging"
)

// Logging emits a structured log line for each lifecycle hook.
type Logging struct {
	interceptor.Base
}

// NewLogging creates a logging interceptor.
func NewLogging() *Logging {
	return &Logging{}
}

// Name identifies the interceptor in fault logs.
func (l *Logging) Name() string { return "logging" }

// BeforeStart logs the action start.
func (l *Logging) BeforeStart(info interceptor.Info) {
	logging.Info().
		Add(logging.AgentID(info.AgentID)).
		Add(logging.ActionID(info.ActionID)).
		Add(logging.Kind(info.Kind)).
		Msg("action started")
}

// AfterTick logs at debug level to keep the tick path quiet by default.
func (l *Logging) AfterTick(info interceptor.Info) {
	logging.Debug().
		Add(logging.AgentID(info.AgentID)).
		Add(logging.ActionID(info.ActionID)).
		Add(logging.Tick(info.Tick)).
		Msg("action tick")
}

// OnComplete logs the terminal status and elapsed time.
func (l *Logging) OnComplete(info interceptor.Info, status action.Status) {
	evt := logging.Info()
	if status == action.StatusFailed {
		evt = logging.Warn()
	}
	evt.
		Add(logging.AgentID(info.AgentID)).
		Add(logging.ActionID(info.ActionID)).
		Add(logging.Kind(info.Kind)).
		Add(logging.Str("status", string(status))).
		Add(logging.Duration(info.Elapsed())).
		Msg("action finished")
}

// OnError logs behavior errors.
func (l *Logging) OnError(info interceptor.Info, err error) {
	logging.Warn().
		Add(logging.AgentID(info.AgentID)).
		Add(logging.ActionID(info.ActionID)).
		Add(logging.Kind(info.Kind)).
		Add(logging.ErrorField(err)).
		Msg("action error")
}

var _ interceptor.Interceptor = (*Logging)(nil)
