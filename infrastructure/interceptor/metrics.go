package interceptor

import (
	"context"

	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

// Metrics records action lifecycle metrics through a telemetry provider.
type Metrics struct {
	interceptor.Base
	provider telemetry.Metrics
}

// NewMetrics creates a metrics interceptor. A nil provider falls back to
// the no-op provider.
func NewMetrics(provider telemetry.Metrics) *Metrics {
	if provider == nil {
		provider = &telemetry.NoopMetricsProvider{}
	}
	return &Metrics{provider: provider}
}

// Name identifies the interceptor in fault logs.
func (m *Metrics) Name() string { return "metrics" }

// OnComplete records the execution outcome and duration.
func (m *Metrics) OnComplete(info interceptor.Info, status action.Status) {
	success := status == action.StatusSucceeded
	m.provider.RecordActionExecution(context.Background(), string(info.Kind), success, info.Elapsed())
}

// OnError records the behavior error.
func (m *Metrics) OnError(info interceptor.Info, err error) {
	m.provider.RecordError(context.Background(), "action_behavior", map[string]string{
		"action.kind": string(info.Kind),
		"agent.id":    info.AgentID,
	})
}

var _ interceptor.Interceptor = (*Metrics)(nil)
