// Package telemetry provides OpenTelemetry metrics for the execution core.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	actionExecutions metric.Int64Counter
	stateTransitions metric.Int64Counter
	interrupts       metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	planningFailures metric.Int64Counter
	errors           metric.Int64Counter

	// Histograms
	actionDuration   metric.Float64Histogram
	planningDuration metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeAgents metric.Int64UpDownCounter
	circuitOpen  metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/voxmind/voxmind").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are default attributes to attach to all metrics.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/voxmind/voxmind",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.actionExecutions, err = mp.meter.Int64Counter(
		"agent.action.executions",
		metric.WithDescription("Number of action executions"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	mp.stateTransitions, err = mp.meter.Int64Counter(
		"agent.state.transitions",
		metric.WithDescription("Number of state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.interrupts, err = mp.meter.Int64Counter(
		"agent.interrupts",
		metric.WithDescription("Number of reactive interrupts fired"),
		metric.WithUnit("{interrupt}"),
	)
	if err != nil {
		return err
	}

	mp.cacheHits, err = mp.meter.Int64Counter(
		"agent.plancache.hits",
		metric.WithDescription("Number of plan cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.cacheMisses, err = mp.meter.Int64Counter(
		"agent.plancache.misses",
		metric.WithDescription("Number of plan cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.planningFailures, err = mp.meter.Int64Counter(
		"agent.planning.failures",
		metric.WithDescription("Number of failed planning requests"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"agent.errors",
		metric.WithDescription("Number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.actionDuration, err = mp.meter.Float64Histogram(
		"agent.action.duration",
		metric.WithDescription("Duration of action executions"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.planningDuration, err = mp.meter.Float64Histogram(
		"agent.planning.duration",
		metric.WithDescription("Duration of planning operations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.activeAgents, err = mp.meter.Int64UpDownCounter(
		"agent.active",
		metric.WithDescription("Number of active agents"),
		metric.WithUnit("{agent}"),
	)
	if err != nil {
		return err
	}

	mp.circuitOpen, err = mp.meter.Int64UpDownCounter(
		"agent.circuitbreaker.open",
		metric.WithDescription("Number of open circuit breakers"),
		metric.WithUnit("{circuit}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordActionExecution records one completed or failed action.
func (mp *MetricsProvider) RecordActionExecution(ctx context.Context, kind string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("action.kind", kind),
		attribute.Bool("success", success),
	}

	mp.actionExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.actionDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		mp.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", "action_execution"),
			attribute.String("action.kind", kind),
		))
	}
}

// RecordStateTransition records a state transition.
func (mp *MetricsProvider) RecordStateTransition(ctx context.Context, fromState, toState string, agentID string) {
	attrs := []attribute.KeyValue{
		attribute.String("state.from", fromState),
		attribute.String("state.to", toState),
		attribute.String("agent.id", agentID),
	}

	mp.stateTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInterrupt records a reactive interrupt.
func (mp *MetricsProvider) RecordInterrupt(ctx context.Context, condition string, severity string) {
	attrs := []attribute.KeyValue{
		attribute.String("interrupt.condition", condition),
		attribute.String("interrupt.severity", severity),
	}

	mp.interrupts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a plan cache hit.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context, stale bool) {
	mp.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.Bool("stale", stale)))
}

// RecordCacheMiss records a plan cache miss.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context) {
	mp.cacheMisses.Add(ctx, 1)
}

// RecordPlanningFailure records a planning request that exhausted its fallbacks.
func (mp *MetricsProvider) RecordPlanningFailure(ctx context.Context, reason string) {
	mp.planningFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.type", errorType),
	}
	for k, v := range details {
		attrs = append(attrs, attribute.String(k, v))
	}

	mp.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPlanningDuration records the duration of a planning operation.
func (mp *MetricsProvider) RecordPlanningDuration(ctx context.Context, duration time.Duration, cacheHit bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("cache.hit", cacheHit),
	}

	mp.planningDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// IncrementActiveAgents increments the active agents counter.
func (mp *MetricsProvider) IncrementActiveAgents(ctx context.Context) {
	mp.activeAgents.Add(ctx, 1)
}

// DecrementActiveAgents decrements the active agents counter.
func (mp *MetricsProvider) DecrementActiveAgents(ctx context.Context) {
	mp.activeAgents.Add(ctx, -1)
}

// RecordCircuitBreakerStateChange records a circuit breaker state change.
func (mp *MetricsProvider) RecordCircuitBreakerStateChange(ctx context.Context, name string, isOpen bool) {
	attrs := []attribute.KeyValue{
		attribute.String("breaker.name", name),
	}

	if isOpen {
		mp.circuitOpen.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		mp.circuitOpen.Add(ctx, -1, metric.WithAttributes(attrs...))
	}
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordActionExecution is a no-op.
func (n *NoopMetricsProvider) RecordActionExecution(ctx context.Context, kind string, success bool, duration time.Duration) {
}

// RecordStateTransition is a no-op.
func (n *NoopMetricsProvider) RecordStateTransition(ctx context.Context, fromState, toState string, agentID string) {
}

// RecordInterrupt is a no-op.
func (n *NoopMetricsProvider) RecordInterrupt(ctx context.Context, condition string, severity string) {
}

// RecordCacheHit is a no-op.
func (n *NoopMetricsProvider) RecordCacheHit(ctx context.Context, stale bool) {}

// RecordCacheMiss is a no-op.
func (n *NoopMetricsProvider) RecordCacheMiss(ctx context.Context) {}

// RecordPlanningFailure is a no-op.
func (n *NoopMetricsProvider) RecordPlanningFailure(ctx context.Context, reason string) {}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
}

// RecordPlanningDuration is a no-op.
func (n *NoopMetricsProvider) RecordPlanningDuration(ctx context.Context, duration time.Duration, cacheHit bool) {
}

// IncrementActiveAgents is a no-op.
func (n *NoopMetricsProvider) IncrementActiveAgents(ctx context.Context) {}

// DecrementActiveAgents is a no-op.
func (n *NoopMetricsProvider) DecrementActiveAgents(ctx context.Context) {}

// RecordCircuitBreakerStateChange is a no-op.
func (n *NoopMetricsProvider) RecordCircuitBreakerStateChange(ctx context.Context, name string, isOpen bool) {
}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordActionExecution(ctx context.Context, kind string, success bool, duration time.Duration)
	RecordStateTransition(ctx context.Context, fromState, toState string, agentID string)
	RecordInterrupt(ctx context.Context, condition string, severity string)
	RecordCacheHit(ctx context.Context, stale bool)
	RecordCacheMiss(ctx context.Context)
	RecordPlanningFailure(ctx context.Context, reason string)
	RecordError(ctx context.Context, errorType string, details map[string]string)
	RecordPlanningDuration(ctx context.Context, duration time.Duration, cacheHit bool)
	IncrementActiveAgents(ctx context.Context)
	DecrementActiveAgents(ctx context.Context)
	RecordCircuitBreakerStateChange(ctx context.Context, name string, isOpen bool)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
