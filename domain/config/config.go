// Package config provides domain models for agent configuration.
package config

import "time"

// AgentConfig represents the complete agent configuration.
type AgentConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the agent's purpose.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Agent contains core agent settings.
	Agent AgentSettings `json:"agent" yaml:"agent"`
	// Planner contains planning provider settings.
	Planner PlannerConfig `json:"planner,omitempty" yaml:"planner,omitempty"`
	// Cache contains plan cache settings.
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
	// Snapshots contains snapshot persistence settings.
	Snapshots SnapshotConfig `json:"snapshots,omitempty" yaml:"snapshots,omitempty"`
	// Journal contains event journal settings.
	Journal JournalConfig `json:"journal,omitempty" yaml:"journal,omitempty"`
	// Resilience contains resilience settings for the planner call path.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Interrupts contains reactive interrupt settings.
	Interrupts InterruptConfig `json:"interrupts,omitempty" yaml:"interrupts,omitempty"`
	// Logging contains logging settings.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Telemetry contains metrics settings.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// AgentSettings contains core agent behavior settings.
type AgentSettings struct {
	// ID identifies the agent instance.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`
	// StackDepth is the maximum suspension stack depth.
	StackDepth int `json:"stack_depth,omitempty" yaml:"stack_depth,omitempty"`
	// JournalSize bounds the in-memory transition journal.
	JournalSize int `json:"journal_size,omitempty" yaml:"journal_size,omitempty"`
	// MaxActionRetries bounds retries for a failing action before the
	// executor records the failure and advances.
	MaxActionRetries int `json:"max_action_retries,omitempty" yaml:"max_action_retries,omitempty"`
	// TickInterval is the executor's tick period.
	TickInterval Duration `json:"tick_interval,omitempty" yaml:"tick_interval,omitempty"`
}

// PlannerConfig contains planning provider settings.
type PlannerConfig struct {
	// Provider is the provider type (ollama, scripted).
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	// BaseURL is the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Model is the model name.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// MaxTokens limits the response size.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// BatchWindow is how long requests coalesce before one provider call.
	BatchWindow Duration `json:"batch_window,omitempty" yaml:"batch_window,omitempty"`
	// MaxBatch flushes the window early once this many requests are pending.
	MaxBatch int `json:"max_batch,omitempty" yaml:"max_batch,omitempty"`
}

// CacheConfig contains plan cache settings.
type CacheConfig struct {
	// Backend is the cache backend (memory, redis).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Capacity is the entry limit for the memory backend.
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	// TTL is how long a cached plan stays fresh.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// StaleTTL is how long an expired plan remains available as a fallback.
	StaleTTL Duration `json:"stale_ttl,omitempty" yaml:"stale_ttl,omitempty"`
	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	// Address is the server address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Password is the server password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// DB is the database number.
	DB int `json:"db,omitempty" yaml:"db,omitempty"`
	// KeyPrefix is prepended to all keys.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	// PoolSize is the connection pool size.
	PoolSize int `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
}

// SnapshotConfig contains snapshot persistence settings.
type SnapshotConfig struct {
	// Backend is the snapshot backend (memory, sqlite).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// DSN is the database source name for the sqlite backend.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// JournalConfig contains event journal settings.
type JournalConfig struct {
	// Enabled enables the durable event journal.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Dir is the journal directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// InMemory uses in-memory storage (useful for testing).
	InMemory bool `json:"in_memory,omitempty" yaml:"in_memory,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// Timeout is the per-call timeout for planner requests.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Retry configures retry behavior.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures circuit breaker behavior.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	// Bulkhead configures bulkhead behavior.
	Bulkhead BulkheadConfig `json:"bulkhead,omitempty" yaml:"bulkhead,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum retry attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Threshold is consecutive failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// BulkheadConfig configures bulkhead behavior.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum concurrent planner calls.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
}

// InterruptConfig contains reactive interrupt settings.
type InterruptConfig struct {
	// Enabled enables reactive interrupt evaluation.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Inertia is the utility margin a new signal must beat before the
	// selector fires while an action is running.
	Inertia float64 `json:"inertia,omitempty" yaml:"inertia,omitempty"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the output format (json, console).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	// Enabled enables OpenTelemetry metrics.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MeterName overrides the default meter name.
	MeterName string `json:"meter_name,omitempty" yaml:"meter_name,omitempty"`
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
