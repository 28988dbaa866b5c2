package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates agent configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *AgentConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateAgent(config)
	v.validatePlanner(config)
	v.validateCache(config)
	v.validateSnapshots(config)
	v.validateResilience(config)
	v.validateInterrupts(config)
	v.validateLogging(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *AgentConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateAgent(config *AgentConfig) {
	if config.Agent.StackDepth < 0 {
		v.addError("agent.stack_depth", "stack_depth must be non-negative")
	}
	if config.Agent.JournalSize < 0 {
		v.addError("agent.journal_size", "journal_size must be non-negative")
	}
	if config.Agent.MaxActionRetries < 0 {
		v.addError("agent.max_action_retries", "max_action_retries must be non-negative")
	}
	if config.Agent.TickInterval < 0 {
		v.addError("agent.tick_interval", "tick_interval must be non-negative")
	}
}

func (v *Validator) validatePlanner(config *AgentConfig) {
	if config.Planner.Provider != "" {
		validProviders := map[string]bool{"ollama": true, "scripted": true}
		if !validProviders[strings.ToLower(config.Planner.Provider)] {
			v.addError("planner.provider", fmt.Sprintf("invalid provider: %s", config.Planner.Provider))
		}
	}
	if config.Planner.Temperature < 0 || config.Planner.Temperature > 2 {
		v.addError("planner.temperature", "temperature must be between 0 and 2")
	}
	if config.Planner.MaxBatch < 0 {
		v.addError("planner.max_batch", "max_batch must be non-negative")
	}
	if config.Planner.BatchWindow < 0 {
		v.addError("planner.batch_window", "batch_window must be non-negative")
	}
}

func (v *Validator) validateCache(config *AgentConfig) {
	if config.Cache.Backend != "" {
		validBackends := map[string]bool{"memory": true, "redis": true}
		if !validBackends[strings.ToLower(config.Cache.Backend)] {
			v.addError("cache.backend", fmt.Sprintf("invalid backend: %s", config.Cache.Backend))
		}
	}
	if config.Cache.Capacity < 0 {
		v.addError("cache.capacity", "capacity must be non-negative")
	}
	if strings.ToLower(config.Cache.Backend) == "redis" && config.Cache.Redis.Address == "" {
		v.addError("cache.redis.address", "address is required for the redis backend")
	}
}

func (v *Validator) validateSnapshots(config *AgentConfig) {
	if config.Snapshots.Backend != "" {
		validBackends := map[string]bool{"memory": true, "sqlite": true}
		if !validBackends[strings.ToLower(config.Snapshots.Backend)] {
			v.addError("snapshots.backend", fmt.Sprintf("invalid backend: %s", config.Snapshots.Backend))
		}
	}
}

func (v *Validator) validateResilience(config *AgentConfig) {
	if config.Resilience.Retry.MaxAttempts < 0 {
		v.addError("resilience.retry.max_attempts", "max_attempts must be non-negative")
	}
	if config.Resilience.Retry.Multiplier < 0 {
		v.addError("resilience.retry.multiplier", "multiplier must be non-negative")
	}
	if config.Resilience.CircuitBreaker.Threshold < 0 {
		v.addError("resilience.circuit_breaker.threshold", "threshold must be non-negative")
	}
	if config.Resilience.Bulkhead.MaxConcurrent < 0 {
		v.addError("resilience.bulkhead.max_concurrent", "max_concurrent must be non-negative")
	}
}

func (v *Validator) validateInterrupts(config *AgentConfig) {
	if config.Interrupts.Inertia < 0 || config.Interrupts.Inertia > 1 {
		v.addError("interrupts.inertia", "inertia must be between 0 and 1")
	}
}

func (v *Validator) validateLogging(config *AgentConfig) {
	if config.Logging.Level != "" {
		validLevels := map[string]bool{
			"trace": true, "debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[strings.ToLower(config.Logging.Level)] {
			v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
		}
	}
	if config.Logging.Format != "" {
		validFormats := map[string]bool{"json": true, "console": true}
		if !validFormats[strings.ToLower(config.Logging.Format)] {
			v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
		}
	}
}
