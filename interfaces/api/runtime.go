// Package api assembles the agent runtime from a configuration: storage
// backends, the planning service, interceptors, and the agents themselves.
// It is the embedding surface for hosts that drive agents from their own
// loop instead of the CLI.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/voxmind/voxmind/application"
	"github.com/voxmind/voxmind/domain/action"
	"github.com/voxmind/voxmind/domain/agent"
	"github.com/voxmind/voxmind/domain/cache"
	"github.com/voxmind/voxmind/domain/config"
	"github.com/voxmind/voxmind/domain/effector"
	domevent "github.com/voxmind/voxmind/domain/event"
	dominterceptor "github.com/voxmind/voxmind/domain/interceptor"
	"github.com/voxmind/voxmind/domain/plan"
	"github.com/voxmind/voxmind/domain/reactive"
	"github.com/voxmind/voxmind/infrastructure/interceptor"
	"github.com/voxmind/voxmind/infrastructure/logging"
	"github.com/voxmind/voxmind/infrastructure/planner"
	"github.com/voxmind/voxmind/infrastructure/resilience"
	"github.com/voxmind/voxmind/infrastructure/storage/badger"
	"github.com/voxmind/voxmind/infrastructure/storage/memory"
	"github.com/voxmind/voxmind/infrastructure/storage/redis"
	"github.com/voxmind/voxmind/infrastructure/storage/sqlite"
	"github.com/voxmind/voxmind/infrastructure/telemetry"
)

// Runtime is a fully wired agent stack built from an AgentConfig.
type Runtime struct {
	core    *application.Core
	agent   *application.Agent
	bus     *domevent.Bus
	journal *badger.Journal
	planner *planner.Service
	store   agent.SnapshotStore
	metrics telemetry.Metrics

	journalDone chan struct{}
	closers     []func() error
}

// RuntimeOption overrides pieces of the configured wiring.
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	effector effector.Effector
	provider planner.Provider
	selector *reactive.Selector
}

// WithEffector installs the world the agent acts on. Required unless the
// host only exercises planning.
func WithEffector(eff effector.Effector) RuntimeOption {
	return func(o *runtimeOptions) {
		o.effector = eff
	}
}

// WithProvider overrides the configured planning provider.
func WithProvider(p planner.Provider) RuntimeOption {
	return func(o *runtimeOptions) {
		o.provider = p
	}
}

// WithSelector overrides the default interrupt candidates.
func WithSelector(s *reactive.Selector) RuntimeOption {
	return func(o *runtimeOptions) {
		o.selector = s
	}
}

// NewRuntime builds the runtime described by the configuration.
func NewRuntime(cfg *config.AgentConfig, opts ...RuntimeOption) (*Runtime, error) {
	options := runtimeOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.effector == nil {
		return nil, fmt.Errorf("runtime requires an effector")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	rt := &Runtime{
		core:    application.NewCore(),
		bus:     domevent.NewBus(),
		metrics: &telemetry.NoopMetricsProvider{},
	}
	// journalDone starts closed; buildJournal swaps in a live channel.
	rt.journalDone = make(chan struct{})
	close(rt.journalDone)

	if cfg.Telemetry.Enabled {
		rt.metrics = telemetry.NewMetricsProvider(telemetry.MetricsConfig{
			MeterName: cfg.Telemetry.MeterName,
		})
	}

	planCache, err := rt.buildCache(cfg)
	if err != nil {
		return nil, err
	}
	store, err := rt.buildSnapshotStore(cfg)
	if err != nil {
		return nil, rt.closeWith(err)
	}
	rt.store = store

	if cfg.Journal.Enabled {
		if err := rt.buildJournal(cfg); err != nil {
			return nil, rt.closeWith(err)
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = buildProvider(cfg)
		if err != nil {
			return nil, rt.closeWith(err)
		}
	}
	rt.planner = planner.NewService(planner.ServiceConfig{
		Cache:   planCache,
		Batcher: buildBatcher(cfg, provider, rt.metrics),
		Metrics: rt.metrics,
	})
	rt.closers = append(rt.closers, func() error {
		rt.planner.Close()
		return nil
	})

	registry, err := action.NewRegistry(action.Builtins())
	if err != nil {
		return nil, rt.closeWith(err)
	}

	selector := options.selector
	if selector == nil && cfg.Interrupts.Enabled {
		selector = defaultSelector()
	}

	chain := dominterceptor.NewChain(
		interceptor.NewLogging(),
		interceptor.NewMetrics(rt.metrics),
		interceptor.NewEvents(rt.bus),
	)

	agentOpts := []application.AgentOption{
		application.WithInterceptors(chain),
		application.WithBus(rt.bus),
		application.WithSnapshotStore(store),
		application.WithMetrics(rt.metrics),
		application.WithInertia(cfg.Interrupts.Inertia),
	}
	if selector != nil {
		agentOpts = append(agentOpts, application.WithSelector(selector))
	}
	if cfg.Agent.StackDepth > 0 {
		agentOpts = append(agentOpts, application.WithStackDepth(cfg.Agent.StackDepth))
	}
	if cfg.Agent.MaxActionRetries > 0 {
		agentOpts = append(agentOpts, application.WithMaxAttempts(cfg.Agent.MaxActionRetries))
	}

	a, err := application.NewAgent(cfg.Agent.ID, options.effector, rt.planner, registry, agentOpts...)
	if err != nil {
		return nil, rt.closeWith(err)
	}
	rt.agent = a
	rt.core.Register(a)
	rt.metrics.IncrementActiveAgents(context.Background())
	return rt, nil
}

// Core returns the command surface.
func (rt *Runtime) Core() *application.Core {
	return rt.core
}

// Agent returns the configured agent.
func (rt *Runtime) Agent() *application.Agent {
	return rt.agent
}

// Bus returns the runtime event bus.
func (rt *Runtime) Bus() *domevent.Bus {
	return rt.bus
}

// Journal returns the persistent event journal, or nil when disabled.
func (rt *Runtime) Journal() *badger.Journal {
	return rt.journal
}

// Submit routes a command to the configured agent.
func (rt *Runtime) Submit(ctx context.Context, command string, snap plan.Snapshot) (application.Ack, error) {
	return rt.core.SubmitCommand(ctx, rt.agent.ID(), command, snap)
}

// Tick advances the agent one cycle.
func (rt *Runtime) Tick(ctx context.Context, facts reactive.Facts) {
	rt.agent.Tick(ctx, facts)
}

// Close tears the runtime down in reverse construction order.
func (rt *Runtime) Close() error {
	rt.metrics.DecrementActiveAgents(context.Background())
	rt.core.Close()
	rt.bus.Close()
	<-rt.journalDone

	var firstErr error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (rt *Runtime) closeWith(err error) error {
	rt.bus.Close()
	<-rt.journalDone
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	return err
}

func (rt *Runtime) buildCache(cfg *config.AgentConfig) (cache.PlanCache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		c, err := redis.NewCache(redis.Config{
			Address:   cfg.Cache.Redis.Address,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
			PoolSize:  cfg.Cache.Redis.PoolSize,
			TTL:       time.Duration(cfg.Cache.TTL),
			StaleTTL:  time.Duration(cfg.Cache.StaleTTL),
		})
		if err != nil {
			return nil, fmt.Errorf("building redis cache: %w", err)
		}
		rt.closers = append(rt.closers, c.Close)
		return c, nil
	default:
		var opts []memory.CacheOption
		if cfg.Cache.Capacity > 0 {
			opts = append(opts, memory.WithCapacity(cfg.Cache.Capacity))
		}
		if cfg.Cache.TTL > 0 {
			opts = append(opts, memory.WithTTL(time.Duration(cfg.Cache.TTL)))
		}
		return memory.NewCache(opts...), nil
	}
}

func (rt *Runtime) buildSnapshotStore(cfg *config.AgentConfig) (agent.SnapshotStore, error) {
	switch cfg.Snapshots.Backend {
	case "sqlite":
		s, err := sqlite.NewSnapshotStore(sqlite.Config{
			DSN:         cfg.Snapshots.DSN,
			AutoMigrate: true,
		})
		if err != nil {
			return nil, fmt.Errorf("building sqlite snapshot store: %w", err)
		}
		rt.closers = append(rt.closers, s.Close)
		return s, nil
	default:
		return memory.NewSnapshotStore(), nil
	}
}

// buildJournal opens the badger event journal and bridges the bus into it.
func (rt *Runtime) buildJournal(cfg *config.AgentConfig) error {
	var opts []badger.Option
	if cfg.Journal.InMemory {
		opts = append(opts, badger.WithInMemory())
	} else {
		opts = append(opts, badger.WithDir(cfg.Journal.Dir))
	}
	journal, err := badger.NewJournal(badger.DefaultConfig(), opts...)
	if err != nil {
		return fmt.Errorf("opening event journal: %w", err)
	}
	rt.journal = journal
	rt.closers = append(rt.closers, journal.Close)
	rt.journalDone = make(chan struct{})

	events := rt.bus.Subscribe(256)
	go func() {
		defer close(rt.journalDone)
		for e := range events {
			if err := journal.Append(context.Background(), e); err != nil {
				logging.Warn().
					Add(logging.Component("journal")).
					Add(logging.ErrorField(err)).
					Msg("event append failed")
			}
		}
	}()
	return nil
}

func buildProvider(cfg *config.AgentConfig) (planner.Provider, error) {
	switch cfg.Planner.Provider {
	case "ollama":
		return planner.NewOllamaProvider(planner.OllamaConfig{
			BaseURL: cfg.Planner.BaseURL,
			Model:   cfg.Planner.Model,
		}), nil
	case "scripted", "":
		return planner.NewScriptedProvider(), nil
	default:
		return nil, fmt.Errorf("unknown planner provider %q", cfg.Planner.Provider)
	}
}

func buildBatcher(cfg *config.AgentConfig, provider planner.Provider, metrics telemetry.Metrics) *planner.Batcher {
	exec := resilience.NewExecutorWithOptions[map[string]*plan.CachedPlan](
		resilience.WithCallTimeout(time.Duration(cfg.Resilience.Timeout)),
		resilience.WithRetryAttempts(cfg.Resilience.Retry.MaxAttempts),
		resilience.WithRetryDelay(time.Duration(cfg.Resilience.Retry.InitialDelay)),
		resilience.WithCircuitBreakerThreshold(cfg.Resilience.CircuitBreaker.Threshold),
		resilience.WithCircuitBreakerTimeout(time.Duration(cfg.Resilience.CircuitBreaker.Timeout)),
		resilience.WithMaxConcurrent(cfg.Resilience.Bulkhead.MaxConcurrent),
		resilience.WithCircuitObserver(func(open bool) {
			metrics.RecordCircuitBreakerStateChange(context.Background(), "planner", open)
		}),
	)
	return planner.NewBatcher(planner.BatcherConfig{
		Provider:    provider,
		Executor:    exec,
		Model:       cfg.Planner.Model,
		Temperature: cfg.Planner.Temperature,
		MaxTokens:   cfg.Planner.MaxTokens,
		Window:      time.Duration(cfg.Planner.BatchWindow),
		MaxBatch:    cfg.Planner.MaxBatch,
	})
}

// defaultSelector is the survival candidate set used when the host does
// not supply one: flee while hostiles close in, abandon the plan outright
// on critical health.
func defaultSelector() *reactive.Selector {
	return reactive.NewSelector(
		reactive.Candidate{
			ID:       "flee-hostiles",
			Severity: reactive.SeveritySoft,
			Considerations: []reactive.Consideration{{
				Weight: 1,
				Curve:  reactive.Quadratic(),
				Input:  func(f reactive.Facts) float64 { return f["hostile_proximity"] },
			}},
		},
		reactive.Candidate{
			ID:       "emergency-health",
			Severity: reactive.SeverityCritical,
			Considerations: []reactive.Consideration{{
				Weight: 1,
				Curve:  reactive.Inverse(),
				Input:  func(f reactive.Facts) float64 { return f["health"] },
			}},
		},
	)
}
