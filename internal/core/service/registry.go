package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/meterd/internal/core/aggregate"
	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/internal/core/health"
	"github.com/yndnr/meterd/internal/telemetry/probe"
)

// Default probe cadences.
const (
	DefaultMemoryInterval = 5 * time.Second
	DefaultCPUInterval    = 5 * time.Second
	DefaultLagInterval    = 500 * time.Millisecond
	DefaultLeakInterval   = 10 * time.Second
)

// ErrAlreadyStarted is returned by Start when the probes are running.
var ErrAlreadyStarted = errors.New("registry already started")

// Probes is the set of process sensors behind the health sampler.
// Runners are started by Registry.Start; sensors without a runner are
// expected to publish on their own.
type Probes struct {
	Memory  health.MemoryProbe
	Lag     health.LagProbe
	CPU     health.CPUProbe
	Leak    health.LeakWatchdog
	Runners []probe.Runner
}

// RegistryConfig holds configuration for Registry.
type RegistryConfig struct {
	// Clock drives meter rates and probe tickers (default: wall clock).
	Clock clock.Clock

	// Logger receives rejected events and probe failures (default: slog.Default()).
	Logger *slog.Logger

	// Shards is the shard count of each aggregation tree.
	Shards int

	MemoryInterval time.Duration
	CPUInterval    time.Duration
	LagInterval    time.Duration
	LeakInterval   time.Duration

	// LeakGCCycles is the number of consecutive growing GC cycles that
	// count as a leak.
	LeakGCCycles int

	// Probes replaces the default procfs/runtime probes when set.
	Probes *Probes
}

// DefaultRegistryConfig returns default configuration.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MemoryInterval: DefaultMemoryInterval,
		CPUInterval:    DefaultCPUInterval,
		LagInterval:    DefaultLagInterval,
		LeakInterval:   DefaultLeakInterval,
		LeakGCCycles:   probe.DefaultLeakCycles,
	}
}

// Registry owns the internal and API aggregation trees and the process
// health sampler. Producers record into it, the Coordinator reads from it.
type Registry struct {
	clock  clock.Clock
	logger *slog.Logger

	internal *aggregate.InternalFamily
	api      *aggregate.APIFamily
	sampler  *health.Sampler
	runners  []probe.Runner

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a registry. Zero fields of cfg take their defaults.
func NewRegistry(cfg RegistryConfig) *Registry {
	def := DefaultRegistryConfig()
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MemoryInterval <= 0 {
		cfg.MemoryInterval = def.MemoryInterval
	}
	if cfg.CPUInterval <= 0 {
		cfg.CPUInterval = def.CPUInterval
	}
	if cfg.LagInterval <= 0 {
		cfg.LagInterval = def.LagInterval
	}
	if cfg.LeakInterval <= 0 {
		cfg.LeakInterval = def.LeakInterval
	}
	if cfg.LeakGCCycles <= 0 {
		cfg.LeakGCCycles = def.LeakGCCycles
	}

	probes := cfg.Probes
	if probes == nil {
		probes = defaultProbes(cfg)
	}

	treeOpts := []aggregate.Option{aggregate.WithClock(cfg.Clock)}
	if cfg.Shards > 0 {
		treeOpts = append(treeOpts, aggregate.WithShards(cfg.Shards))
	}

	return &Registry{
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		internal: aggregate.NewInternalFamily(treeOpts...),
		api:      aggregate.NewAPIFamily(treeOpts...),
		sampler:  health.NewSampler(cfg.Clock, probes.Memory, probes.Lag, probes.CPU, probes.Leak),
		runners:  probes.Runners,
	}
}

func defaultProbes(cfg RegistryConfig) *Probes {
	opts := []probe.Option{
		probe.WithClock(cfg.Clock),
		probe.WithLogger(cfg.Logger.With("component", "probe")),
	}

	memory := probe.NewMemory(cfg.MemoryInterval, opts...)
	cpu := probe.NewCPU(cfg.CPUInterval, opts...)
	lag := probe.NewLag(cfg.LagInterval, opts...)
	leak := probe.NewLeak(cfg.LeakInterval, cfg.LeakGCCycles, opts...)

	return &Probes{
		Memory:  memory,
		Lag:     lag,
		CPU:     cpu,
		Leak:    leak,
		Runners: []probe.Runner{memory, cpu, lag, leak},
	}
}

// Start launches the probe loops. They stop when ctx is cancelled or
// Close is called. A registry is started at most once.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for _, run := range r.runners {
		r.wg.Add(1)
		go func(run probe.Runner) {
			defer r.wg.Done()
			if err := run.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Warn("probe stopped", "error", err)
			}
		}(run)
	}

	r.logger.Debug("registry started", "probes", len(r.runners))
	return nil
}

// Close stops the probe loops and waits for them. It is safe to call more
// than once and without Start.
func (r *Registry) Close() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// RecordInternal records the completion of an internal operation. A nil
// cause counts as success. Malformed events are rejected and not counted.
func (r *Registry) RecordInternal(ev domain.InternalEvent, cause error) error {
	key, err := domain.ResolveInternal(ev, cause)
	if err != nil {
		r.logger.Debug("internal event rejected",
			"source", ev.Source,
			"method", ev.MethodName,
			"error", err,
		)
		return err
	}
	r.internal.Record(key)
	return nil
}

// RecordAPI records one served API request. Malformed events are rejected
// and not counted.
func (r *Registry) RecordAPI(ev domain.APIEvent) error {
	key, err := domain.ResolveAPI(ev)
	if err != nil {
		r.logger.Debug("api event rejected",
			"route", ev.Route,
			"method", ev.Method,
			"error", err,
		)
		return err
	}
	r.api.Record(key)
	return nil
}

// Track starts timing an internal operation and returns the function that
// records its completion:
//
//	done := reg.Track("store", "Put")
//	err := store.Put(k, v)
//	done(err)
func (r *Registry) Track(source, method string) func(error) {
	start := r.clock.Now()
	return func(err error) {
		_ = r.RecordInternal(domain.InternalEvent{
			Source:     source,
			MethodName: method,
			StartTime:  start,
		}, err)
	}
}

// Internal returns the internal family.
func (r *Registry) Internal() *aggregate.InternalFamily {
	return r.internal
}

// API returns the API family.
func (r *Registry) API() *aggregate.APIFamily {
	return r.api
}

// Sampler returns the process health sampler.
func (r *Registry) Sampler() *health.Sampler {
	return r.sampler
}
