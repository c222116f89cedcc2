package probe

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/yndnr/meterd/internal/core/health"
)

// Memory samples Go heap statistics and the process RSS.
type Memory struct {
	opts     options
	interval time.Duration
	latest   atomic.Pointer[health.MemoryUsage]
	rssWarn  atomic.Bool
}

// NewMemory creates a memory probe sampling every interval.
func NewMemory(interval time.Duration, opts ...Option) *Memory {
	return &Memory{
		opts:     newOptions(opts),
		interval: interval,
	}
}

// Run samples until ctx is cancelled.
func (m *Memory) Run(ctx context.Context) error {
	return every(ctx, m.opts.clock, m.interval, func(time.Time) { m.Sample() })
}

// Sample takes one reading and publishes it.
func (m *Memory) Sample() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	u := health.MemoryUsage{
		HeapTotal:  ms.HeapSys,
		HeapUsed:   ms.HeapAlloc,
		Sys:        ms.Sys,
		NumGC:      ms.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}

	rss, err := m.opts.rss()
	if err == nil {
		u.RSS = rss
	} else if m.rssWarn.CompareAndSwap(false, true) {
		m.opts.logger.Debug("rss unavailable, reporting heap figures only", "error", err)
	}

	m.latest.Store(&u)
}

// MemoryUsage implements health.MemoryProbe.
func (m *Memory) MemoryUsage() (health.MemoryUsage, bool) {
	u := m.latest.Load()
	if u == nil {
		return health.MemoryUsage{}, false
	}
	return *u, true
}
