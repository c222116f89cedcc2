package probe

import (
	"context"
	"fmt"
	"runtime/metrics"
	"slices"
	"sync"
	"time"
)

// DefaultLeakCycles is the number of consecutive growing GC cycles that
// raise a leak event.
const DefaultLeakCycles = 5

// LeakEvent describes a suspected leak.
type LeakEvent struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Growth uint64    `json:"growth"`
	Reason string    `json:"reason"`
}

// Leak watches the live heap after every GC cycle.
type Leak struct {
	opts     options
	interval time.Duration
	cycles   int

	mu         sync.Mutex
	handlers   []func(any)
	started    bool
	lastCycles uint64
	lastLive   uint64
	base       uint64
	baseAt     time.Time
	streak     int
}

// NewLeak creates a watchdog polling the runtime every interval. cycles
// below 1 falls back to DefaultLeakCycles.
func NewLeak(interval time.Duration, cycles int, opts ...Option) *Leak {
	if cycles < 1 {
		cycles = DefaultLeakCycles
	}
	return &Leak{
		opts:     newOptions(opts),
		interval: interval,
		cycles:   cycles,
	}
}

// OnLeak implements health.LeakWatchdog.
func (l *Leak) OnLeak(fn func(payload any)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, fn)
}

// Run polls until ctx is cancelled.
func (l *Leak) Run(ctx context.Context) error {
	return every(ctx, l.opts.clock, l.interval, func(now time.Time) {
		live, cycles, ok := l.opts.heap()
		if ok {
			l.Observe(now, live, cycles)
		}
	})
}

// Observe feeds one heap reading. Readings without a new GC cycle are ignored.
func (l *Leak) Observe(now time.Time, live, cycles uint64) {
	l.mu.Lock()

	if !l.started {
		l.started = true
		l.lastCycles, l.lastLive = cycles, live
		l.base, l.baseAt = live, now
		l.mu.Unlock()
		return
	}
	if cycles == l.lastCycles {
		l.mu.Unlock()
		return
	}
	l.lastCycles = cycles

	if live > l.lastLive {
		l.streak++
	} else {
		l.streak = 0
		l.base, l.baseAt = live, now
	}
	l.lastLive = live

	if l.streak < l.cycles {
		l.mu.Unlock()
		return
	}

	ev := LeakEvent{
		Start:  l.baseAt,
		End:    now,
		Growth: live - l.base,
		Reason: fmt.Sprintf("heap growth over %d consecutive GCs", l.streak),
	}
	l.streak = 0
	l.base, l.baseAt = live, now
	handlers := slices.Clone(l.handlers)
	l.mu.Unlock()

	l.opts.logger.Warn("possible memory leak detected",
		"growth_bytes", ev.Growth,
		"since", ev.Start,
	)
	for _, h := range handlers {
		h(ev)
	}
}

func runtimeHeap() (uint64, uint64, bool) {
	samples := []metrics.Sample{
		{Name: "/gc/heap/live:bytes"},
		{Name: "/gc/cycles/total:gc-cycles"},
	}
	metrics.Read(samples)
	for _, s := range samples {
		if s.Value.Kind() != metrics.KindUint64 {
			return 0, 0, false
		}
	}
	return samples[0].Value.Uint64(), samples[1].Value.Uint64(), true
}
