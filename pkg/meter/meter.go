package meter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Reading is a point-in-time copy of a Meter.
type Reading struct {
	Count uint64  `json:"count"`
	Rate  float64 `json:"rate"`
	Mean  float64 `json:"mean"`
	M1    float64 `json:"1MinuteRate"`
	M5    float64 `json:"5MinuteRate"`
	M15   float64 `json:"15MinuteRate"`
}

// Meter counts events and estimates their recent rate.
type Meter struct {
	clock clock.Clock
	count atomic.Uint64

	mu        sync.Mutex
	start     time.Time
	lastTick  time.Time
	uncounted uint64
	m1        ewma
	m5        ewma
	m15       ewma
}

// Option configures a Meter.
type Option func(*Meter)

// WithClock sets the time source, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(m *Meter) {
		if c != nil {
			m.clock = c
		}
	}
}

// New creates a Meter with zero count.
func New(opts ...Option) *Meter {
	m := &Meter{
		clock: clock.New(),
		m1:    newEWMA(time.Minute),
		m5:    newEWMA(5 * time.Minute),
		m15:   newEWMA(15 * time.Minute),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.start = m.clock.Now()
	m.lastTick = m.start
	return m
}

// Mark records one event.
func (m *Meter) Mark() {
	m.MarkN(1)
}

// MarkN records n events.
func (m *Meter) MarkN(n uint64) {
	if n == 0 {
		return
	}
	m.count.Add(n)

	m.mu.Lock()
	m.tickIfNeeded(m.clock.Now())
	m.uncounted += n
	m.mu.Unlock()
}

// Count returns the number of events recorded since creation.
func (m *Meter) Count() uint64 {
	return m.count.Load()
}

// Rate returns the one-minute moving average in events per second.
func (m *Meter) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickIfNeeded(m.clock.Now())
	return m.m1.rate
}

// Snapshot returns the current count and rates.
func (m *Meter) Snapshot() Reading {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.tickIfNeeded(now)
	return m.reading(now, m.count.Load())
}

// SnapshotCount is Snapshot with Count and Mean derived from count, a value
// previously returned by Count. Rates still reflect every mark so far.
func (m *Meter) SnapshotCount(count uint64) Reading {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.tickIfNeeded(now)
	return m.reading(now, count)
}

// reading must be called with m.mu held.
func (m *Meter) reading(now time.Time, count uint64) Reading {
	r := Reading{
		Count: count,
		Rate:  m.m1.rate,
		M1:    m.m1.rate,
		M5:    m.m5.rate,
		M15:   m.m15.rate,
	}
	if elapsed := now.Sub(m.start).Seconds(); elapsed > 0 {
		r.Mean = float64(r.Count) / elapsed
	}
	return r
}

// tickIfNeeded advances the moving averages by every full interval elapsed
// since the last tick. Must be called with m.mu held.
func (m *Meter) tickIfNeeded(now time.Time) {
	elapsed := now.Sub(m.lastTick)
	if elapsed < TickInterval {
		return
	}
	n := int64(elapsed / TickInterval)
	m.lastTick = m.lastTick.Add(time.Duration(n) * TickInterval)

	m.m1.tick(m.uncounted, n)
	m.m5.tick(m.uncounted, n)
	m.m15.tick(m.uncounted, n)
	m.uncounted = 0
}
