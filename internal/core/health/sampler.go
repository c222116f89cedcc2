package health

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// MemoryUsage holds the current memory figures of the process, in bytes.
type MemoryUsage struct {
	RSS        uint64 `json:"rss,omitempty"`
	HeapTotal  uint64 `json:"heapTotal"`
	HeapUsed   uint64 `json:"heapUsed"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

// MemoryProbe publishes the latest memory usage.
type MemoryProbe interface {
	MemoryUsage() (MemoryUsage, bool)
}

// LagProbe publishes the latest scheduling lag.
type LagProbe interface {
	Lag() (time.Duration, bool)
}

// CPUProbe publishes the latest CPU utilisation in percent of one core.
type CPUProbe interface {
	CPUUsage() (float64, bool)
}

// LeakWatchdog delivers opaque leak descriptions to registered handlers.
type LeakWatchdog interface {
	OnLeak(fn func(payload any))
}

// Snapshot is the process section of a report.
type Snapshot struct {
	Memory    MemorySection    `json:"memory"`
	EventLoop EventLoopSection `json:"eventLoop"`
	CPU       CPUSection       `json:"cpu"`
}

// MemorySection holds memory usage and the last leak event.
type MemorySection struct {
	Usage *MemoryUsage `json:"usage,omitempty"`
	Leak  any          `json:"leak,omitempty"`
}

// EventLoopSection holds the scheduling lag in milliseconds.
type EventLoopSection struct {
	Latency *float64 `json:"latency,omitempty"`
}

// CPUSection holds the CPU utilisation in percent.
type CPUSection struct {
	Usage *float64 `json:"usage,omitempty"`
}

type leakCell struct {
	payload any
	at      time.Time
}

// Sampler combines the probes into a Snapshot.
type Sampler struct {
	clock  clock.Clock
	memory MemoryProbe
	lag    LagProbe
	cpu    CPUProbe

	leak atomic.Pointer[leakCell]
}

// NewSampler creates a sampler. Any probe may be nil, and a nil clk uses
// the wall clock. When watchdog is not nil the sampler subscribes to it
// once, here.
func NewSampler(clk clock.Clock, memory MemoryProbe, lag LagProbe, cpu CPUProbe, watchdog LeakWatchdog) *Sampler {
	if clk == nil {
		clk = clock.New()
	}
	s := &Sampler{
		clock:  clk,
		memory: memory,
		lag:    lag,
		cpu:    cpu,
	}
	if watchdog != nil {
		watchdog.OnLeak(s.storeLeak)
	}
	return s
}

func (s *Sampler) storeLeak(payload any) {
	s.leak.Store(&leakCell{payload: payload, at: s.clock.Now()})
}

// LastLeak returns the most recent leak payload and when it was received.
func (s *Sampler) LastLeak() (any, time.Time, bool) {
	c := s.leak.Load()
	if c == nil {
		return nil, time.Time{}, false
	}
	return c.payload, c.at, true
}

// Reading returns the current process health. It never fails.
func (s *Sampler) Reading() Snapshot {
	var snap Snapshot

	if s.memory != nil {
		if u, ok := s.memory.MemoryUsage(); ok {
			snap.Memory.Usage = &u
		}
	}
	if payload, _, ok := s.LastLeak(); ok {
		snap.Memory.Leak = payload
	}
	if s.lag != nil {
		if d, ok := s.lag.Lag(); ok {
			ms := float64(d) / float64(time.Millisecond)
			snap.EventLoop.Latency = &ms
		}
	}
	if s.cpu != nil {
		if pct, ok := s.cpu.CPUUsage(); ok {
			snap.CPU.Usage = &pct
		}
	}

	return snap
}
