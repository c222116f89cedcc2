package probe

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// CPU computes process CPU utilisation between two samples, in percent of
// one core. It needs two samples before it reports anything.
type CPU struct {
	opts     options
	interval time.Duration

	mu       sync.Mutex
	lastCPU  float64
	lastWall time.Time
	primed   bool

	usage atomic.Uint64 // math.Float64bits of the last utilisation
	ready atomic.Bool
	warn  atomic.Bool
}

// NewCPU creates a CPU probe sampling every interval.
func NewCPU(interval time.Duration, opts ...Option) *CPU {
	return &CPU{
		opts:     newOptions(opts),
		interval: interval,
	}
}

// Run samples until ctx is cancelled.
func (c *CPU) Run(ctx context.Context) error {
	return every(ctx, c.opts.clock, c.interval, c.Sample)
}

// Sample reads the CPU time at now and publishes the utilisation since the
// previous sample.
func (c *CPU) Sample(now time.Time) {
	total, err := c.opts.cpuTime()
	if err != nil {
		if c.warn.CompareAndSwap(false, true) {
			c.opts.logger.Debug("cpu time unavailable, cpu usage will be omitted", "error", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.primed {
		wall := now.Sub(c.lastWall).Seconds()
		if wall > 0 {
			pct := (total - c.lastCPU) / wall * 100
			if pct < 0 {
				pct = 0
			}
			c.usage.Store(math.Float64bits(pct))
			c.ready.Store(true)
		}
	}
	c.lastCPU = total
	c.lastWall = now
	c.primed = true
}

// CPUUsage implements health.CPUProbe.
func (c *CPU) CPUUsage() (float64, bool) {
	if !c.ready.Load() {
		return 0, false
	}
	return math.Float64frombits(c.usage.Load()), true
}
