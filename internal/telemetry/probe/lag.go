package probe

import (
	"context"
	"sync/atomic"
	"time"
)

// Lag measures how late a timer fires compared to its deadline. A busy or
// starved scheduler shows up as a growing overshoot.
type Lag struct {
	opts     options
	interval time.Duration
	latest   atomic.Int64
	ready    atomic.Bool
}

// NewLag creates a lag probe arming a timer every interval.
func NewLag(interval time.Duration, opts ...Option) *Lag {
	return &Lag{
		opts:     newOptions(opts),
		interval: interval,
	}
}

// Run measures until ctx is cancelled.
func (l *Lag) Run(ctx context.Context) error {
	clk := l.opts.clock
	for {
		start := clk.Now()
		timer := clk.Timer(l.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		l.Observe(clk.Since(start))
	}
}

// Observe records a timer that fired after elapsed instead of interval.
func (l *Lag) Observe(elapsed time.Duration) {
	lag := elapsed - l.interval
	if lag < 0 {
		lag = 0
	}
	l.latest.Store(int64(lag))
	l.ready.Store(true)
}

// Lag implements health.LagProbe.
func (l *Lag) Lag() (time.Duration, bool) {
	if !l.ready.Load() {
		return 0, false
	}
	return time.Duration(l.latest.Load()), true
}
