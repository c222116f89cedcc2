package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/procfs"
)

// Runner is a probe loop. Run blocks until ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// CPUTimeFunc returns the total user+system CPU seconds of the process.
type CPUTimeFunc func() (float64, error)

// RSSFunc returns the resident set size of the process in bytes.
type RSSFunc func() (uint64, error)

// HeapFunc returns the live heap after the last GC and the number of
// completed GC cycles. ok is false when the runtime does not expose them.
type HeapFunc func() (live, cycles uint64, ok bool)

type options struct {
	clock   clock.Clock
	logger  *slog.Logger
	cpuTime CPUTimeFunc
	rss     RSSFunc
	heap    HeapFunc
}

// Option configures a probe.
type Option func(*options)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCPUTimeFunc replaces the procfs CPU time reader.
func WithCPUTimeFunc(fn CPUTimeFunc) Option {
	return func(o *options) { o.cpuTime = fn }
}

// WithRSSFunc replaces the procfs RSS reader.
func WithRSSFunc(fn RSSFunc) Option {
	return func(o *options) { o.rss = fn }
}

// WithHeapFunc replaces the runtime/metrics heap reader.
func WithHeapFunc(fn HeapFunc) Option {
	return func(o *options) { o.heap = fn }
}

func newOptions(opts []Option) options {
	o := options{
		clock:   clock.New(),
		logger:  slog.Default(),
		cpuTime: procCPUTime,
		rss:     procRSS,
		heap:    runtimeHeap,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// every calls fn immediately and then on each tick until ctx is cancelled.
func every(ctx context.Context, clk clock.Clock, interval time.Duration, fn func(now time.Time)) error {
	fn(clk.Now())

	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn(now)
		}
	}
}

func procCPUTime() (float64, error) {
	p, err := procfs.Self()
	if err != nil {
		return 0, err
	}
	stat, err := p.Stat()
	if err != nil {
		return 0, err
	}
	return stat.CPUTime(), nil
}

func procRSS() (uint64, error) {
	p, err := procfs.Self()
	if err != nil {
		return 0, err
	}
	stat, err := p.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(stat.ResidentMemory()), nil
}
