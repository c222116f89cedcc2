package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Step releases one resource. It must return once ctx is done.
type Step func(ctx context.Context) error

type step struct {
	name string
	fn   Step
}

// Stack unwinds cleanup steps, last pushed first, when the process stops.
type Stack struct {
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	steps  []step
	ran    bool
	result error
	done   chan struct{}
}

// NewStack returns a Stack whose unwinding is bounded by timeout. A nil
// logger uses slog.Default().
func NewStack(timeout time.Duration, logger *slog.Logger) *Stack {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stack{timeout: timeout, logger: logger, done: make(chan struct{})}
}

// Push adds a step. Steps pushed after Unwind are ignored.
func (s *Stack) Push(name string, fn Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ran {
		s.logger.Warn("shutdown step pushed too late", "step", name)
		return
	}
	s.steps = append(s.steps, step{name: name, fn: fn})
}

// Await blocks until SIGINT, SIGTERM or the end of ctx, then unwinds.
func (s *Stack) Await(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	<-sigCtx.Done()
	stop()

	if ctx.Err() != nil {
		s.logger.Info("shutdown requested", "reason", context.Cause(ctx))
	} else {
		s.logger.Info("shutdown signal received")
	}
	return s.Unwind()
}

// Unwind runs every step once, newest first, and joins their errors. A
// failing step does not stop the rest. Later calls return the first result.
func (s *Stack) Unwind() error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		<-s.done
		return s.result
	}
	s.ran = true
	steps := s.steps
	s.steps = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := s.run(ctx, steps[i]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", steps[i].name, err))
		}
	}

	s.result = errors.Join(errs...)
	close(s.done)
	return s.result
}

func (s *Stack) run(ctx context.Context, st step) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			s.logger.Error("shutdown step failed", "step", st.name, "error", err)
			return
		}
		s.logger.Debug("shutdown step done", "step", st.name, "elapsed", time.Since(start))
	}()
	return st.fn(ctx)
}

// Done is closed once Unwind has finished.
func (s *Stack) Done() <-chan struct{} {
	return s.done
}

// OnSignal calls fn for every delivery of sigs until ctx ends. The server
// uses it with SIGHUP to re-read its configuration.
func OnSignal(ctx context.Context, fn func(os.Signal), sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			fn(sig)
		}
	}
}
