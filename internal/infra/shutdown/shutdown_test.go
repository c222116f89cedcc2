package shutdown

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

// recorder collects step names in the order they ran.
type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) step(name string) Step {
	return func(context.Context) error {
		r.mu.Lock()
		r.seen = append(r.seen, name)
		r.mu.Unlock()
		return nil
	}
}

func (r *recorder) order() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.seen, ",")
}

func TestStack_UnwindsNewestFirst(t *testing.T) {
	s := NewStack(time.Second, nil)
	var rec recorder
	for _, name := range []string{"registry", "local", "http"} {
		s.Push(name, rec.step(name))
	}

	if err := s.Unwind(); err != nil {
		t.Fatalf("Unwind() = %v", err)
	}
	if got := rec.order(); got != "http,local,registry" {
		t.Errorf("order = %s, want http,local,registry", got)
	}

	select {
	case <-s.Done():
	default:
		t.Error("Done not closed after Unwind")
	}
}

func TestStack_UnwindOnce(t *testing.T) {
	s := NewStack(time.Second, nil)
	var rec recorder
	s.Push("a", rec.step("a"))

	_ = s.Unwind()
	_ = s.Unwind()

	if got := rec.order(); got != "a" {
		t.Errorf("order = %q, want a single run", got)
	}
}

func TestStack_PushAfterUnwindIgnored(t *testing.T) {
	s := NewStack(time.Second, nil)
	_ = s.Unwind()

	var rec recorder
	s.Push("late", rec.step("late"))
	_ = s.Unwind()

	if got := rec.order(); got != "" {
		t.Errorf("late step ran: %q", got)
	}
}

func TestStack_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		step    Step
		wantErr string
		wantIs  error
	}{
		{
			name:    "error",
			step:    func(context.Context) error { return boom },
			wantErr: "failing: boom",
			wantIs:  boom,
		},
		{
			name:    "panic",
			step:    func(context.Context) error { panic("bad state") },
			wantErr: "failing: panic: bad state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStack(time.Second, nil)
			var rec recorder
			s.Push("first", rec.step("first"))
			s.Push("failing", tt.step)

			err := s.Unwind()
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("Unwind() = %v, want %q", err, tt.wantErr)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
			if rec.order() != "first" {
				t.Error("a failing step stopped the rest")
			}
		})
	}
}

func TestStack_Timeout(t *testing.T) {
	s := NewStack(20*time.Millisecond, nil)
	s.Push("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err := s.Unwind(); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Unwind() = %v, want deadline exceeded", err)
	}
}

func TestStack_AwaitContext(t *testing.T) {
	s := NewStack(time.Second, nil)
	var rec recorder
	s.Push("hook", rec.step("hook"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Await(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Await() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Await did not return")
	}
	if rec.order() != "hook" {
		t.Error("step did not run")
	}
}

func TestStack_AwaitSignal(t *testing.T) {
	s := NewStack(time.Second, nil)
	var rec recorder
	s.Push("hook", rec.step("hook"))

	errCh := make(chan error, 1)
	go func() { errCh <- s.Await(context.Background()) }()

	// Let Await install its handler first.
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Await() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Await did not return after SIGTERM")
	}
	if rec.order() != "hook" {
		t.Error("step did not run")
	}
}

func TestOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan os.Signal, 1)
	stopped := make(chan struct{})

	go func() {
		OnSignal(ctx, func(sig os.Signal) {
			select {
			case got <- sig:
			default:
			}
		}, syscall.SIGHUP)
		close(stopped)
	}()

	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case sig := <-got:
		if sig != syscall.SIGHUP {
			t.Errorf("signal = %v, want SIGHUP", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("OnSignal did not return")
	}
}

func TestStack_ConcurrentPush(t *testing.T) {
	s := NewStack(time.Second, nil)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Push("noop", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	s.mu.Lock()
	n := len(s.steps)
	s.mu.Unlock()
	if n != 10 {
		t.Errorf("steps = %d, want 10", n)
	}
}
