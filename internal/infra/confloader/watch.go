package confloader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before OnChange runs.
const DefaultSettle = 250 * time.Millisecond

// FileWatcher runs a callback after a file changes. Bursts of events
// (editors often write, chmod and rename in quick succession) collapse into
// one call once the file has been quiet for the settle delay.
type FileWatcher struct {
	path     string
	onChange func()
	settle   time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// WatchOption configures a FileWatcher.
type WatchOption func(*FileWatcher)

// WithSettle overrides DefaultSettle.
func WithSettle(d time.Duration) WatchOption {
	return func(w *FileWatcher) { w.settle = d }
}

// WithClock sets the clock used for the settle timer.
func WithClock(c clock.Clock) WatchOption {
	return func(w *FileWatcher) { w.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) WatchOption {
	return func(w *FileWatcher) { w.logger = l }
}

// NewFileWatcher watches path and calls onChange after edits.
func NewFileWatcher(path string, onChange func(), opts ...WatchOption) *FileWatcher {
	w := &FileWatcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		settle:   DefaultSettle,
		clock:    clock.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. It returns an error only when the watch
// cannot be set up.
func (w *FileWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("confloader: %w", err)
	}
	defer fw.Close()

	// The directory, so a file replaced by rename is still seen.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("confloader: watch %s: %w", w.path, err)
	}
	w.logger.Debug("watching configuration file", "path", w.path)

	s := settler{clock: w.clock, delay: w.settle}
	defer s.stop()

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) == w.path && ev.Has(fsnotify.Write|fsnotify.Create) {
				s.poke()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("configuration watcher error", "error", err)
		case <-s.fired():
			s.done()
			w.logger.Info("configuration file changed", "path", w.path)
			w.onChange()
		case <-ctx.Done():
			return nil
		}
	}
}

// settler is a restartable one-shot timer. fired returns nil while no
// timer is pending, so a select on it blocks.
type settler struct {
	clock   clock.Clock
	delay   time.Duration
	timer   *clock.Timer
	pending bool
}

func (s *settler) poke() {
	if s.timer == nil {
		s.timer = s.clock.Timer(s.delay)
	} else {
		s.timer.Stop()
		s.timer.Reset(s.delay)
	}
	s.pending = true
}

func (s *settler) fired() <-chan time.Time {
	if !s.pending {
		return nil
	}
	return s.timer.C
}

func (s *settler) done() { s.pending = false }

func (s *settler) stop() {
	if s.timer != nil {
		s.timer.Stop()
	}
}
