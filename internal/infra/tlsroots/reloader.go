package tlsroots

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a certificate rotation
// produces (key and cert written separately).
const DefaultDebounce = 500 * time.Millisecond

// CertReloader serves the current server certificate and replaces it when
// the key pair on disk changes. A failed reload keeps the previous pair.
type CertReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	clock    clock.Clock
	debounce time.Duration

	mu   sync.RWMutex
	cert *tls.Certificate

	reloadMu   sync.Mutex
	lastReload time.Time
}

// ReloaderOption configures a CertReloader.
type ReloaderOption func(*CertReloader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ReloaderOption {
	return func(r *CertReloader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDebounce sets the minimum interval between file triggered reloads.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *CertReloader) {
		r.debounce = d
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c clock.Clock) ReloaderOption {
	return func(r *CertReloader) {
		r.clock = c
	}
}

// NewCertReloader loads the key pair and returns a reloader serving it.
func NewCertReloader(certFile, keyFile string, opts ...ReloaderOption) (*CertReloader, error) {
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default(),
		clock:    clock.New(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return r, nil
}

// Reload re-reads the key pair.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	r.logger.Info("certificate loaded", "cert_file", r.certFile)
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// ServerConfig returns a TLS configuration serving the current certificate.
func (r *CertReloader) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// Watch reloads the pair whenever either file is written or replaced. It
// blocks until ctx is done.
func (r *CertReloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer watcher.Close()

	// Directories, not files, so renames into place are seen.
	dirs := map[string]struct{}{
		filepath.Dir(r.certFile): {},
		filepath.Dir(r.keyFile):  {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	certBase := filepath.Base(r.certFile)
	keyBase := filepath.Base(r.keyFile)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if base != certBase && base != keyBase {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := r.debouncedReload(); err != nil {
				r.logger.Error("certificate reload failed",
					"error", err,
					"cert_file", r.certFile,
				)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("certificate watcher error", "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// debouncedReload skips reloads within the debounce window of the last
// successful one. Failures do not arm the window, so a half-written pair
// is retried on the next event.
func (r *CertReloader) debouncedReload() error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	now := r.clock.Now()
	if !r.lastReload.IsZero() && now.Sub(r.lastReload) < r.debounce {
		return nil
	}
	if err := r.Reload(); err != nil {
		return err
	}
	r.lastReload = now
	return nil
}
