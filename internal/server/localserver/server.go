package localserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"
)

// ErrSocketInUse is returned when another process answers on the socket.
var ErrSocketInUse = errors.New("localserver: socket in use")

// Server represents the local management server.
type Server struct {
	path   string
	srv    *http.Server
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a local server for handler on socketPath.
func New(socketPath string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		path:   socketPath,
		logger: logger,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Listen creates the socket. A stale socket file left by a crashed process
// is removed; a live one is not.
func (s *Server) Listen() error {
	if err := s.removeStale(); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("localserver: listen %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("localserver: chmod %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

func (s *Server) removeStale() error {
	info, err := os.Lstat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: stat %s: %w", s.path, err)
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", s.path)
	}

	if conn, err := net.DialTimeout("unix", s.path, time.Second); err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrSocketInUse, s.path)
	}

	s.logger.Info("removing stale socket", "path", s.path)
	return os.Remove(s.path)
}

// Serve serves requests until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("localserver: Serve called before Listen")
	}

	err := s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe is Listen followed by Serve.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown drains in-flight requests and removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)

	// Serve may never have run; close the listener ourselves.
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		err = errors.Join(err, rmErr)
	}
	return err
}
