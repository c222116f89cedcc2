package httpserver

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// Option configures a Server.
type Option func(*http.Server)

// WithTimeouts sets the read and write timeouts. Zero leaves a value unset.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *http.Server) {
		if read > 0 {
			s.ReadTimeout = read
			s.ReadHeaderTimeout = read
		}
		if write > 0 {
			s.WriteTimeout = write
		}
	}
}

// WithLogger routes net/http's internal errors to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *http.Server) {
		if logger != nil {
			s.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
		}
	}
}

// WithTLSConfig sets the TLS configuration, typically one whose
// GetCertificate serves a reloadable certificate.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *http.Server) {
		s.TLSConfig = cfg
	}
}

// New creates a new HTTP server.
func New(addr string, handler http.Handler, opts ...Option) *Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return &Server{
		httpServer: srv,
		handler:    handler,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ListenAndServeTLS starts the HTTPS server. Both files may be empty when
// the TLS configuration supplies the certificate.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
