package localserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func socketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths are limited to ~100 bytes; t.TempDir can exceed it.
	dir, err := os.MkdirTemp("", "md")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func unixClient(path string) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	}
}

func startServer(t *testing.T, path string) *Server {
	t.Helper()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "local:"+r.URL.Path)
	})
	s := New(path, h, discardLogger())
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})
	return s
}

func TestServer_ServesOverSocket(t *testing.T) {
	path := socketPath(t)
	s := startServer(t, path)

	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat socket: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("socket mode = %v, want 0600", info.Mode().Perm())
	}

	resp, err := unixClient(path).Get("http://meterd/health")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "local:/health" {
		t.Errorf("body = %q", body)
	}
}

func TestServer_SocketInUse(t *testing.T) {
	path := socketPath(t)
	startServer(t, path)

	second := New(path, http.NotFoundHandler(), discardLogger())
	if err := second.Listen(); !errors.Is(err, ErrSocketInUse) {
		t.Errorf("Listen() error = %v, want ErrSocketInUse", err)
	}
}

func TestServer_RemovesStaleSocket(t *testing.T) {
	path := socketPath(t)

	// A listener that leaves its file behind, as a crashed process would.
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()

	s := New(path, http.NotFoundHandler(), discardLogger())
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() over stale socket error = %v", err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Shutdown() should remove the socket file")
	}
}

func TestServer_RefusesRegularFile(t *testing.T) {
	path := socketPath(t)
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(path, http.NotFoundHandler(), discardLogger())
	if err := s.Listen(); err == nil {
		t.Error("Listen() should refuse to replace a regular file")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	s := New(socketPath(t), http.NotFoundHandler(), nil)
	if err := s.Serve(); err == nil {
		t.Error("Serve() before Listen() should fail")
	}
}
