package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/yndnr/meterd/internal/server/httpserver/handler"
)

// mockServer creates a test HTTP server with custom handlers.
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

// newMockServer creates a new mock server, closed at test cleanup.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Clone(r.Context()))
		h, ok := m.handlers[r.URL.Path]
		m.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for an exact path.
func (m *mockServer) handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// lastRequest returns the most recent request received.
func (m *mockServer) lastRequest(t *testing.T) *http.Request {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatal("no request received")
	}
	return m.requests[len(m.requests)-1]
}

// jsonResponse writes data inside the server's response envelope.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(handler.Success("req-test", data))
}

// errorResponse writes an error envelope.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(handler.Envelope{Code: code, Message: message, RequestID: "req-test"})
}

// runResult captures one CLI invocation.
type runResult struct {
	stdout string
	stderr string
	err    error
}

// runApp runs the CLI with a private config file and, when server is not
// nil, --server pointing at it.
func runApp(t *testing.T, server *mockServer, args ...string) runResult {
	t.Helper()
	return runAppWithConfig(t, filepath.Join(t.TempDir(), "cli.yaml"), server, args...)
}

func runAppWithConfig(t *testing.T, configPath string, server *mockServer, args ...string) runResult {
	t.Helper()

	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut

	full := []string{"meterd-cli", "--config", configPath}
	if server != nil {
		full = append(full, "--server", server.URL)
	}
	full = append(full, args...)

	err := app.Run(full)
	return runResult{stdout: out.String(), stderr: errOut.String(), err: err}
}
