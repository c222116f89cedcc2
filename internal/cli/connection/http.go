package connection

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single CLI request.
const DefaultTimeout = 30 * time.Second

// UnixScheme prefixes server addresses that name a local socket, e.g.
// unix:///run/meterd/meterd.sock.
const UnixScheme = "unix://"

// ErrNoContent is returned by ParseResponse for 204 responses, which the
// server uses for metric families with no data since their last reset.
var ErrNoContent = errors.New("no content")

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	apiKey  string
}

// ClientOption configures an HTTPClient.
type ClientOption func(*http.Transport)

// WithTLSConfig sets the TLS configuration for https servers.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(t *http.Transport) {
		t.TLSClientConfig = cfg
	}
}

// NewHTTPClient creates a new HTTP client. A zero timeout uses
// DefaultTimeout. A unix:// server dials the socket for every request.
func NewHTTPClient(server, apiKey string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	for _, opt := range opts {
		opt(transport)
	}

	var baseURL string
	if socket, ok := strings.CutPrefix(server, UnixScheme); ok {
		transport.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		}
		transport.Proxy = nil
		baseURL = "http://meterd"
	} else {
		baseURL = strings.TrimRight(server, "/")
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			baseURL = "http://" + baseURL
		}
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	return c.client.Do(req)
}

// GetJSON performs a GET request and decodes the envelope data into target.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, target any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return ParseResponse(resp, target)
}

// addHeaders adds authentication and common headers.
func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "meterd-cli/1.0")
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ParseResponse parses an enveloped JSON response and decodes its data
// field into target.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return ErrNoContent
	}

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.Message != "" {
			return fmt.Errorf("[%s] %s", env.Code, env.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
