package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDomainErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		wantErr  string
		wantText string
	}{
		{
			name:     "plain",
			err:      newError("MD-TEST-5000", "boom"),
			wantErr:  "[MD-TEST-5000] boom",
			wantText: "boom",
		},
		{
			name:     "with details",
			err:      ErrMalformedEvent.WithDetails("route is required"),
			wantErr:  "[MD-EVT-4001] malformed event: route is required",
			wantText: "malformed event: route is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantErr {
				t.Errorf("Error() = %q, want %q", got, tt.wantErr)
			}
			if got := tt.err.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestDomainErrorIdentity(t *testing.T) {
	detailed := ErrMalformedEvent.WithDetails("method is required")

	if !errors.Is(fmt.Errorf("record: %w", detailed), ErrMalformedEvent) {
		t.Error("a wrapped, detailed copy should match its sentinel")
	}
	if errors.Is(detailed, ErrInvalidArgument) {
		t.Error("different codes must not match")
	}
	if errors.Is(detailed, errors.New("malformed event")) {
		t.Error("plain errors must not match")
	}
	if ErrMalformedEvent.Details != "" {
		t.Error("WithDetails modified the sentinel")
	}
}

func TestDomainErrorCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := ErrInternalServer.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if ErrInternalServer.Cause != nil {
		t.Error("WithCause modified the sentinel")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *DomainError
		want int
	}{
		{ErrMalformedEvent, http.StatusBadRequest},
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrAPIKeyMissing, http.StatusUnauthorized},
		{ErrAPIKeyInvalid, http.StatusUnauthorized},
		{ErrIPNotAllowed, http.StatusForbidden},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrNotReady, http.StatusServiceUnavailable},
		{ErrInternalServer, http.StatusInternalServerError},
		{newError("MD-X-4040", "absent"), http.StatusNotFound},
		{newError("MD-X-999", "short"), http.StatusInternalServerError},
		{newError("MD-X-9990", "unknown status"), http.StatusInternalServerError},
		{newError("nocode", "none"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("auth: %w", ErrAPIKeyInvalid)); got != "MD-AUTH-4011" {
		t.Errorf("CodeOf() = %q, want MD-AUTH-4011", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if _, ok := AsDomainError(nil); ok {
		t.Error("AsDomainError(nil) reported a match")
	}
}
