// Package domain defines the core domain models for meterd.
package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// DomainError is an error with a stable code, MD-<AREA>-<NNNN>. The first
// three digits of NNNN are the HTTP status it maps to; the last one tells
// errors with the same status apart.
type DomainError struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func newError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

func (e *DomainError) Unwrap() error { return e.Cause }

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy carrying details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// Text is the message with details appended, as shown to API clients.
func (e *DomainError) Text() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// HTTPStatus derives the status from the code. Malformed codes map to 500.
func (e *DomainError) HTTPStatus() int {
	i := strings.LastIndexByte(e.Code, '-')
	if i < 0 || len(e.Code)-i-1 != 4 {
		return http.StatusInternalServerError
	}
	status, err := strconv.Atoi(e.Code[i+1 : i+4])
	if err != nil || http.StatusText(status) == "" {
		return http.StatusInternalServerError
	}
	return status
}

// AsDomainError finds the first DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the DomainError in err's chain, or "".
func CodeOf(err error) string {
	if de, ok := AsDomainError(err); ok {
		return de.Code
	}
	return ""
}

// Event errors.
var (
	// ErrMalformedEvent rejects a record call missing a required field.
	ErrMalformedEvent = newError("MD-EVT-4001", "malformed event")
)

// Admin authentication errors.
var (
	ErrAPIKeyMissing = newError("MD-AUTH-4010", "api key not provided")
	ErrAPIKeyInvalid = newError("MD-AUTH-4011", "invalid api key")
	ErrIPNotAllowed  = newError("MD-AUTH-4031", "ip not in allowlist")
)

// System and argument errors.
var (
	ErrInternalServer  = newError("MD-SYS-5000", "internal server error")
	ErrRateLimited     = newError("MD-SYS-4290", "too many requests")
	ErrInvalidArgument = newError("MD-ARG-4000", "invalid argument")

	// ErrNotReady is returned by /ready before the probes run.
	ErrNotReady = newError("MD-SYS-5030", "service not ready")
)
