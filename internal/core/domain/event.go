package domain

import (
	"strconv"
	"strings"
	"time"
)

// Dimension names shared by both families.
const (
	DimensionGlobal    = "global"
	DimensionMethods   = "methods"
	DimensionStatuses  = "statuses"
	DimensionEndpoints = "endpoints"

	// GlobalKey is the single value of the global dimension.
	GlobalKey = "all"

	// StatusSuccess and StatusFailure are the internal family outcomes.
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// InternalEvent describes the completion of an internal operation.
//
// StartTime is required but does not feed any counter yet; it is kept so a
// latency aggregation can be added without changing callers.
type InternalEvent struct {
	Source     string    `json:"source"`
	MethodName string    `json:"methodName"`
	StartTime  time.Time `json:"startTime"`
}

// InternalKey is the aggregation key of an internal event.
type InternalKey struct {
	Source     string
	MethodName string
	Success    bool
}

// Status returns the statuses dimension value.
func (k InternalKey) Status() string {
	if k.Success {
		return StatusSuccess
	}
	return StatusFailure
}

// ResolveInternal validates ev and derives its key. A nil cause classifies
// the call as a success, anything else as a failure.
func ResolveInternal(ev InternalEvent, cause error) (InternalKey, error) {
	switch {
	case strings.TrimSpace(ev.Source) == "":
		return InternalKey{}, ErrMalformedEvent.WithDetails("source is required")
	case strings.TrimSpace(ev.MethodName) == "":
		return InternalKey{}, ErrMalformedEvent.WithDetails("methodName is required")
	case ev.StartTime.IsZero():
		return InternalKey{}, ErrMalformedEvent.WithDetails("startTime is required")
	}

	return InternalKey{
		Source:     ev.Source,
		MethodName: ev.MethodName,
		Success:    cause == nil,
	}, nil
}

// APIEvent describes one served API request.
//
// Time is the request duration in milliseconds. It is optional and, like
// InternalEvent.StartTime, not aggregated.
type APIEvent struct {
	Route  string  `json:"route"`
	Method string  `json:"method"`
	Status string  `json:"status"`
	Time   float64 `json:"time,omitempty"`
}

// NewAPIEvent builds an APIEvent from an HTTP status code and a duration.
func NewAPIEvent(route, method string, status int, d time.Duration) APIEvent {
	return APIEvent{
		Route:  route,
		Method: method,
		Status: strconv.Itoa(status),
		Time:   float64(d) / float64(time.Millisecond),
	}
}

// RequestKey is the aggregation key of an API event.
type RequestKey struct {
	Route  string
	Method string // upper-cased
	Status string
}

// Endpoint returns the endpoints dimension value, "route|method" with the
// method lower-cased.
func (k RequestKey) Endpoint() string {
	return k.Route + "|" + strings.ToLower(k.Method)
}

// ResolveAPI validates ev and derives its key.
func ResolveAPI(ev APIEvent) (RequestKey, error) {
	route := strings.TrimSpace(ev.Route)
	method := strings.TrimSpace(ev.Method)
	status := strings.TrimSpace(ev.Status)

	switch {
	case route == "":
		return RequestKey{}, ErrMalformedEvent.WithDetails("route is required")
	case method == "":
		return RequestKey{}, ErrMalformedEvent.WithDetails("method is required")
	case status == "":
		return RequestKey{}, ErrMalformedEvent.WithDetails("status is required")
	}

	return RequestKey{
		Route:  route,
		Method: strings.ToUpper(method),
		Status: status,
	}, nil
}
