package service

import (
	"encoding/json"
	"fmt"

	"github.com/yndnr/meterd/internal/core/aggregate"
	"github.com/yndnr/meterd/internal/core/health"
)

// Report is the combined snapshot. Absent families are omitted.
type Report struct {
	Process         health.Snapshot   `json:"process"`
	InternalMetrics aggregate.Section `json:"internalMetrics,omitempty"`
	APIMetrics      aggregate.Group   `json:"apiMetrics,omitempty"`
}

// Coordinator serialises snapshots of a Registry. Each family is read and,
// when asked, cleared in one step, so the caller of a resetting read sees
// the data being discarded exactly once.
type Coordinator struct {
	reg *Registry
}

// NewCoordinator creates a coordinator over reg.
func NewCoordinator(reg *Registry) *Coordinator {
	return &Coordinator{reg: reg}
}

// Report builds the combined report.
func (c *Coordinator) Report(resetInternal, resetAPI bool) Report {
	rep := Report{Process: c.reg.sampler.Reading()}
	if s, ok := c.reg.internal.Snapshot(resetInternal); ok {
		rep.InternalMetrics = s
	}
	if g, ok := c.reg.api.Snapshot(resetAPI); ok {
		rep.APIMetrics = g
	}
	return rep
}

// GetAll returns the combined report as JSON.
func (c *Coordinator) GetAll(resetInternal, resetAPI bool) ([]byte, error) {
	return marshal(c.Report(resetInternal, resetAPI))
}

// ProcessMetrics returns the process section as JSON. reset is accepted
// for symmetry with the other reads; process health has nothing to clear.
func (c *Coordinator) ProcessMetrics(reset bool) ([]byte, error) {
	return marshal(c.reg.sampler.Reading())
}

// InternalMetrics returns the internal family as JSON, or false when it is
// absent.
func (c *Coordinator) InternalMetrics(reset bool) ([]byte, bool, error) {
	s, ok := c.reg.internal.Snapshot(reset)
	if !ok {
		return nil, false, nil
	}
	b, err := marshal(s)
	return b, err == nil, err
}

// APIMetrics returns the API family as JSON, or false when it is absent.
func (c *Coordinator) APIMetrics(reset bool) ([]byte, bool, error) {
	g, ok := c.reg.api.Snapshot(reset)
	if !ok {
		return nil, false, nil
	}
	b, err := marshal(g)
	return b, err == nil, err
}

func marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return b, nil
}
