// Package domain defines the core domain models for meterd.
//
// This package contains:
//
//   - InternalEvent / APIEvent: the inputs of the two record operations
//   - InternalKey / RequestKey: the aggregation keys resolved from those events
//   - DomainError: structured errors shared by every layer
//
// Resolution is pure: it validates the event at the boundary and derives
// the dimension values, without touching any shared state.
package domain
