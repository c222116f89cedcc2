package aggregate

import "github.com/yndnr/meterd/internal/core/domain"

// InternalFamily aggregates internal operation completions per source over
// the global, methods and statuses dimensions.
type InternalFamily struct {
	tree *Tree
}

// NewInternalFamily creates an empty internal family.
func NewInternalFamily(opts ...Option) *InternalFamily {
	return &InternalFamily{tree: NewTree(opts...)}
}

// Record aggregates one resolved internal event.
func (f *InternalFamily) Record(k domain.InternalKey) {
	f.tree.Record(k.Source,
		Dimension{Name: domain.DimensionMethods, Value: k.MethodName},
		Dimension{Name: domain.DimensionStatuses, Value: k.Status()},
	)
}

// Snapshot returns source -> group, or false when absent.
func (f *InternalFamily) Snapshot(reset bool) (Section, bool) {
	return f.tree.Snapshot(reset)
}

// Reset clears the family.
func (f *InternalFamily) Reset() {
	f.tree.Reset()
}

// APIFamily aggregates served API requests over the global, statuses,
// methods and endpoints dimensions. It has no source level.
type APIFamily struct {
	tree *Tree
}

// NewAPIFamily creates an empty API family.
func NewAPIFamily(opts ...Option) *APIFamily {
	return &APIFamily{tree: NewTree(opts...)}
}

// Record aggregates one resolved API event.
func (f *APIFamily) Record(k domain.RequestKey) {
	f.tree.Record("",
		Dimension{Name: domain.DimensionStatuses, Value: k.Status},
		Dimension{Name: domain.DimensionMethods, Value: k.Method},
		Dimension{Name: domain.DimensionEndpoints, Value: k.Endpoint()},
	)
}

// Snapshot returns the flat group, or false when absent.
func (f *APIFamily) Snapshot(reset bool) (Group, bool) {
	s, ok := f.tree.Snapshot(reset)
	if !ok {
		return nil, false
	}
	return s[""], true
}

// Reset clears the family.
func (f *APIFamily) Reset() {
	f.tree.Reset()
}
