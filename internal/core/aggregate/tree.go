package aggregate

import (
	"strconv"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/pkg/cmap"
	"github.com/yndnr/meterd/pkg/meter"
)

// Dimension is one (name, value) pair of an event.
type Dimension struct {
	Name  string
	Value string
}

// Leaf is the serialised form of a single meter.
type Leaf struct {
	Meter meter.Reading `json:"meter"`
}

// Group is dimension -> value -> Leaf.
type Group map[string]map[string]Leaf

// Count returns the count of a leaf, or 0 when it does not exist.
func (g Group) Count(dimension, value string) uint64 {
	return g[dimension][value].Meter.Count
}

// Section is source -> Group. Flat families use the empty source.
type Section map[string]Group

type entry struct {
	source    string
	dimension string
	value     string
	meter     *meter.Meter
}

type generation struct {
	meters *cmap.Map[string, *entry]
}

// Tree is a concurrent (source, dimension, value) -> Meter mapping.
type Tree struct {
	clock  clock.Clock
	shards int

	// snapMu serialises Snapshot and Reset.
	snapMu sync.Mutex

	// mu guards gen. Record holds it shared. Snapshot and Reset hold it
	// exclusive only to swap gen or capture counts.
	mu  sync.RWMutex
	gen *generation
}

// Option configures a Tree.
type Option func(*Tree)

// WithClock sets the clock handed to every meter of the tree.
func WithClock(c clock.Clock) Option {
	return func(t *Tree) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithShards sets the shard count of each generation map.
func WithShards(n int) Option {
	return func(t *Tree) {
		t.shards = n
	}
}

// NewTree creates an empty tree.
func NewTree(opts ...Option) *Tree {
	t := &Tree{
		clock:  clock.New(),
		shards: cmap.DefaultShards,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.gen = t.newGeneration()
	return t
}

func (t *Tree) newGeneration() *generation {
	return &generation{meters: cmap.New[string, *entry](t.shards)}
}

// Record marks the global meter of source and one meter per dimension.
func (t *Tree) Record(source string, dims ...Dimension) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g := t.gen
	t.mark(g, source, domain.DimensionGlobal, domain.GlobalKey)
	for _, d := range dims {
		t.mark(g, source, d.Name, d.Value)
	}
}

func (t *Tree) mark(g *generation, source, dimension, value string) {
	e, _ := g.meters.LoadOrCreate(meterKey(source, dimension, value), func() *entry {
		return &entry{
			source:    source,
			dimension: dimension,
			value:     value,
			meter:     meter.New(meter.WithClock(t.clock)),
		}
	})
	e.meter.Mark()
}

// Snapshot returns a copy of the tree, or false when no event was recorded
// since creation or the last reset. With reset, the tree is cleared
// atomically with the read.
func (t *Tree) Snapshot(reset bool) (Section, bool) {
	t.snapMu.Lock()
	defer t.snapMu.Unlock()

	if reset {
		t.mu.Lock()
		g := t.gen
		t.gen = t.newGeneration()
		t.mu.Unlock()

		// No producer can reach the retired generation anymore.
		return g.section(g.capture())
	}

	t.mu.Lock()
	g := t.gen
	counts := g.capture()
	t.mu.Unlock()

	return g.section(counts)
}

// Reset clears the tree without reading it.
func (t *Tree) Reset() {
	t.snapMu.Lock()
	defer t.snapMu.Unlock()

	t.mu.Lock()
	t.gen = t.newGeneration()
	t.mu.Unlock()
}

// Empty reports whether the tree is currently absent.
func (t *Tree) Empty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen.meters.Empty()
}

// Len returns the number of meters in the tree.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen.meters.Len()
}

type counted struct {
	e     *entry
	count uint64
}

// capture reads every meter count. Callers hold t.mu exclusively, or own
// a retired generation, so the counts form one consistent cut.
func (g *generation) capture() []counted {
	out := make([]counted, 0, g.meters.Len())
	for _, e := range g.meters.All() {
		out = append(out, counted{e: e, count: e.meter.Count()})
	}
	return out
}

func (g *generation) section(counts []counted) (Section, bool) {
	if len(counts) == 0 {
		return nil, false
	}

	s := make(Section)
	for _, c := range counts {
		e := c.e
		group, ok := s[e.source]
		if !ok {
			group = make(Group)
			s[e.source] = group
		}
		values, ok := group[e.dimension]
		if !ok {
			values = make(map[string]Leaf)
			group[e.dimension] = values
		}
		values[e.value] = Leaf{Meter: e.meter.SnapshotCount(c.count)}
	}
	return s, true
}

// meterKey encodes (source, dimension, value) with length prefixes on the
// first two parts, so no choice of names can make two triples share a key.
func meterKey(source, dimension, value string) string {
	var b strings.Builder
	b.Grow(len(source) + len(dimension) + len(value) + 8)
	b.WriteString(strconv.Itoa(len(source)))
	b.WriteByte(':')
	b.WriteString(source)
	b.WriteString(strconv.Itoa(len(dimension)))
	b.WriteByte(':')
	b.WriteString(dimension)
	b.WriteString(value)
	return b.String()
}
