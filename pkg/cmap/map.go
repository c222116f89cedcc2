package cmap

import (
	"iter"
	"math/bits"
	"sync"

	"github.com/twmb/murmur3"
)

// DefaultShards is used when New gets a non-positive shard count.
const DefaultShards = 16

// Map is a concurrent map from K to V.
type Map[K ~string, V any] struct {
	shards []shard[K, V]
	mask   uint32
}

type shard[K ~string, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New returns a map with n shards, rounded up to a power of two.
func New[K ~string, V any](n int) *Map[K, V] {
	if n <= 0 {
		n = DefaultShards
	}
	n = 1 << bits.Len(uint(n-1))

	m := &Map[K, V]{
		shards: make([]shard[K, V], n),
		mask:   uint32(n - 1),
	}
	for i := range m.shards {
		m.shards[i].items = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return &m.shards[murmur3.Sum32([]byte(key))&m.mask]
}

// Load returns the value stored under key.
func (m *Map[K, V]) Load(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	return v, ok
}

// LoadOrCreate returns the value under key, storing create() first if the
// key is absent. loaded reports whether the value already existed. create
// runs under the shard's write lock and must not use the map.
func (m *Map[K, V]) LoadOrCreate(key K, create func() V) (v V, loaded bool) {
	s := m.shardFor(key)

	s.mu.RLock()
	v, loaded = s.items[key]
	s.mu.RUnlock()
	if loaded {
		return v, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, loaded = s.items[key]; loaded {
		return v, true
	}
	v = create()
	s.items[key] = v
	return v, false
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Empty reports whether the map has no key. It stops at the first
// non-empty shard.
func (m *Map[K, V]) Empty() bool {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n := len(s.items)
		s.mu.RUnlock()
		if n > 0 {
			return false
		}
	}
	return true
}

// All yields every entry, holding one shard's read lock at a time.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.shards {
			if !m.shards[i].each(yield) {
				return
			}
		}
	}
}

func (s *shard[K, V]) each(yield func(K, V) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.items {
		if !yield(k, v) {
			return false
		}
	}
	return true
}

// Shards returns the shard count.
func (m *Map[K, V]) Shards() int {
	return len(m.shards)
}
