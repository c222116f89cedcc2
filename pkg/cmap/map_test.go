package cmap

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewRoundsShards(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultShards},
		{-4, DefaultShards},
		{1, 1},
		{3, 4},
		{16, 16},
		{17, 32},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.in), func(t *testing.T) {
			if got := New[string, int](tt.in).Shards(); got != tt.want {
				t.Errorf("New(%d).Shards() = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

type meterKey string

func TestLoadOrCreate(t *testing.T) {
	m := New[meterKey, *int](4)
	calls := 0
	create := func() *int {
		calls++
		v := calls
		return &v
	}

	first, loaded := m.LoadOrCreate("global|all", create)
	if loaded {
		t.Error("first call reported an existing value")
	}
	second, loaded := m.LoadOrCreate("global|all", create)
	if !loaded || first != second {
		t.Errorf("second call = (%p, %v), want (%p, true)", second, loaded, first)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	if v, ok := m.Load("global|all"); !ok || v != first {
		t.Error("Load() did not return the stored value")
	}
	if _, ok := m.Load("missing"); ok {
		t.Error("Load(missing) reported a value")
	}
}

func TestLoadOrCreateConcurrent(t *testing.T) {
	m := New[string, *atomic.Int64](8)
	var created atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c, _ := m.LoadOrCreate("k"+strconv.Itoa(j%20), func() *atomic.Int64 {
					created.Add(1)
					return new(atomic.Int64)
				})
				c.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 20 {
		t.Errorf("created %d values, want 20", created.Load())
	}
	var total int64
	for _, c := range m.All() {
		total += c.Load()
	}
	if total != 32*200 {
		t.Errorf("total = %d, want %d", total, 32*200)
	}
}

func TestLenAndEmpty(t *testing.T) {
	m := New[string, int](2)
	if !m.Empty() || m.Len() != 0 {
		t.Fatal("new map should be empty")
	}
	for i := 0; i < 50; i++ {
		m.LoadOrCreate(strconv.Itoa(i), func() int { return i })
	}
	if m.Empty() {
		t.Error("Empty() = true after inserts")
	}
	if m.Len() != 50 {
		t.Errorf("Len() = %d, want 50", m.Len())
	}
}

func TestAllStopsEarly(t *testing.T) {
	m := New[string, int](4)
	for i := 0; i < 20; i++ {
		m.LoadOrCreate(strconv.Itoa(i), func() int { return i })
	}

	visited := 0
	for range m.All() {
		visited++
		if visited == 5 {
			break
		}
	}
	if visited != 5 {
		t.Errorf("visited %d entries, want 5", visited)
	}

	// Locks were released on break.
	m.LoadOrCreate("after", func() int { return -1 })
	if m.Len() != 21 {
		t.Errorf("Len() = %d, want 21", m.Len())
	}
}

func TestShardFor_AllKeyLengths(t *testing.T) {
	m := New[string, int](8)
	used := make(map[*shard[string, int]]bool)

	var wg sync.WaitGroup
	for n := 0; n <= 40; n++ {
		key := strings.Repeat("k", n)
		used[m.shardFor(key)] = true

		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.LoadOrCreate(key, func() int { return n })
		}(n)
	}
	wg.Wait()

	for n := 0; n <= 40; n++ {
		key := strings.Repeat("k", n)
		if v, ok := m.Load(key); !ok || v != n {
			t.Errorf("Load(len %d) = (%d, %v), want (%d, true)", n, v, ok, n)
		}
		if m.shardFor(key) != m.shardFor(strings.Clone(key)) {
			t.Errorf("shardFor(len %d) not stable across copies", n)
		}
	}
	if len(used) < 2 {
		t.Errorf("keys landed in %d shard(s), want a spread", len(used))
	}
}

func BenchmarkMap_LoadOrCreateParallel(b *testing.B) {
	m := New[string, *atomic.Int64](DefaultShards)
	keys := make([]string, 64)
	for i := range keys {
		keys[i] = "7:methods" + strconv.Itoa(i)
	}
	newCounter := func() *atomic.Int64 { return new(atomic.Int64) }

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c, _ := m.LoadOrCreate(keys[i%len(keys)], newCounter)
			c.Add(1)
			i++
		}
	})
}
