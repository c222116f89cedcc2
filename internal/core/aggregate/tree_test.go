package aggregate

import (
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/meterd/internal/core/domain"
)

func TestTree_AbsentUntilFirstEvent(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))

	if !tree.Empty() {
		t.Error("new tree should be empty")
	}
	if s, ok := tree.Snapshot(false); ok || s != nil {
		t.Errorf("Snapshot() on new tree = (%v, %v), want (nil, false)", s, ok)
	}

	tree.Record("src", Dimension{Name: "methods", Value: "m"})
	if tree.Empty() {
		t.Error("tree should not be empty after Record")
	}
	if got := tree.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2 (global/all + methods/m)", got)
	}
}

func TestTree_GlobalPlusOnePerDimension(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))

	tree.Record("a", Dimension{"methods", "x"}, Dimension{"statuses", "success"})
	tree.Record("a", Dimension{"methods", "y"}, Dimension{"statuses", "success"})
	tree.Record("b", Dimension{"methods", "x"}, Dimension{"statuses", "failure"})

	s, ok := tree.Snapshot(false)
	if !ok {
		t.Fatal("Snapshot() reported absent")
	}

	tests := []struct {
		source, dim, value string
		want               uint64
	}{
		{"a", domain.DimensionGlobal, domain.GlobalKey, 2},
		{"a", "methods", "x", 1},
		{"a", "methods", "y", 1},
		{"a", "statuses", "success", 2},
		{"a", "statuses", "failure", 0},
		{"b", domain.DimensionGlobal, domain.GlobalKey, 1},
		{"b", "statuses", "failure", 1},
	}
	for _, tt := range tests {
		if got := s[tt.source].Count(tt.dim, tt.value); got != tt.want {
			t.Errorf("%s.%s.%s = %d, want %d", tt.source, tt.dim, tt.value, got, tt.want)
		}
	}
}

func TestTree_ResetThenAbsent(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))
	tree.Record("src", Dimension{"methods", "m"})

	before, ok := tree.Snapshot(true)
	if !ok {
		t.Fatal("resetting Snapshot() should still return pre-reset data")
	}
	if got := before["src"].Count(domain.DimensionGlobal, domain.GlobalKey); got != 1 {
		t.Errorf("pre-reset global count = %d, want 1", got)
	}

	if _, ok := tree.Snapshot(false); ok {
		t.Error("Snapshot() after reset should be absent")
	}

	tree.Record("src", Dimension{"methods", "m"})
	after, ok := tree.Snapshot(false)
	if !ok {
		t.Fatal("Snapshot() after new event should be present")
	}
	if got := after["src"].Count(domain.DimensionGlobal, domain.GlobalKey); got != 1 {
		t.Errorf("post-reset global count = %d, want 1 (fresh meter)", got)
	}
}

func TestTree_Reset(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))
	tree.Record("src")
	tree.Reset()
	if !tree.Empty() {
		t.Error("tree should be empty after Reset")
	}
}

func TestTree_ReadsAreIdempotent(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))
	tree.Record("src", Dimension{"methods", "m"})
	tree.Record("src", Dimension{"methods", "n"})

	first, _ := tree.Snapshot(false)
	second, _ := tree.Snapshot(false)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive snapshots differ:\n%v\n%v", first, second)
	}
}

func TestTree_ConcurrentRecordAndSnapshot(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))
	const producers, events = 16, 500

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < events; j++ {
				tree.Record("src",
					Dimension{"methods", "m" + strconv.Itoa(j%4)},
					Dimension{"statuses", strconv.Itoa(i % 2)},
				)
			}
		}(i)
	}

	var total uint64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for k := 0; k < 50; k++ {
			s, ok := tree.Snapshot(k%5 == 0)
			if !ok {
				continue
			}
			g := s["src"]
			all := g.Count(domain.DimensionGlobal, domain.GlobalKey)
			var methods, statuses uint64
			for _, l := range g["methods"] {
				methods += l.Meter.Count
			}
			for _, l := range g["statuses"] {
				statuses += l.Meter.Count
			}
			if methods != all || statuses != all {
				t.Errorf("half-applied events observed: all=%d methods=%d statuses=%d", all, methods, statuses)
			}
			if k%5 == 0 {
				total += all
			}
		}
	}()

	wg.Wait()
	<-done

	if s, ok := tree.Snapshot(true); ok {
		total += s["src"].Count(domain.DimensionGlobal, domain.GlobalKey)
	}
	if total != producers*events {
		t.Errorf("events across resets = %d, want %d (lost or duplicated updates)", total, producers*events)
	}
}

func TestTree_NamesCannotCollide(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))

	tree.Record("a",
		Dimension{"methods", "b\x1fstatuses\x1ffailure"},
		Dimension{"statuses", "success"},
	)
	tree.Record("a\x1fmethods\x1fb",
		Dimension{"methods", "m"},
		Dimension{"statuses", "failure"},
	)

	s, ok := tree.Snapshot(false)
	if !ok {
		t.Fatal("Snapshot() reported absent")
	}

	victim := s["a\x1fmethods\x1fb"]
	if got := victim.Count("statuses", "failure"); got != 1 {
		t.Errorf("victim statuses.failure = %d, want 1", got)
	}
	if got := len(victim["methods"]); got != 1 {
		t.Errorf("victim methods = %d entries, want 1", got)
	}
	if got := s["a"].Count("methods", "b\x1fstatuses\x1ffailure"); got != 1 {
		t.Errorf("a methods count = %d, want 1", got)
	}
	if got := tree.Len(); got != 6 {
		t.Errorf("Len() = %d, want 6 distinct meters", got)
	}
}

func TestMeterKey(t *testing.T) {
	triples := [][3]string{
		{"a", "methods", "b\x1fstatuses\x1ffailure"},
		{"a\x1fmethods\x1fb", "statuses", "failure"},
		{"ab", "c", "d"},
		{"a", "bc", "d"},
		{"a", "b", "cd"},
		{"1:a", "b", "c"},
		{"", "1:ab", ""},
		{"", "", "1:a1:b"},
	}

	seen := make(map[string][3]string, len(triples))
	for _, tr := range triples {
		k := meterKey(tr[0], tr[1], tr[2])
		if prev, ok := seen[k]; ok {
			t.Errorf("meterKey(%q) == meterKey(%q) = %q", tr, prev, k)
		}
		seen[k] = tr
	}
}

func TestTree_ConcurrentSnapshotsAndResets(t *testing.T) {
	tree := NewTree(WithClock(clock.NewMock()))
	const producers, events, readers = 8, 400, 4

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < events; j++ {
				tree.Record("src", Dimension{"statuses", strconv.Itoa(j % 3)})
			}
		}()
	}

	var (
		mu    sync.Mutex
		total uint64
	)
	var rg sync.WaitGroup
	for r := 0; r < readers; r++ {
		rg.Add(1)
		go func(r int) {
			defer rg.Done()
			for k := 0; k < 40; k++ {
				reset := r%2 == 0
				s, ok := tree.Snapshot(reset)
				if !ok {
					continue
				}
				g := s["src"]
				all := g.Count(domain.DimensionGlobal, domain.GlobalKey)
				var statuses uint64
				for _, l := range g["statuses"] {
					statuses += l.Meter.Count
				}
				if statuses != all {
					t.Errorf("inconsistent snapshot: all=%d statuses=%d", all, statuses)
				}
				if reset {
					mu.Lock()
					total += all
					mu.Unlock()
				}
			}
		}(r)
	}

	wg.Wait()
	rg.Wait()

	if s, ok := tree.Snapshot(true); ok {
		total += s["src"].Count(domain.DimensionGlobal, domain.GlobalKey)
	}
	if total != producers*events {
		t.Errorf("events across concurrent resets = %d, want %d", total, producers*events)
	}
}
