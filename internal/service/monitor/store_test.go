package monitor

import (
	"fmt"
	"sync"
	"testing"

	"kiosk/internal/model"
)

func TestScanStore_AddDeduplicates(t *testing.T) {
	s := NewScanStore()

	if !s.Add(model.ScanResult{Value: "123456789", FirstSeen: at(0)}) {
		t.Fatal("Expected first add to be new")
	}
	if s.Add(model.ScanResult{Value: "123456789", FirstSeen: at(1)}) {
		t.Error("Expected duplicate add to be rejected")
	}
	if !s.Add(model.ScanResult{Value: "ADMIN001", FirstSeen: at(2)}) {
		t.Error("Expected second value to be new")
	}

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(snap))
	}
	if snap[0].Value != "123456789" || snap[1].Value != "ADMIN001" {
		t.Errorf("Unexpected order: %v", snap)
	}
	if !snap[0].FirstSeen.Equal(at(0)) {
		t.Errorf("Duplicate must not overwrite first-seen time, got %v", snap[0].FirstSeen)
	}

	recent := s.Recent()
	if recent[0].Value != "ADMIN001" {
		t.Errorf("Expected newest first, got %v", recent)
	}
}

func TestScanStore_Clear(t *testing.T) {
	s := NewScanStore()
	s.Add(model.ScanResult{Value: "a"})
	s.Add(model.ScanResult{Value: "b"})

	if n := s.Clear(); n != 2 {
		t.Errorf("Expected Clear to remove 2, got %d", n)
	}
	if s.Len() != 0 || len(s.Snapshot()) != 0 {
		t.Error("Expected empty store after Clear")
	}
	if s.Contains("a") {
		t.Error("Cleared value still reported as present")
	}
	if !s.Add(model.ScanResult{Value: "a"}) {
		t.Error("Value must be accepted again after Clear")
	}
}

func TestScanStore_SnapshotIsCopy(t *testing.T) {
	s := NewScanStore()
	s.Add(model.ScanResult{Value: "a"})

	snap := s.Snapshot()
	snap[0].Value = "mutated"

	if got := s.Snapshot()[0].Value; got != "a" {
		t.Errorf("Snapshot mutation leaked into store: %q", got)
	}
}

func TestScanStore_ConcurrentAccess(t *testing.T) {
	s := NewScanStore()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				// half the values collide across writers
				s.Add(model.ScanResult{Value: fmt.Sprintf("code-%d", i%50+w%2*50)})
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				seen := make(map[string]bool)
				for _, res := range s.Snapshot() {
					if seen[res.Value] {
						t.Errorf("Duplicate value %q in snapshot", res.Value)
						return
					}
					seen[res.Value] = true
				}
			}
		}()
	}
	wg.Wait()

	if s.Len() != 100 {
		t.Errorf("Expected 100 distinct values, got %d", s.Len())
	}
}

func TestScanStore_Remove(t *testing.T) {
	s := NewScanStore()
	s.Add(model.ScanResult{Value: "A"})
	s.Add(model.ScanResult{Value: "B"})
	before := s.Snapshot()

	if !s.Remove("A") {
		t.Fatal("Expected A to be removed")
	}
	if s.Remove("A") {
		t.Error("Expected a second Remove to report false")
	}
	if snap := s.Snapshot(); len(snap) != 1 || snap[0].Value != "B" {
		t.Errorf("Unexpected contents after Remove: %v", snap)
	}
	if len(before) != 2 || before[0].Value != "A" {
		t.Errorf("Earlier snapshot changed: %v", before)
	}
	if !s.Add(model.ScanResult{Value: "A"}) {
		t.Error("Expected A to be new again after Remove")
	}
}
