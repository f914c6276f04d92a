package monitor

import (
	"sync"
	"sync/atomic"

	"kiosk/internal/model"
)

// ScanStore is an insertion-ordered set of scan results keyed by value.
// Readers get copies; a new snapshot is published after every mutation.
type ScanStore struct {
	mu       sync.Mutex
	index    map[string]struct{}
	results  []model.ScanResult
	snapshot atomic.Pointer[[]model.ScanResult]
}

// NewScanStore creates an empty store.
func NewScanStore() *ScanStore {
	s := &ScanStore{index: make(map[string]struct{})}
	s.publish()
	return s
}

// Add appends r unless its value is already stored. It reports whether r was new.
func (s *ScanStore) Add(r model.ScanResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.index[r.Value]; seen {
		return false
	}
	s.index[r.Value] = struct{}{}
	s.results = append(s.results, r)
	s.publish()
	return true
}

// Contains reports whether value has been stored since the last Clear.
func (s *ScanStore) Contains(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[value]
	return ok
}

// Remove deletes value so that the next Add of it counts as new.
// It reports whether value was stored.
func (s *ScanStore) Remove(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.index[value]; !seen {
		return false
	}
	delete(s.index, value)
	// published snapshots share the backing array, so build a fresh one
	kept := make([]model.ScanResult, 0, len(s.results)-1)
	for _, r := range s.results {
		if r.Value != value {
			kept = append(kept, r)
		}
	}
	s.results = kept
	s.publish()
	return true
}

// Clear empties the store and returns how many results were removed.
func (s *ScanStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.results)
	s.index = make(map[string]struct{})
	s.results = nil
	s.publish()
	return n
}

// publish must be called with mu held. The published slice has cap == len,
// so later appends never touch what readers can see.
func (s *ScanStore) publish() {
	n := len(s.results)
	snap := s.results[:n:n]
	s.snapshot.Store(&snap)
}

// Snapshot returns the results oldest-first.
func (s *ScanStore) Snapshot() []model.ScanResult {
	snap := *s.snapshot.Load()
	out := make([]model.ScanResult, len(snap))
	copy(out, snap)
	return out
}

// Recent returns the results newest-first, for display.
func (s *ScanStore) Recent() []model.ScanResult {
	snap := *s.snapshot.Load()
	out := make([]model.ScanResult, len(snap))
	for i, r := range snap {
		out[len(snap)-1-i] = r
	}
	return out
}

// Len returns the number of stored results.
func (s *ScanStore) Len() int {
	return len(*s.snapshot.Load())
}
