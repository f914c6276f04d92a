package preview

import (
	"sync"
	"sync/atomic"

	"kiosk/internal/model"
)

// Slot holds the newest frame from one camera. Publishing overwrites the
// previous frame, so a slow consumer only ever sees the latest one.
type Slot struct {
	mu      sync.Mutex
	frame   model.Frame
	version uint64
	taken   uint64
	dropped atomic.Uint64
}

// Publish stores frame, replacing any frame not yet taken.
func (s *Slot) Publish(frame model.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version > s.taken {
		s.dropped.Add(1)
	}
	s.frame = frame
	s.version++
}

// Take returns the newest frame if it has not been taken before.
func (s *Slot) Take() (model.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == s.taken {
		return model.Frame{}, false
	}
	s.taken = s.version
	return s.frame, true
}

// Latest returns the newest frame whether or not it was taken.
func (s *Slot) Latest() (model.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.version > 0
}

// Dropped returns how many frames were overwritten before being taken.
func (s *Slot) Dropped() uint64 {
	return s.dropped.Load()
}
