package monitor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kiosk/internal/capture"
	"kiosk/internal/config"
	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/model"
)

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// scriptedSource yields frames 0..n-1, one second apart, then reports
// ErrFrameUnavailable forever.
type scriptedSource struct {
	n       int
	reads   atomic.Int64
	closed  atomic.Bool
	release func()
}

func (s *scriptedSource) Read() (model.Frame, error) {
	i := int(s.reads.Add(1) - 1)
	if i >= s.n {
		return model.Frame{}, capture.ErrFrameUnavailable
	}
	return model.Frame{
		Seq:        uint64(i),
		CapturedAt: baseTime.Add(time.Duration(i) * time.Second),
		Width:      1,
		Height:     1,
		Data:       []byte{0, 0, 0},
	}, nil
}

func (s *scriptedSource) Close() error {
	if s.closed.CompareAndSwap(false, true) && s.release != nil {
		s.release()
	}
	return nil
}

// fakeOpener hands out scripted sources and claims devices in a registry
// the same way the camera package does.
type fakeOpener struct {
	registry *capture.DeviceRegistry
	frames   int
	fail     error

	mu      sync.Mutex
	sources []*scriptedSource
}

func newFakeOpener(frames int) *fakeOpener {
	return &fakeOpener{registry: capture.NewDeviceRegistry(), frames: frames}
}

func (o *fakeOpener) Open(device int) (capture.FrameSource, error) {
	release, err := o.registry.Acquire(device, fmt.Sprintf("device-%d", device))
	if err != nil {
		return nil, err
	}
	if o.fail != nil {
		release()
		return nil, o.fail
	}
	src := &scriptedSource{n: o.frames, release: release}
	o.mu.Lock()
	o.sources = append(o.sources, src)
	o.mu.Unlock()
	return src, nil
}

func (o *fakeOpener) last() *scriptedSource {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sources) == 0 {
		return nil
	}
	return o.sources[len(o.sources)-1]
}

// faceScript returns one face for frames whose script entry is true.
type faceScript struct {
	present []bool
	err     error
	panics  bool
}

func (f *faceScript) DetectFaces(frame model.Frame, _ capture.FaceParams) ([]model.DetectionBox, error) {
	if f.panics && frame.Seq == 0 {
		panic("cascade exploded")
	}
	if f.err != nil && frame.Seq == 0 {
		return nil, f.err
	}
	if int(frame.Seq) < len(f.present) && f.present[frame.Seq] {
		return []model.DetectionBox{{X: 10, Y: 10, Width: 40, Height: 40}}, nil
	}
	return nil, nil
}

// codeScript decodes the listed values for each frame.
type codeScript struct {
	frames [][]string
}

func (c *codeScript) Decode(frame model.Frame) ([]model.Barcode, error) {
	if int(frame.Seq) >= len(c.frames) {
		return nil, nil
	}
	var out []model.Barcode
	for _, v := range c.frames[frame.Seq] {
		out = append(out, model.Barcode{Value: v, Symbology: "CODE_128"})
	}
	return out, nil
}

// recorder is a Sink collecting events.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Emit(ev event.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *recorder) ofType(t event.Type) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type countingPreview struct {
	n atomic.Int64
}

func (p *countingPreview) Publish(model.Frame) { p.n.Add(1) }

func newTestDeps(t *testing.T, opener capture.Opener, sink event.Sink) Deps {
	t.Helper()
	return Deps{
		Opener: opener,
		Sink:   sink,
		Logger: logger.NewLogger(&config.Config{LogDirectory: t.TempDir()}),
	}
}

// waitForReads blocks until the source has been read at least n times.
func waitForReads(t *testing.T, opener *fakeOpener, n int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if src := opener.last(); src != nil && src.reads.Load() >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d frame reads", n)
}

var errBoom = errors.New("boom")
