package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/model"

	"github.com/disintegration/imaging"
)

// JPEGQuality is used for preview frames.
const JPEGQuality = 70

// ErrNoFrame is returned by Snapshot before a camera produced a frame.
var ErrNoFrame = errors.New("no frame captured yet")

// Hub delivers encoded messages to viewers.
type Hub interface {
	Broadcast(message []byte)
	GetClientCount() int
}

// FrameMessage is the websocket payload for one preview frame.
type FrameMessage struct {
	Type   string    `json:"type"`
	Camera string    `json:"camera"`
	Image  string    `json:"image"`
	Time   time.Time `json:"time"`
}

// Broadcaster keeps one Slot per camera and periodically sends the newest
// frame of each to the hub as a downscaled JPEG.
type Broadcaster struct {
	slots    map[string]*Slot
	mutex    sync.RWMutex
	hub      Hub
	width    int
	interval time.Duration
	logger   *logger.Logger
}

// NewBroadcaster creates a broadcaster sending to hub.
func NewBroadcaster(config *config.Config, logger *logger.Logger, hub Hub) *Broadcaster {
	interval := config.PreviewInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &Broadcaster{
		slots:    make(map[string]*Slot),
		hub:      hub,
		width:    config.PreviewWidth,
		interval: interval,
		logger:   logger.Named("preview"),
	}
}

// Publish routes frame to the slot of its source camera. It never blocks on
// encoding or network I/O.
func (b *Broadcaster) Publish(frame model.Frame) {
	b.slot(frame.Source).Publish(frame)
}

func (b *Broadcaster) slot(name string) *Slot {
	b.mutex.RLock()
	s, ok := b.slots[name]
	b.mutex.RUnlock()
	if ok {
		return s
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if s, ok := b.slots[name]; ok {
		return s
	}
	s = &Slot{}
	b.slots[name] = s
	return s
}

// Cameras lists the cameras that have published at least once.
func (b *Broadcaster) Cameras() []string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	names := make([]string, 0, len(b.slots))
	for name := range b.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run sends pending frames every interval until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

func (b *Broadcaster) flush() {
	for _, name := range b.Cameras() {
		frame, ok := b.slot(name).Take()
		if !ok || b.hub.GetClientCount() == 0 {
			continue
		}

		jpeg, err := b.encode(frame)
		if err != nil {
			b.logger.Error("Failed to encode frame from %s: %v", name, err)
			continue
		}

		message, err := json.Marshal(FrameMessage{
			Type:   "frame",
			Camera: name,
			Image:  base64.StdEncoding.EncodeToString(jpeg),
			Time:   frame.CapturedAt,
		})
		if err != nil {
			b.logger.Error("Failed to marshal frame message: %v", err)
			continue
		}
		b.hub.Broadcast(message)
	}
}

// Snapshot returns the newest frame of camera as a JPEG.
func (b *Broadcaster) Snapshot(camera string) ([]byte, error) {
	b.mutex.RLock()
	s, ok := b.slots[camera]
	b.mutex.RUnlock()
	if !ok {
		return nil, ErrNoFrame
	}
	frame, ok := s.Latest()
	if !ok {
		return nil, ErrNoFrame
	}
	return b.encode(frame)
}

func (b *Broadcaster) encode(frame model.Frame) ([]byte, error) {
	if frame.Empty() {
		return nil, ErrNoFrame
	}
	img := frame.Image()
	if b.width > 0 && frame.Width > b.width {
		img = imaging.Resize(img, b.width, 0, imaging.Box)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
