package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"kiosk/internal/capture"
	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/model"
)

// PresenceConfig configures a PresenceMonitor.
type PresenceConfig struct {
	Name            string
	Device          int
	Face            capture.FaceParams
	Cooldown        time.Duration
	Policy          Policy
	PollInterval    time.Duration
	MaxReadFailures int
}

// PresenceMonitor polls a camera, runs face detection and emits
// PersonDetected once per presence episode.
type PresenceMonitor struct {
	cfg      PresenceConfig
	deps     Deps
	detector capture.FaceDetector
	logger   *logger.Logger
	task     task

	state      atomic.Int32
	held       atomic.Bool
	detections atomic.Uint64
}

// NewPresenceMonitor creates a stopped monitor.
func NewPresenceMonitor(cfg PresenceConfig, detector capture.FaceDetector, deps Deps) *PresenceMonitor {
	if cfg.Name == "" {
		cfg.Name = "presence"
	}
	return &PresenceMonitor{
		cfg:      cfg,
		deps:     deps,
		detector: detector,
		logger:   deps.Logger.Named(cfg.Name),
	}
}

// Name returns the monitor name used as event source.
func (m *PresenceMonitor) Name() string {
	return m.cfg.Name
}

// Start opens the camera and begins polling. A failed open leaves the monitor
// stopped, emits MonitorError and returns an error wrapping ErrStartFailed.
func (m *PresenceMonitor) Start(ctx context.Context) error {
	err := m.task.launch(ctx, func() (capture.FrameSource, error) {
		return m.deps.Opener.Open(m.cfg.Device)
	}, m.run)
	if errors.Is(err, ErrAlreadyRunning) {
		return err
	}
	if err != nil {
		return startFailure(m.cfg.Name, m.deps, m.logger, err)
	}
	return nil
}

// Stop requests cancellation and returns once the goroutine has exited and
// released its camera.
func (m *PresenceMonitor) Stop() {
	m.task.stop()
}

// Held reports whether a face is in view but held back by the cooldown.
// State is IDLE meanwhile.
func (m *PresenceMonitor) Held() bool {
	return m.held.Load()
}

// Running reports whether the polling goroutine is alive.
func (m *PresenceMonitor) Running() bool {
	return m.task.running()
}

// State returns the current debounce state.
func (m *PresenceMonitor) State() PresenceState {
	return PresenceState(m.state.Load())
}

// Detections returns how many PersonDetected events were emitted.
func (m *PresenceMonitor) Detections() uint64 {
	return m.detections.Load()
}

func (m *PresenceMonitor) run(ctx context.Context, src capture.FrameSource) {
	m.logger.Info("Started on camera %d (policy %s, cooldown %v)", m.cfg.Device, m.cfg.Policy, m.cfg.Cooldown)
	m.deps.Sink.Emit(event.New(event.MonitorStarted, m.cfg.Name, m.deps.now()))

	debouncer := NewDebouncer(m.cfg.Policy, m.cfg.Cooldown)
	m.state.Store(int32(StateIdle))

	p := &poller{
		name:            m.cfg.Name,
		interval:        m.cfg.PollInterval,
		maxReadFailures: m.cfg.MaxReadFailures,
		deps:            m.deps,
		logger:          m.logger,
	}
	p.run(ctx, src, func(frame model.Frame) {
		var faces []model.DetectionBox
		err := safely(func() error {
			var err error
			faces, err = m.detector.DetectFaces(frame, m.cfg.Face)
			return err
		})
		if err != nil {
			m.logger.Error("Face detection failed: %v", err)
			return
		}

		fire := debouncer.Observe(len(faces) > 0, m.deps.frameTime(frame))
		m.state.Store(int32(debouncer.State()))
		m.held.Store(debouncer.Held())
		if !fire {
			return
		}

		m.detections.Add(1)
		ev := event.New(event.PersonDetected, m.cfg.Name, m.deps.frameTime(frame))
		ev.Faces = faces
		m.logger.Info("Person detected (%d face(s))", len(faces))
		m.deps.Sink.Emit(ev)
	})

	m.state.Store(int32(StateIdle))
	m.held.Store(false)
	m.deps.Sink.Emit(event.New(event.MonitorStopped, m.cfg.Name, m.deps.now()))
	m.logger.Info("Stopped")
}
