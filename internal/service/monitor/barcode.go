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

// BarcodeConfig configures a BarcodeMonitor.
type BarcodeConfig struct {
	Name            string
	Device          int
	PollInterval    time.Duration
	MaxReadFailures int
}

// BarcodeMonitor polls a camera, decodes barcodes and emits BarcodeScanned
// the first time each value enters its ScanStore.
type BarcodeMonitor struct {
	cfg     BarcodeConfig
	deps    Deps
	decoder capture.BarcodeDecoder
	store   *ScanStore
	logger  *logger.Logger
	task    task

	decoded atomic.Uint64
}

// NewBarcodeMonitor creates a stopped monitor recording into store.
func NewBarcodeMonitor(cfg BarcodeConfig, decoder capture.BarcodeDecoder, store *ScanStore, deps Deps) *BarcodeMonitor {
	if cfg.Name == "" {
		cfg.Name = "barcode"
	}
	if store == nil {
		store = NewScanStore()
	}
	return &BarcodeMonitor{
		cfg:     cfg,
		deps:    deps,
		decoder: decoder,
		store:   store,
		logger:  deps.Logger.Named(cfg.Name),
	}
}

// Name returns the monitor name used as event source.
func (m *BarcodeMonitor) Name() string {
	return m.cfg.Name
}

// Store returns the scan store the monitor writes to.
func (m *BarcodeMonitor) Store() *ScanStore {
	return m.store
}

// Start opens the camera and begins polling. See PresenceMonitor.Start.
func (m *BarcodeMonitor) Start(ctx context.Context) error {
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

// Stop requests cancellation and waits for the camera to be released.
func (m *BarcodeMonitor) Stop() {
	m.task.stop()
}

// Running reports whether the polling goroutine is alive.
func (m *BarcodeMonitor) Running() bool {
	return m.task.running()
}

// Decoded returns the total number of symbols decoded, duplicates included.
func (m *BarcodeMonitor) Decoded() uint64 {
	return m.decoded.Load()
}

func (m *BarcodeMonitor) run(ctx context.Context, src capture.FrameSource) {
	m.logger.Info("Started on camera %d", m.cfg.Device)
	m.deps.Sink.Emit(event.New(event.MonitorStarted, m.cfg.Name, m.deps.now()))

	p := &poller{
		name:            m.cfg.Name,
		interval:        m.cfg.PollInterval,
		maxReadFailures: m.cfg.MaxReadFailures,
		deps:            m.deps,
		logger:          m.logger,
	}
	p.run(ctx, src, m.process)

	m.deps.Sink.Emit(event.New(event.MonitorStopped, m.cfg.Name, m.deps.now()))
	m.logger.Info("Stopped")
}

func (m *BarcodeMonitor) process(frame model.Frame) {
	codes, err := m.decode(frame)
	if err != nil {
		m.logger.Error("Barcode decoding failed: %v", err)
		return
	}
	m.record(codes, m.deps.frameTime(frame))
}

// ScanFrame decodes a still image through the same dedup and event path as
// the camera loop. It works whether or not the monitor is running and
// returns the results that were new.
func (m *BarcodeMonitor) ScanFrame(frame model.Frame) ([]model.ScanResult, error) {
	codes, err := m.decode(frame)
	if err != nil {
		return nil, err
	}
	return m.record(codes, m.deps.frameTime(frame)), nil
}

func (m *BarcodeMonitor) decode(frame model.Frame) ([]model.Barcode, error) {
	var codes []model.Barcode
	err := safely(func() error {
		var err error
		codes, err = m.decoder.Decode(frame)
		return err
	})
	return codes, err
}

// record stores each new value and announces it. A value whose event is
// dropped is taken out of the store again, so the next scan retries it.
func (m *BarcodeMonitor) record(codes []model.Barcode, at time.Time) []model.ScanResult {
	var added []model.ScanResult
	for _, code := range codes {
		if code.Value == "" {
			continue
		}
		m.decoded.Add(1)

		result := model.ScanResult{Value: code.Value, Symbology: code.Symbology, FirstSeen: at}
		if !m.store.Add(result) {
			continue
		}

		ev := event.New(event.BarcodeScanned, m.cfg.Name, at)
		ev.Value = code.Value
		ev.Symbology = code.Symbology
		if !m.deps.Sink.Emit(ev) {
			m.store.Remove(code.Value)
			m.logger.Warning("Scan of %s not delivered, will accept it again", code.Value)
			continue
		}
		m.logger.Info("Scanned %s barcode: %s", code.Symbology, code.Value)
		added = append(added, result)
	}
	return added
}
