package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"kiosk/internal/capture"
	"kiosk/internal/config"
	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/repository/sqlite"
	"kiosk/internal/route"
	"kiosk/internal/service"
	"kiosk/internal/service/ai"
	"kiosk/internal/service/barcode"
	"kiosk/internal/service/camera"
	"kiosk/internal/service/monitor"
	"kiosk/internal/service/notify"
	"kiosk/internal/service/order"
	"kiosk/internal/service/preview"
	"kiosk/internal/service/storage"
	"kiosk/internal/service/websocket"
)

// ShutdownTimeout bounds the HTTP server shutdown.
const ShutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  *logger.Logger
	manager *service.Manager
	server  *http.Server
	db      *sqlite.DB
	closers []io.Closer
}

// NewApp builds every component from cfg. Camera devices are not touched
// until Run.
func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewLogger(cfg)
	a := &App{config: cfg, logger: log}

	bus := event.NewBus(cfg.EventBuffer, log.Named("bus"))
	hub := websocket.NewHubService(log)
	previews := preview.NewBroadcaster(cfg, log, hub)
	store := monitor.NewScanStore()

	deps := monitor.Deps{
		Opener:  camera.NewOpener(cfg, log, capture.NewDeviceRegistry()),
		Sink:    bus,
		Preview: previews,
		Logger:  log,
	}

	var monitors []service.Monitor

	face, err := ai.NewFaceDetector(cfg, log)
	if err != nil {
		log.Error("Face detector unavailable, presence monitor disabled: %v", err)
	} else {
		a.closers = append(a.closers, face)
		monitors = append(monitors, monitor.NewPresenceMonitor(presenceConfig(cfg), face, deps))
	}

	decoder, err := newBarcodeDecoder(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := decoder.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	monitors = append(monitors, monitor.NewBarcodeMonitor(barcodeConfig(cfg), decoder, store, deps))

	notifier, err := notify.New(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	coordinator := order.NewCoordinator(order.NewClient(cfg), order.NewSessionOpener(cfg, log), notifier, bus, log)

	a.db, err = sqlite.NewMemory()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open event journal: %w", err)
	}
	journal := storage.NewJournalService(cfg, log, sqlite.NewEventRepository(a.db))

	a.manager = service.NewManager(service.Services{
		Bus:         bus,
		Monitors:    monitors,
		Store:       store,
		Coordinator: coordinator,
		Hub:         hub,
		Preview:     previews,
		Journal:     journal,
	}, log)

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           route.SetupRoutes(a.manager, cfg.Password, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func presenceConfig(cfg *config.Config) monitor.PresenceConfig {
	return monitor.PresenceConfig{
		Name:   "presence",
		Device: cfg.PresenceCamera,
		Face: capture.FaceParams{
			ScaleFactor:  cfg.FaceScaleFactor,
			MinNeighbors: cfg.FaceMinNeighbors,
			MinSize:      image.Pt(cfg.FaceMinSize, cfg.FaceMinSize),
		},
		Cooldown:        cfg.DetectionCooldown,
		Policy:          monitor.ParsePolicy(cfg.PresencePolicy),
		PollInterval:    cfg.PollInterval,
		MaxReadFailures: cfg.MaxReadFailures,
	}
}

func barcodeConfig(cfg *config.Config) monitor.BarcodeConfig {
	return monitor.BarcodeConfig{
		Name:            "barcode",
		Device:          cfg.BarcodeCamera,
		PollInterval:    cfg.PollInterval,
		MaxReadFailures: cfg.MaxReadFailures,
	}
}

func newBarcodeDecoder(cfg *config.Config) (capture.BarcodeDecoder, error) {
	switch strings.ToLower(cfg.BarcodeDecoder) {
	case "", "zxing":
		return barcode.NewDecoder(true), nil
	case "opencv":
		return ai.NewQRCodeDecoder(), nil
	default:
		return nil, fmt.Errorf("unknown barcode decoder %q", cfg.BarcodeDecoder)
	}
}

// Manager returns the component manager.
func (a *App) Manager() *service.Manager {
	return a.manager
}

// Run starts the monitors and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.manager.Start(ctx, a.config.AutoStartMonitors)

	go func() {
		checkCtx, cancel := context.WithTimeout(ctx, a.config.OrderAPITimeout)
		defer cancel()
		if err := a.manager.Coordinator().CheckConnection(checkCtx); err == nil {
			a.logger.Info("Ordering service reachable at %s", a.config.OrderAPIURL)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.ListenAndServe()
	}()

	fmt.Printf("🚀 Kiosk Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("📷 Cameras: presence=%d barcode=%d\n", a.config.PresenceCamera, a.config.BarcodeCamera)
	fmt.Printf("🍽  Ordering service: %s\n", a.config.OrderAPIURL)

	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down")
	case err = <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	// no API request may start a camera once the monitors are going down
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if shutdownErr := a.server.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}

	a.manager.Stop()

	a.Close()
	return err
}

// Close releases detectors, the journal database and the log files.
func (a *App) Close() {
	for _, c := range a.closers {
		c.Close()
	}
	a.closers = nil
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	a.logger.Close()
}
