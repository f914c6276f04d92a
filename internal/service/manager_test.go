package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/repository/sqlite"
	"kiosk/internal/service/monitor"
	"kiosk/internal/service/storage"
)

type fakeMonitor struct {
	name     string
	startErr error

	mu      sync.Mutex
	running bool
	starts  int
	stops   int
}

func (m *fakeMonitor) Name() string { return m.name }

func (m *fakeMonitor) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	if m.startErr != nil {
		return m.startErr
	}
	m.running = true
	return nil
}

func (m *fakeMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.running = false
}

func (m *fakeMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func newTestManager(t *testing.T, monitors ...Monitor) (*Manager, *storage.JournalService) {
	t.Helper()
	cfg := &config.Config{LogDirectory: t.TempDir(), JournalFlushInterval: time.Hour}
	log := logger.NewLogger(cfg)

	db, err := sqlite.NewMemory()
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	journal := storage.NewJournalService(cfg, log, sqlite.NewEventRepository(db))
	m := NewManager(Services{
		Bus:      event.NewBus(16, log),
		Monitors: monitors,
		Store:    monitor.NewScanStore(),
		Journal:  journal,
	}, log)
	return m, journal
}

func TestManager_AutostartSkipsFailingMonitor(t *testing.T) {
	good := &fakeMonitor{name: "presence"}
	bad := &fakeMonitor{name: "barcode", startErr: errors.New("camera 1 did not open")}
	m, _ := newTestManager(t, good, bad)

	m.Start(context.Background(), true)
	defer m.Stop()

	if !good.Running() {
		t.Error("Expected the healthy monitor to run")
	}
	if bad.Running() {
		t.Error("Failing monitor must not run")
	}

	status := m.Status()
	if len(status.Monitors) != 2 || !status.Monitors[0].Running || status.Monitors[1].Running {
		t.Errorf("Unexpected status %+v", status.Monitors)
	}
}

func TestManager_StartStopByName(t *testing.T) {
	mon := &fakeMonitor{name: "presence"}
	m, _ := newTestManager(t, mon)

	if err := m.StartMonitor("presence"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning before the manager started, got %v", err)
	}

	m.Start(context.Background(), false)
	defer m.Stop()

	if mon.Running() {
		t.Fatal("Monitor must not start without autostart")
	}
	if err := m.StartMonitor("presence"); err != nil {
		t.Fatalf("StartMonitor failed: %v", err)
	}
	if err := m.StopMonitor("presence"); err != nil || mon.Running() {
		t.Errorf("StopMonitor failed: %v", err)
	}
	if err := m.StartMonitor("missing"); !errors.Is(err, ErrUnknownMonitor) {
		t.Errorf("Expected ErrUnknownMonitor, got %v", err)
	}
}

func TestManager_StopStopsMonitorsAndDrains(t *testing.T) {
	mon := &fakeMonitor{name: "presence"}
	m, journal := newTestManager(t, mon)
	m.Start(context.Background(), true)

	m.Store().Add(model.ScanResult{Value: "ADMIN001"})
	if n := m.ClearScans(); n != 1 {
		t.Errorf("Expected 1 cleared scan, got %d", n)
	}

	m.Stop()

	if mon.Running() {
		t.Error("Expected monitor stopped")
	}
	counts, err := journal.Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[string(event.StoreCleared)] != 1 {
		t.Errorf("Expected the StoreCleared event to reach the journal, got %v", counts)
	}
}

func TestManager_NoMonitorStartAfterStop(t *testing.T) {
	mon := &fakeMonitor{name: "presence"}
	m, _ := newTestManager(t, mon)
	m.Start(context.Background(), false)
	m.Stop()

	if err := m.StartMonitor("presence"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning after Stop, got %v", err)
	}
	if mon.Running() {
		t.Error("A stopped manager must not start monitors")
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	mon := &fakeMonitor{name: "presence"}
	m, _ := newTestManager(t, mon)

	m.Stop()

	if mon.stops != 1 {
		t.Errorf("Expected Stop to reach the monitor, got %d", mon.stops)
	}
}
