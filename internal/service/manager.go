package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/service/monitor"
	"kiosk/internal/service/order"
	"kiosk/internal/service/preview"
	"kiosk/internal/service/storage"
	"kiosk/internal/service/websocket"
)

// DrainTimeout bounds event delivery after the monitors stopped.
const DrainTimeout = 5 * time.Second

// ErrUnknownMonitor is returned for a monitor name that is not configured.
var ErrUnknownMonitor = errors.New("unknown monitor")

// ErrNotRunning is returned when starting a monitor before Start or after Stop.
var ErrNotRunning = errors.New("manager not running")

// ErrNoScanner is returned when no barcode monitor is configured.
var ErrNoScanner = errors.New("no barcode monitor configured")

// Monitor is a camera polling task.
type Monitor interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
	Running() bool
}

// Manager owns the monitors and the background services consuming their
// events, and starts and stops them together.
type Manager struct {
	bus         *event.Bus
	monitors    []Monitor
	store       *monitor.ScanStore
	coordinator *order.Coordinator
	hub         *websocket.HubService
	preview     *preview.Broadcaster
	journal     *storage.JournalService
	logger      *logger.Logger

	// mu also serialises StartMonitor with Stop
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// Services groups the collaborators of a Manager.
type Services struct {
	Bus         *event.Bus
	Monitors    []Monitor
	Store       *monitor.ScanStore
	Coordinator *order.Coordinator
	Hub         *websocket.HubService
	Preview     *preview.Broadcaster
	Journal     *storage.JournalService
}

// NewManager wires event consumers onto the bus. Nothing runs until Start.
func NewManager(s Services, logger *logger.Logger) *Manager {
	m := &Manager{
		bus:         s.Bus,
		monitors:    s.Monitors,
		store:       s.Store,
		coordinator: s.Coordinator,
		hub:         s.Hub,
		preview:     s.Preview,
		journal:     s.Journal,
		logger:      logger.Named("manager"),
	}

	if m.coordinator != nil {
		m.bus.Subscribe(m.coordinator)
	}
	if m.journal != nil {
		m.bus.Subscribe(m.journal)
	}
	if m.hub != nil {
		m.bus.Subscribe(m.hub)
	}
	return m
}

// Start launches the background services. With autostart set every monitor
// is started too; a monitor that fails to start is reported and skipped.
func (m *Manager) Start(ctx context.Context, autostart bool) {
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	svcCtx := m.ctx
	m.mu.Unlock()

	m.spawn(func() { m.bus.Run(svcCtx) })
	if m.hub != nil {
		m.spawn(func() { m.hub.Run(svcCtx) })
	}
	if m.preview != nil {
		m.spawn(func() { m.preview.Run(svcCtx) })
	}
	if m.journal != nil {
		m.spawn(func() { m.journal.Run(svcCtx) })
	}
	if m.coordinator != nil {
		m.spawn(func() { m.coordinator.Run(svcCtx) })
	}

	m.logger.Info("Manager started with %d monitor(s)", len(m.monitors))

	if !autostart {
		return
	}
	for _, mon := range m.monitors {
		if err := mon.Start(svcCtx); err != nil {
			m.logger.Error("Monitor %s not started: %v", mon.Name(), err)
		}
	}
}

func (m *Manager) spawn(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fn()
	}()
}

// Stop stops every monitor, waits for their cameras to be released, delivers
// the remaining events and shuts the background services down.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	cancel := m.cancel
	m.mu.Unlock()

	for _, mon := range m.monitors {
		mon.Stop()
	}

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()

	ctx, done := context.WithTimeout(context.Background(), DrainTimeout)
	defer done()
	m.bus.Drain(ctx)
	if m.journal != nil {
		m.journal.Flush()
	}
	m.logger.Info("Manager stopped")
}

// Monitor looks a monitor up by name.
func (m *Manager) Monitor(name string) (Monitor, bool) {
	for _, mon := range m.monitors {
		if mon.Name() == name {
			return mon, true
		}
	}
	return nil, false
}

// StartMonitor starts one monitor under the manager's context.
func (m *Manager) StartMonitor(name string) error {
	mon, ok := m.Monitor(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMonitor, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil || m.stopped {
		return fmt.Errorf("%w: cannot start %s", ErrNotRunning, name)
	}
	return mon.Start(m.ctx)
}

// StopMonitor stops one monitor and waits for it.
func (m *Manager) StopMonitor(name string) error {
	mon, ok := m.Monitor(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMonitor, name)
	}
	mon.Stop()
	return nil
}

// ScanImage decodes a still image with the barcode monitor's decoder and
// records it like a camera frame. It returns the values that were new.
func (m *Manager) ScanImage(frame model.Frame) ([]model.ScanResult, error) {
	for _, mon := range m.monitors {
		if b, ok := mon.(*monitor.BarcodeMonitor); ok {
			return b.ScanFrame(frame)
		}
	}
	return nil, ErrNoScanner
}

// ClearScans empties the scan store so every badge can be scanned again.
func (m *Manager) ClearScans() int {
	n := m.store.Clear()
	ev := event.New(event.StoreCleared, "manager", time.Now())
	ev.Message = fmt.Sprintf("%d scan(s) cleared", n)
	m.bus.Emit(ev)
	m.logger.Info("Cleared %d scan result(s)", n)
	return n
}

// MonitorStatus describes one monitor.
type MonitorStatus struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	State   string `json:"state,omitempty"`
	Held    bool   `json:"held,omitempty"`
}

// Status is a point-in-time summary of the kiosk.
type Status struct {
	Monitors      []MonitorStatus `json:"monitors"`
	Scans         int             `json:"scans"`
	CurrentUser   *model.User     `json:"currentUser"`
	Viewers       int             `json:"viewers"`
	PendingEvents int             `json:"pendingEvents"`
	DroppedEvents uint64          `json:"droppedEvents"`
	Lookups       uint64          `json:"lookups"`
	LookupErrors  uint64          `json:"lookupErrors"`
}

// Status collects the current state of all components.
func (m *Manager) Status() Status {
	s := Status{
		Monitors:      make([]MonitorStatus, 0, len(m.monitors)),
		Scans:         m.store.Len(),
		PendingEvents: m.bus.Pending(),
		DroppedEvents: m.bus.Dropped(),
	}
	for _, mon := range m.monitors {
		ms := MonitorStatus{Name: mon.Name(), Running: mon.Running()}
		if p, ok := mon.(*monitor.PresenceMonitor); ok {
			ms.State = p.State().String()
			ms.Held = p.Held()
		}
		s.Monitors = append(s.Monitors, ms)
	}
	if m.coordinator != nil {
		if user, ok := m.coordinator.CurrentUser(); ok {
			s.CurrentUser = &user
		}
		s.Lookups, s.LookupErrors = m.coordinator.Stats()
	}
	if m.hub != nil {
		s.Viewers = m.hub.GetClientCount()
	}
	return s
}

// Bus returns the event bus.
func (m *Manager) Bus() *event.Bus { return m.bus }

// Store returns the scan store.
func (m *Manager) Store() *monitor.ScanStore { return m.store }

// Coordinator returns the order session coordinator.
func (m *Manager) Coordinator() *order.Coordinator { return m.coordinator }

// GetWebsocketService returns the viewer hub.
func (m *Manager) GetWebsocketService() *websocket.HubService { return m.hub }

// Preview returns the preview broadcaster.
func (m *Manager) Preview() *preview.Broadcaster { return m.preview }

// Journal returns the event journal.
func (m *Manager) Journal() *storage.JournalService { return m.journal }
