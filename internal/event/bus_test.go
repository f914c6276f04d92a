package event

import (
	"context"
	"testing"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

func TestBus_EmitDoesNotBlockWhenFull(t *testing.T) {
	bus := NewBus(2, newTestLogger(t))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Emit(New(PersonDetected, "presence", time.Now()))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full queue")
	}

	if bus.Pending() != 2 {
		t.Errorf("Expected 2 pending events, got %d", bus.Pending())
	}
	if bus.Dropped() != 8 {
		t.Errorf("Expected 8 dropped events, got %d", bus.Dropped())
	}
}

func TestBus_EmitReportsDrop(t *testing.T) {
	bus := NewBus(1, newTestLogger(t))

	if !bus.Emit(New(BarcodeScanned, "barcode", time.Now())) {
		t.Error("Expected the first event to be queued")
	}
	if bus.Emit(New(BarcodeScanned, "barcode", time.Now())) {
		t.Error("Expected Emit to report the dropped event")
	}
}

func TestBus_DispatchInOrder(t *testing.T) {
	bus := NewBus(16, newTestLogger(t))

	var got []string
	bus.Subscribe(HandlerFunc(func(ctx context.Context, ev Event) {
		got = append(got, ev.Value)
	}))

	for _, v := range []string{"a", "b", "c"} {
		ev := New(BarcodeScanned, "barcode", time.Now())
		ev.Value = v
		bus.Emit(ev)
	}
	bus.Drain(context.Background())

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Expected [a b c], got %v", got)
	}
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewBus(4, newTestLogger(t))

	calls := 0
	bus.Subscribe(HandlerFunc(func(ctx context.Context, ev Event) {
		panic("boom")
	}))
	bus.Subscribe(HandlerFunc(func(ctx context.Context, ev Event) {
		calls++
	}))

	bus.Emit(New(PersonDetected, "presence", time.Now()))
	bus.Drain(context.Background())

	if calls != 1 {
		t.Errorf("Expected second handler to run once, got %d", calls)
	}
}

func TestBus_RunStopsOnCancel(t *testing.T) {
	bus := NewBus(4, newTestLogger(t))
	received := make(chan Event, 1)
	bus.Subscribe(HandlerFunc(func(ctx context.Context, ev Event) {
		received <- ev
	}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		bus.Run(ctx)
		close(stopped)
	}()

	bus.Emit(New(MonitorStarted, "presence", time.Now()))
	select {
	case ev := <-received:
		if ev.Type != MonitorStarted {
			t.Errorf("Unexpected event %s", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not dispatched")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_AssignsUniqueIDs(t *testing.T) {
	a := New(PersonDetected, "x", time.Now())
	b := New(PersonDetected, "x", time.Now())
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}
