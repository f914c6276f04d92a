package event

import (
	"time"

	"kiosk/internal/model"

	"github.com/google/uuid"
)

// Type names a pipeline event.
type Type string

const (
	PersonDetected Type = "person_detected"
	BarcodeScanned Type = "barcode_scanned"
	MonitorStarted Type = "monitor_started"
	MonitorStopped Type = "monitor_stopped"
	MonitorError   Type = "monitor_error"
	ReadDegraded   Type = "read_degraded"
	UserIdentified Type = "user_identified"
	LookupFailed   Type = "lookup_failed"
	SessionOpened  Type = "session_opened"
	StoreCleared   Type = "store_cleared"
)

// Event is an immutable notification flowing from a producer to consumers.
type Event struct {
	ID        string               `json:"id"`
	Type      Type                 `json:"type"`
	Source    string               `json:"source"`
	Time      time.Time            `json:"time"`
	Value     string               `json:"value,omitempty"`
	Symbology string               `json:"symbology,omitempty"`
	Faces     []model.DetectionBox `json:"faces,omitempty"`
	User      *model.User          `json:"user,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// New creates an event with a fresh id.
func New(t Type, source string, at time.Time) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   t,
		Source: source,
		Time:   at,
	}
}

// Error creates a MonitorError-style event carrying err's text.
func Error(t Type, source string, at time.Time, err error) Event {
	ev := New(t, source, at)
	if err != nil {
		ev.Message = err.Error()
	}
	return ev
}

// Sink receives events. Implementations must not block the caller.
// Emit reports false when the event was discarded.
type Sink interface {
	Emit(ev Event) bool
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event) bool

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) bool { return f(ev) }
