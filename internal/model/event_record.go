package model

import "time"

// EventRecord is a journaled pipeline event.
type EventRecord struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"eventId"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Value     string    `json:"value,omitempty"`
	Symbology string    `json:"symbology,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
