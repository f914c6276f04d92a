package repository

import "kiosk/internal/model"

// EventRepository defines the interface for journaled event operations.
type EventRepository interface {
	// Create operations
	Insert(rec *model.EventRecord) (int64, error)
	InsertBatch(records []model.EventRecord) error

	// Read operations
	GetRecent(limit int) ([]model.EventRecord, error)
	GetByType(eventType string, limit int) ([]model.EventRecord, error)
	CountByType() (map[string]int, error)

	// Delete operations
	DeleteAll() error
}
