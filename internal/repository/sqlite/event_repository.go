package sqlite

import (
	"database/sql"
	"fmt"

	"kiosk/internal/model"
)

const eventColumns = `id, event_id, type, source, value, symbology, message, created_at`

// EventRepository implements repository.EventRepository for SQLite.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert adds a single event record.
func (r *EventRepository) Insert(rec *model.EventRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO events (event_id, type, source, value, symbology, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.EventID, rec.Type, rec.Source, rec.Value, rec.Symbology, rec.Message, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch adds multiple events in a single transaction. Records whose
// event id is already stored are skipped.
func (r *EventRepository) InsertBatch(records []model.EventRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO events (event_id, type, source, value, symbology, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.EventID, rec.Type, rec.Source, rec.Value, rec.Symbology, rec.Message, rec.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	return tx.Commit()
}

// GetRecent returns up to limit events, newest first.
func (r *EventRepository) GetRecent(limit int) ([]model.EventRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT `+eventColumns+`
		FROM events ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByType returns up to limit events of one type, newest first.
func (r *EventRepository) GetByType(eventType string, limit int) ([]model.EventRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT `+eventColumns+`
		FROM events WHERE type = ? ORDER BY created_at DESC, id DESC LIMIT ?
	`, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountByType returns the number of stored events per type.
func (r *EventRepository) CountByType() (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT type, COUNT(*) FROM events GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var n int
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[eventType] = n
	}

	return counts, rows.Err()
}

// DeleteAll removes every event.
func (r *EventRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]model.EventRecord, error) {
	records := []model.EventRecord{}
	for rows.Next() {
		var rec model.EventRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Type, &rec.Source, &rec.Value, &rec.Symbology, &rec.Message, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
