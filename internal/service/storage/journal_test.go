package storage

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
)

func newTestJournal(t *testing.T, interval time.Duration) *JournalService {
	t.Helper()
	db, err := sqlite.NewMemory()
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{LogDirectory: t.TempDir(), JournalFlushInterval: interval}
	return NewJournalService(cfg, logger.NewLogger(cfg), sqlite.NewEventRepository(db))
}

func TestJournal_BuffersUntilFlush(t *testing.T) {
	j := newTestJournal(t, time.Hour)

	ev := event.New(event.BarcodeScanned, "barcode", time.Now())
	ev.Value = "ADMIN001"
	j.HandleEvent(context.Background(), ev)
	j.HandleEvent(context.Background(), event.New(event.PersonDetected, "presence", time.Now()))

	if j.Pending() != 2 {
		t.Fatalf("Expected 2 pending records, got %d", j.Pending())
	}

	recent, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || j.Pending() != 0 {
		t.Errorf("Expected Recent to flush, got %d stored / %d pending", len(recent), j.Pending())
	}

	counts, err := j.Counts()
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[string(event.BarcodeScanned)] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
}

func TestJournal_RecordsUserName(t *testing.T) {
	j := newTestJournal(t, time.Hour)

	ev := event.New(event.UserIdentified, "coordinator", time.Now())
	ev.User = &model.User{ID: "1", Username: "admin"}
	j.HandleEvent(context.Background(), ev)

	recent, _ := j.Recent(1)
	if len(recent) != 1 || recent[0].Message != "admin" {
		t.Errorf("Expected user name in message, got %+v", recent)
	}
}

func TestJournal_FlushesOnLimit(t *testing.T) {
	j := newTestJournal(t, time.Hour)

	for i := 0; i < JournalBufferLimit; i++ {
		j.HandleEvent(context.Background(), event.New(event.PersonDetected, "presence", time.Now()))
	}
	if j.Pending() != 0 {
		t.Errorf("Expected a flush at the buffer limit, %d pending", j.Pending())
	}
}

func TestJournal_RunFlushesOnStop(t *testing.T) {
	j := newTestJournal(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	j.HandleEvent(context.Background(), event.New(event.MonitorStarted, "presence", time.Now()))
	cancel()
	<-done

	if j.Pending() != 0 {
		t.Errorf("Expected final flush on stop, %d pending", j.Pending())
	}
}

type failingRepo struct {
	mu    sync.Mutex
	fails int
	saved []model.EventRecord
}

func (r *failingRepo) Insert(*model.EventRecord) (int64, error) { return 0, nil }

func (r *failingRepo) InsertBatch(records []model.EventRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("disk on fire")
	}
	r.saved = append(r.saved, records...)
	return nil
}

func (r *failingRepo) GetRecent(int) ([]model.EventRecord, error)         { return r.saved, nil }
func (r *failingRepo) GetByType(string, int) ([]model.EventRecord, error) { return nil, nil }
func (r *failingRepo) CountByType() (map[string]int, error)               { return nil, nil }
func (r *failingRepo) DeleteAll() error                                   { return nil }

func TestJournal_KeepsRecordsOnFailure(t *testing.T) {
	cfg := &config.Config{LogDirectory: t.TempDir()}
	repo := &failingRepo{fails: 1}
	j := NewJournalService(cfg, logger.NewLogger(cfg), repo)

	j.HandleEvent(context.Background(), event.New(event.PersonDetected, "presence", time.Now()))
	j.Flush()
	if j.Pending() != 1 {
		t.Fatalf("Expected record kept after a failed flush, %d pending", j.Pending())
	}
	j.Flush()
	if j.Pending() != 0 || len(repo.saved) != 1 {
		t.Errorf("Expected the retry to save the record")
	}
}
