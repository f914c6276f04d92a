package storage

import (
	"context"
	"sync"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/repository"
)

// JournalBufferLimit forces a flush once this many records are pending.
const JournalBufferLimit = 100

// JournalService buffers pipeline events in memory and periodically flushes
// them to the event repository.
type JournalService struct {
	records       []model.EventRecord
	mu            sync.Mutex
	flushInterval time.Duration
	logger        *logger.Logger
	eventRepo     repository.EventRepository
}

// NewJournalService creates a journal writing to eventRepo.
func NewJournalService(config *config.Config, logger *logger.Logger, eventRepo repository.EventRepository) *JournalService {
	interval := config.JournalFlushInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &JournalService{
		records:       make([]model.EventRecord, 0),
		flushInterval: interval,
		logger:        logger.Named("journal"),
		eventRepo:     eventRepo,
	}
}

// Run flushes on a ticker until ctx is cancelled, then flushes once more.
func (s *JournalService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Flush()
			return
		case <-ticker.C:
			s.Flush()
		}
	}
}

// HandleEvent appends ev to the buffer.
func (s *JournalService) HandleEvent(_ context.Context, ev event.Event) {
	rec := model.EventRecord{
		EventID:   ev.ID,
		Type:      string(ev.Type),
		Source:    ev.Source,
		Value:     ev.Value,
		Symbology: ev.Symbology,
		Message:   ev.Message,
		CreatedAt: ev.Time,
	}
	if ev.User != nil && rec.Message == "" {
		rec.Message = ev.User.DisplayName()
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	full := len(s.records) >= JournalBufferLimit
	s.mu.Unlock()

	if full {
		s.Flush()
	}
}

// Pending returns the number of buffered records.
func (s *JournalService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Flush writes buffered records to the repository and resets the buffer.
// Records are kept for the next flush when the write fails.
func (s *JournalService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return
	}

	if err := s.eventRepo.InsertBatch(s.records); err != nil {
		s.logger.Error("Error saving events to database: %v", err)
		return
	}

	s.logger.Info("Flushed %d events", len(s.records))
	s.records = s.records[:0]
}

// Recent flushes and returns up to limit events, newest first.
func (s *JournalService) Recent(limit int) ([]model.EventRecord, error) {
	s.Flush()
	return s.eventRepo.GetRecent(limit)
}

// Counts flushes and returns the number of events per type.
func (s *JournalService) Counts() (map[string]int, error) {
	s.Flush()
	return s.eventRepo.CountByType()
}
