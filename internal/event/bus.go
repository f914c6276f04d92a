package event

import (
	"context"
	"sync"
	"sync/atomic"

	"kiosk/internal/logger"
)

// Handler consumes events on the bus goroutine.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event)

// HandleEvent calls f(ctx, ev).
func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// Bus is a bounded one-way event queue with a single dispatch goroutine.
// Emit never blocks: when the queue is full the event is dropped.
type Bus struct {
	queue    chan Event
	handlers []Handler
	dropped  uint64
	logger   *logger.Logger

	mu sync.RWMutex
}

// NewBus creates a bus holding at most capacity pending events.
func NewBus(capacity int, logger *logger.Logger) *Bus {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bus{
		queue:  make(chan Event, capacity),
		logger: logger,
	}
}

// Subscribe registers h. Handlers run in registration order.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit enqueues ev without waiting. It reports false if the queue was full
// and the event was dropped.
func (b *Bus) Emit(ev Event) bool {
	select {
	case b.queue <- ev:
		return true
	default:
		atomic.AddUint64(&b.dropped, 1)
		b.logger.Warning("Event queue full - dropping %s from %s", ev.Type, ev.Source)
		return false
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (b *Bus) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Run dispatches events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	b.logger.Info("Event bus started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Event bus stopped")
			return
		case ev := <-b.queue:
			b.dispatch(ctx, ev)
		}
	}
}

// Drain dispatches whatever is queued right now and returns.
func (b *Bus) Drain(ctx context.Context) {
	for {
		select {
		case ev := <-b.queue:
			b.dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		b.safeHandle(ctx, h, ev)
	}
}

// safeHandle keeps one failing consumer from stopping delivery to the rest.
func (b *Bus) safeHandle(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked on %s: %v", ev.Type, r)
		}
	}()
	h.HandleEvent(ctx, ev)
}
