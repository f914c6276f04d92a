package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kiosk/internal/capture"
	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/model"
)

var (
	// ErrAlreadyRunning is returned by Start on a running monitor.
	ErrAlreadyRunning = errors.New("monitor already running")
	// ErrStartFailed wraps camera open failures. It is terminal for that start attempt.
	ErrStartFailed = errors.New("monitor start failed")
)

// FramePublisher receives every successfully read frame. Publish must not block.
type FramePublisher interface {
	Publish(frame model.Frame)
}

// Deps are the collaborators shared by both monitors.
type Deps struct {
	Opener  capture.Opener
	Sink    event.Sink
	Preview FramePublisher
	Logger  *logger.Logger
	Now     func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// frameTime is the timestamp used for state transitions: the capture time when
// the source provides one.
func (d Deps) frameTime(frame model.Frame) time.Time {
	if !frame.CapturedAt.IsZero() {
		return frame.CapturedAt
	}
	return d.now()
}

// task runs one polling goroutine that exclusively owns a FrameSource.
type task struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *task) running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aliveLocked()
}

func (t *task) aliveLocked() bool {
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// launch opens the source and hands it to a new goroutine running run. The
// source is closed when run returns, before the task counts as exited.
func (t *task) launch(parent context.Context, open func() (capture.FrameSource, error), run func(ctx context.Context, src capture.FrameSource)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.aliveLocked() {
		return ErrAlreadyRunning
	}

	src, err := open()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		defer cancel()
		defer src.Close()
		run(ctx, src)
	}()
	return nil
}

// stop cancels the goroutine and waits for it to exit. Safe on a task that
// never started.
func (t *task) stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// poller is the loop shared by both monitors: read, process, publish, wait.
// Cancellation is checked once per iteration.
type poller struct {
	name            string
	interval        time.Duration
	maxReadFailures int
	deps            Deps
	logger          *logger.Logger
}

func (p *poller) run(ctx context.Context, src capture.FrameSource, process func(frame model.Frame)) {
	interval := p.interval
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	failures := 0
	degraded := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := src.Read()
		if err != nil {
			failures++
			if p.maxReadFailures > 0 && failures >= p.maxReadFailures && !degraded {
				degraded = true
				p.logger.Warning("%d consecutive frame reads failed: %v", failures, err)
				ev := event.Error(event.ReadDegraded, p.name, p.deps.now(), err)
				p.deps.Sink.Emit(ev)
			}
		} else {
			if degraded {
				p.logger.Info("Frame reads recovered after %d failures", failures)
			}
			failures = 0
			degraded = false

			if frame.Source == "" {
				frame.Source = p.name
			}
			process(frame)
			if p.deps.Preview != nil {
				p.deps.Preview.Publish(frame)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// safely converts a panic inside a detector call into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return fn()
}

// startFailure reports a failed open and builds the error returned by Start.
func startFailure(name string, deps Deps, log *logger.Logger, cause error) error {
	err := fmt.Errorf("%s: %w: %w", name, ErrStartFailed, cause)
	log.Error("Failed to start: %v", cause)
	deps.Sink.Emit(event.Error(event.MonitorError, name, deps.now(), err))
	return err
}
