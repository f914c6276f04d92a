package order

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"kiosk/internal/event"
	"kiosk/internal/logger"
	"kiosk/internal/model"
)

// ErrNoCurrentUser is returned when ordering without an identified user.
var ErrNoCurrentUser = errors.New("no user identified")

// Backend is the subset of the ordering service used by the coordinator.
type Backend interface {
	LookupUser(ctx context.Context, barcode string) (*model.User, error)
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderReceipt, error)
	GetMenu(ctx context.Context) (*model.Menu, error)
	Health(ctx context.Context) error
}

// Notifier plays the welcome cue.
type Notifier interface {
	Welcome(ctx context.Context) error
}

// Coordinator consumes pipeline events, resolves scanned badges to users and
// keeps the single current user.
type Coordinator struct {
	backend  Backend
	opener   SessionOpener
	notifier Notifier
	sink     event.Sink
	logger   *logger.Logger
	now      func() time.Time

	// pending welcome cue; a greeting already queued absorbs new ones
	welcome chan struct{}

	current  atomic.Pointer[model.User]
	lookups  atomic.Uint64
	failures atomic.Uint64
}

// NewCoordinator creates a coordinator. Events it produces go to sink.
func NewCoordinator(backend Backend, opener SessionOpener, notifier Notifier, sink event.Sink, logger *logger.Logger) *Coordinator {
	return &Coordinator{
		backend:  backend,
		opener:   opener,
		notifier: notifier,
		sink:     sink,
		logger:   logger.Named("coordinator"),
		now:      time.Now,
		welcome:  make(chan struct{}, 1),
	}
}

// Run plays queued welcome cues until ctx is cancelled. Cues run here
// instead of on the event dispatch goroutine so a slow speaker never delays
// badge lookups.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.welcome:
			if c.notifier == nil {
				continue
			}
			if err := c.notifier.Welcome(ctx); err != nil {
				c.logger.Warning("Welcome notification failed: %v", err)
			}
		}
	}
}

// HandleEvent reacts to PersonDetected and BarcodeScanned.
func (c *Coordinator) HandleEvent(ctx context.Context, ev event.Event) {
	switch ev.Type {
	case event.PersonDetected:
		if c.notifier == nil {
			return
		}
		select {
		case c.welcome <- struct{}{}:
		default:
		}
	case event.BarcodeScanned:
		c.Identify(ctx, ev.Value)
	}
}

// Identify looks up value once. On success the current user is replaced and
// the ordering session is opened; on failure the current user is kept.
func (c *Coordinator) Identify(ctx context.Context, value string) (*model.User, error) {
	c.lookups.Add(1)

	user, err := c.backend.LookupUser(ctx, value)
	if err != nil {
		c.failures.Add(1)
		if errors.Is(err, ErrUserNotFound) {
			c.logger.Warning("No user for barcode %s", value)
		} else {
			c.logger.Error("User lookup for %s failed: %v", value, err)
		}
		ev := event.Error(event.LookupFailed, "coordinator", c.now(), err)
		ev.Value = value
		c.emit(ev)
		return nil, err
	}

	stored := *user
	c.current.Store(&stored)
	c.logger.Info("Identified %s (id %s) from barcode %s", stored.DisplayName(), stored.ID, value)

	ev := event.New(event.UserIdentified, "coordinator", c.now())
	ev.Value = value
	identified := stored
	ev.User = &identified
	c.emit(ev)

	if c.opener != nil {
		if err := c.opener.OpenSession(ctx, stored); err != nil {
			c.logger.Error("Failed to open ordering session: %v", err)
		} else {
			opened := event.New(event.SessionOpened, "coordinator", c.now())
			opened.Value = value
			c.emit(opened)
		}
	}

	out := stored
	return &out, nil
}

func (c *Coordinator) emit(ev event.Event) {
	if c.sink != nil {
		c.sink.Emit(ev)
	}
}

// CurrentUser returns a copy of the current user.
func (c *Coordinator) CurrentUser() (model.User, bool) {
	user := c.current.Load()
	if user == nil {
		return model.User{}, false
	}
	return *user, true
}

// Logout forgets the current user and reports whether there was one.
func (c *Coordinator) Logout() bool {
	previous := c.current.Swap(nil)
	if previous != nil {
		c.logger.Info("%s logged out", previous.DisplayName())
	}
	return previous != nil
}

// PlaceOrder submits items for the current user.
func (c *Coordinator) PlaceOrder(ctx context.Context, items []model.OrderItem) (*model.OrderReceipt, error) {
	user, ok := c.CurrentUser()
	if !ok {
		return nil, ErrNoCurrentUser
	}

	receipt, err := c.backend.CreateOrder(ctx, model.OrderRequest{
		UserID:    user.ID,
		Items:     items,
		Timestamp: c.now().UTC(),
	})
	if err != nil {
		c.logger.Error("Order for %s failed: %v", user.DisplayName(), err)
		return receipt, err
	}
	c.logger.Info("Order %d placed for %s", receipt.OrderID, user.DisplayName())
	return receipt, nil
}

// Menu fetches the menu.
func (c *Coordinator) Menu(ctx context.Context) (*model.Menu, error) {
	return c.backend.GetMenu(ctx)
}

// CheckConnection reports whether the backend answers its health check.
func (c *Coordinator) CheckConnection(ctx context.Context) error {
	if err := c.backend.Health(ctx); err != nil {
		c.logger.Warning("Ordering service unreachable: %v", err)
		return err
	}
	return nil
}

// Stats returns the number of lookups and how many failed.
func (c *Coordinator) Stats() (lookups, failures uint64) {
	return c.lookups.Load(), c.failures.Load()
}
