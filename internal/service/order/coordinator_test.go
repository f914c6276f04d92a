package order

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
)

type fakeBackend struct {
	users   map[string]model.User
	err     error
	lookups []string
	orders  []model.OrderRequest
}

func (b *fakeBackend) LookupUser(_ context.Context, barcode string) (*model.User, error) {
	b.lookups = append(b.lookups, barcode)
	if b.err != nil {
		return nil, b.err
	}
	u, ok := b.users[barcode]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (b *fakeBackend) CreateOrder(_ context.Context, req model.OrderRequest) (*model.OrderReceipt, error) {
	b.orders = append(b.orders, req)
	return &model.OrderReceipt{Success: true, OrderID: int64(len(b.orders))}, nil
}

func (b *fakeBackend) GetMenu(context.Context) (*model.Menu, error) {
	return &model.Menu{}, nil
}

func (b *fakeBackend) Health(context.Context) error {
	return b.err
}

type fakeOpener struct {
	opened []model.User
	err    error
}

func (o *fakeOpener) OpenSession(_ context.Context, user model.User) error {
	o.opened = append(o.opened, user)
	return o.err
}

// fakeNotifier reports every Welcome on calls. With release set, Welcome
// blocks until it is closed.
type fakeNotifier struct {
	calls   chan struct{}
	release chan struct{}
	err     error
}

func (n *fakeNotifier) Welcome(ctx context.Context) error {
	n.calls <- struct{}{}
	if n.release != nil {
		select {
		case <-n.release:
		case <-ctx.Done():
		}
	}
	return n.err
}

func (n *fakeNotifier) waitCall(t *testing.T) {
	t.Helper()
	select {
	case <-n.calls:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for a welcome cue")
	}
}

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Emit(ev event.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Type
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeBackend, *fakeOpener, *fakeNotifier, *recorder) {
	t.Helper()
	backend := &fakeBackend{users: map[string]model.User{
		"ADMIN001":  {ID: "1", Username: "admin", BarcodeID: "ADMIN001"},
		"123456789": {ID: "2", Username: "alice", BarcodeID: "123456789"},
	}}
	opener := &fakeOpener{}
	notifier := &fakeNotifier{calls: make(chan struct{}, 16)}
	rec := &recorder{}
	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	return NewCoordinator(backend, opener, notifier, rec, log), backend, opener, notifier, rec
}

func scanned(value string) event.Event {
	ev := event.New(event.BarcodeScanned, "barcode", baseline)
	ev.Value = value
	return ev
}

func TestCoordinator_IdentifiesAndOpensSessionOnce(t *testing.T) {
	c, backend, opener, _, rec := newTestCoordinator(t)

	c.HandleEvent(context.Background(), scanned("ADMIN001"))

	user, ok := c.CurrentUser()
	if !ok || user.Username != "admin" {
		t.Fatalf("Expected admin as current user, got %+v (%v)", user, ok)
	}
	if len(backend.lookups) != 1 {
		t.Errorf("Expected one lookup, got %d", len(backend.lookups))
	}
	if len(opener.opened) != 1 {
		t.Errorf("Expected the session to open exactly once, got %d", len(opener.opened))
	}

	types := rec.types()
	if len(types) != 2 || types[0] != event.UserIdentified || types[1] != event.SessionOpened {
		t.Errorf("Unexpected events %v", types)
	}
}

func TestCoordinator_ReplacesCurrentUser(t *testing.T) {
	c, _, opener, _, _ := newTestCoordinator(t)

	c.HandleEvent(context.Background(), scanned("ADMIN001"))
	c.HandleEvent(context.Background(), scanned("123456789"))

	user, _ := c.CurrentUser()
	if user.Username != "alice" {
		t.Errorf("Expected alice to replace admin, got %s", user.Username)
	}
	if len(opener.opened) != 2 {
		t.Errorf("Expected one session per successful lookup, got %d", len(opener.opened))
	}
}

func TestCoordinator_NotFoundKeepsCurrentUser(t *testing.T) {
	c, backend, opener, _, rec := newTestCoordinator(t)

	c.HandleEvent(context.Background(), scanned("ADMIN001"))
	c.HandleEvent(context.Background(), scanned("UNREGISTERED"))

	user, ok := c.CurrentUser()
	if !ok || user.Username != "admin" {
		t.Errorf("Failed lookup must leave the current user unchanged, got %+v", user)
	}
	if len(backend.lookups) != 2 {
		t.Errorf("Expected no retry, got %d lookups", len(backend.lookups))
	}
	if len(opener.opened) != 1 {
		t.Errorf("No session may open on a failed lookup")
	}

	types := rec.types()
	if types[len(types)-1] != event.LookupFailed {
		t.Errorf("Expected LookupFailed, got %v", types)
	}
	if _, failures := c.Stats(); failures != 1 {
		t.Errorf("Expected 1 failure, got %d", failures)
	}
}

func TestCoordinator_TransportErrorKeepsNoUser(t *testing.T) {
	c, backend, _, _, _ := newTestCoordinator(t)
	backend.err = ErrUnavailable

	if _, err := c.Identify(context.Background(), "ADMIN001"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	if _, ok := c.CurrentUser(); ok {
		t.Error("Expected no current user")
	}
}

func TestCoordinator_OpenerFailureStillIdentifies(t *testing.T) {
	c, _, opener, _, rec := newTestCoordinator(t)
	opener.err = errors.New("no browser")

	c.HandleEvent(context.Background(), scanned("ADMIN001"))

	if _, ok := c.CurrentUser(); !ok {
		t.Error("Expected user to be identified")
	}
	for _, typ := range rec.types() {
		if typ == event.SessionOpened {
			t.Error("SessionOpened must not be emitted when the opener fails")
		}
	}
}

func TestCoordinator_PersonDetectedNotifies(t *testing.T) {
	c, _, _, notifier, _ := newTestCoordinator(t)
	notifier.err = errors.New("no speaker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.HandleEvent(ctx, event.New(event.PersonDetected, "presence", baseline))
	notifier.waitCall(t)
	c.HandleEvent(ctx, event.New(event.PersonDetected, "presence", baseline))
	notifier.waitCall(t)
}

func TestCoordinator_SlowWelcomeDoesNotDelayLookup(t *testing.T) {
	c, _, opener, notifier, _ := newTestCoordinator(t)
	notifier.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	c.HandleEvent(ctx, event.New(event.PersonDetected, "presence", baseline))
	notifier.waitCall(t)

	// the cue is stuck; further greetings coalesce and lookups go through
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.HandleEvent(ctx, event.New(event.PersonDetected, "presence", baseline))
		c.HandleEvent(ctx, event.New(event.PersonDetected, "presence", baseline))
		c.HandleEvent(ctx, scanned("ADMIN001"))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleEvent blocked behind the welcome cue")
	}

	if user, ok := c.CurrentUser(); !ok || user.Username != "admin" {
		t.Errorf("Expected admin identified while the cue was playing, got %+v (%v)", user, ok)
	}
	if len(opener.opened) != 1 {
		t.Errorf("Expected one session, got %d", len(opener.opened))
	}

	close(notifier.release)
	notifier.waitCall(t)
	select {
	case <-notifier.calls:
		t.Error("Expected queued greetings to coalesce into one cue")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCoordinator_PlaceOrder(t *testing.T) {
	c, backend, _, _, _ := newTestCoordinator(t)
	items := []model.OrderItem{{DishID: 3, Quantity: 2}}

	if _, err := c.PlaceOrder(context.Background(), items); !errors.Is(err, ErrNoCurrentUser) {
		t.Fatalf("Expected ErrNoCurrentUser, got %v", err)
	}

	c.HandleEvent(context.Background(), scanned("123456789"))
	receipt, err := c.PlaceOrder(context.Background(), items)
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if !receipt.Success {
		t.Error("Expected a successful receipt")
	}
	if len(backend.orders) != 1 || backend.orders[0].UserID != "2" {
		t.Errorf("Unexpected orders %+v", backend.orders)
	}

	if !c.Logout() {
		t.Error("Expected Logout to report a user")
	}
	if c.Logout() {
		t.Error("Second Logout must report no user")
	}
	if _, err := c.PlaceOrder(context.Background(), items); !errors.Is(err, ErrNoCurrentUser) {
		t.Errorf("Expected ErrNoCurrentUser after logout, got %v", err)
	}
}

func TestCoordinator_CurrentUserIsCopy(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator(t)
	c.HandleEvent(context.Background(), scanned("ADMIN001"))

	user, _ := c.CurrentUser()
	user.Username = "mallory"

	if again, _ := c.CurrentUser(); again.Username != "admin" {
		t.Errorf("CurrentUser leaked internal state: %s", again.Username)
	}
}
