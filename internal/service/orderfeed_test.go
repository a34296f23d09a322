package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/feed"
	"github.com/mmeshcher/dosirak-shop/internal/identity"
	"github.com/mmeshcher/dosirak-shop/internal/model"
	"github.com/mmeshcher/dosirak-shop/internal/session"
)

type orderNotifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func (n *orderNotifier) Listen(ctx context.Context, channel string) (<-chan struct{}, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ch = make(chan struct{}, 1)
	return n.ch, nil
}

func (n *orderNotifier) fire() {
	n.mu.Lock()
	ch := n.ch
	n.mu.Unlock()
	ch <- struct{}{}
}

type orderTable struct {
	mu     sync.Mutex
	orders []model.Order
}

func (o *orderTable) set(orders ...model.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders = orders
}

func (o *orderTable) load(ctx context.Context) ([]model.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.Order(nil), o.orders...), nil
}

type gateFixture struct {
	svc      *Service
	gate     *feed.Gate[model.Order]
	notifier *orderNotifier
	table    *orderTable
	auth     *stubAuth
	sessions *session.Manager
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	notifier := &orderNotifier{}
	table := &orderTable{}
	table.set(model.Order{ID: "o1", TotalAmount: 8000})

	orderFeed := feed.New[model.Order]("orders", "orders_changed", table.load, notifier, zap.NewNop())
	gate := feed.NewGate(context.Background(), orderFeed)
	t.Cleanup(orderFeed.Stop)

	auth := &stubAuth{}
	repo := newStubRepo()
	svc := NewService(Deps{
		Catalog:  &stubCatalog{},
		Orders:   gate,
		Auth:     auth,
		Store:    repo,
		Location: seoul,
		Logger:   zap.NewNop(),
	})

	return &gateFixture{
		svc:      svc,
		gate:     gate,
		notifier: notifier,
		table:    table,
		auth:     auth,
		sessions: session.NewManager(time.Hour, seoul, zap.NewNop()),
	}
}

func (g *gateFixture) signIn(t *testing.T, sess *session.Session, uid string, isAdmin bool) {
	t.Helper()
	g.auth.profile = model.UserProfile{ID: uid, Email: uid + "@dosirak.kr", IsAdmin: isAdmin}
	_, err := g.svc.SignIn(context.Background(), sess, identity.SignInRequest{Credential: "c"})
	require.NoError(t, err)
}

type orderSink struct {
	ch chan []model.Order
}

func newOrderSink() *orderSink {
	return &orderSink{ch: make(chan []model.Order, 8)}
}

func (s *orderSink) push(orders []model.Order) {
	select {
	case s.ch <- orders:
	default:
	}
}

func (s *orderSink) recv(t *testing.T) []model.Order {
	t.Helper()
	select {
	case orders := <-s.ch:
		return orders
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for order snapshot")
		return nil
	}
}

func (s *orderSink) assertSilent(t *testing.T) {
	t.Helper()
	assert.Never(t, func() bool { return len(s.ch) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func assertDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("order stream context is still active")
	}
}

func TestSubscribeOrders_RevokedOnSignOut(t *testing.T) {
	g := newGateFixture(t)
	a, b := g.sessions.Create(), g.sessions.Create()
	g.signIn(t, a, "admin-a", true)
	g.signIn(t, b, "admin-b", true)
	require.Equal(t, 2, g.gate.Holders())

	aSink, bSink := newOrderSink(), newOrderSink()
	aCtx, aStop, err := g.svc.SubscribeOrders(context.Background(), a, aSink.push)
	require.NoError(t, err)
	defer aStop()
	_, bStop, err := g.svc.SubscribeOrders(context.Background(), b, bSink.push)
	require.NoError(t, err)
	defer bStop()

	assert.Len(t, aSink.recv(t), 1)
	assert.Len(t, bSink.recv(t), 1)

	g.svc.SignOut(a)
	assertDone(t, aCtx)
	assert.Equal(t, 1, g.gate.Holders())
	assert.True(t, g.gate.Feed().Running())

	g.table.set(model.Order{ID: "o1", TotalAmount: 8000}, model.Order{ID: "o2", TotalAmount: 5000})
	g.notifier.fire()

	assert.Len(t, bSink.recv(t), 2)
	aSink.assertSilent(t)
}

func TestSubscribeOrders_RevokedOnExpire(t *testing.T) {
	g := newGateFixture(t)
	a, b := g.sessions.Create(), g.sessions.Create()
	g.signIn(t, a, "admin-a", true)
	g.signIn(t, b, "admin-b", true)

	sink := newOrderSink()
	ctx, stop, err := g.svc.SubscribeOrders(context.Background(), a, sink.push)
	require.NoError(t, err)
	defer stop()
	sink.recv(t)

	g.svc.Expire(a)
	assertDone(t, ctx)
	assert.Equal(t, 1, g.gate.Holders())

	g.notifier.fire()
	sink.assertSilent(t)
}

func TestSubscribeOrders_RevokedWhenSignedInAsCustomer(t *testing.T) {
	g := newGateFixture(t)
	a, b := g.sessions.Create(), g.sessions.Create()
	g.signIn(t, a, "admin-a", true)
	g.signIn(t, b, "admin-b", true)

	sink := newOrderSink()
	ctx, stop, err := g.svc.SubscribeOrders(context.Background(), a, sink.push)
	require.NoError(t, err)
	defer stop()
	sink.recv(t)

	g.signIn(t, a, "admin-a", false)
	assertDone(t, ctx)
	assert.Equal(t, 1, g.gate.Holders())

	g.notifier.fire()
	sink.assertSilent(t)

	_, _, err = g.svc.SubscribeOrders(context.Background(), a, sink.push)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubscribeOrders_RevokedOnIdentityChange(t *testing.T) {
	g := newGateFixture(t)
	a := g.sessions.Create()
	g.signIn(t, a, "admin-a", true)

	sink := newOrderSink()
	ctx, stop, err := g.svc.SubscribeOrders(context.Background(), a, sink.push)
	require.NoError(t, err)
	defer stop()
	sink.recv(t)

	g.signIn(t, a, "admin-c", true)
	assertDone(t, ctx)
	assert.Equal(t, 1, g.gate.Holders(), "same session keeps a single hold")
}

func TestOrderFeed_StopsWithLastAdmin(t *testing.T) {
	g := newGateFixture(t)
	a, b := g.sessions.Create(), g.sessions.Create()

	g.signIn(t, a, "admin-a", true)
	g.signIn(t, b, "admin-b", true)
	assert.True(t, g.gate.Feed().Running())

	g.svc.SignOut(a)
	assert.True(t, g.gate.Feed().Running())

	g.svc.Expire(b)
	assert.Equal(t, 0, g.gate.Holders())
	assert.False(t, g.gate.Feed().Running())

	_, ready := g.gate.Snapshot()
	assert.False(t, ready)
}

func TestStopOrderSubscription_Untracks(t *testing.T) {
	g := newGateFixture(t)
	a := g.sessions.Create()
	g.signIn(t, a, "admin-a", true)

	sink := newOrderSink()
	ctx, stop, err := g.svc.SubscribeOrders(context.Background(), a, sink.push)
	require.NoError(t, err)
	sink.recv(t)

	stop()
	assertDone(t, ctx)

	a.Lock()
	pending := a.TakeAdminStreams()
	a.Unlock()
	assert.Empty(t, pending)

	g.notifier.fire()
	sink.assertSilent(t)
}

func TestSignInSignOut_ConcurrentHoldsBalance(t *testing.T) {
	g := newGateFixture(t)
	g.signIn(t, g.sessions.Create(), "admin", true)

	var wg sync.WaitGroup
	sessions := make([]*session.Session, 0, 50)
	for i := 0; i < 50; i++ {
		sess := g.sessions.Create()
		sessions = append(sessions, sess)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = g.svc.SignIn(context.Background(), sess, identity.SignInRequest{Credential: "c"})
		}()
		go func() {
			defer wg.Done()
			g.svc.SignOut(sess)
		}()
	}
	wg.Wait()

	held := 1
	for _, s := range sessions {
		s.Lock()
		if s.OrderFeedHeld {
			held++
		}
		s.Unlock()
	}
	assert.Equal(t, held, g.gate.Holders())
}
