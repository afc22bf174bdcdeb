package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ws "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func fastOptions(url string) Options {
	return Options{
		URL:                  url,
		Token:                "admin-token",
		IdentifyDelay:        10 * time.Millisecond,
		PingInterval:         time.Hour,
		MaxReconnectAttempts: 3,
		BaseBackoff:          5 * time.Millisecond,
		MaxBackoff:           20 * time.Millisecond,
		Logger:               testLogger(),
	}
}

// startHubServer serves the real notification hub and records the
// Authorization header of each upgrade.
func startHubServer(t *testing.T) (*ws.Hub, *httptest.Server, *atomic.Value) {
	t.Helper()
	hub := ws.NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	require.Eventually(t, hub.Running, time.Second, time.Millisecond)

	var authHeader atomic.Value
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader.Store(r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.NewClient(hub, conn, uuid.New(), ws.DefaultClientConfig(), testLogger()).Start()
	}))
	t.Cleanup(srv.Close)
	return hub, srv, &authHeader
}

func sampleOrder() *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1",
		Status:      domain.OrderStatusPending,
		TotalAmount: 250,
		Items:       []domain.OrderItem{{Name: "Thali", Quantity: 2, Price: 125}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestClient_ReceivesOrderUpdates(t *testing.T) {
	hub, srv, authHeader := startHubServer(t)

	statuses := make(chan domain.ConnectionStatus, 1)
	updates := make(chan domain.OrderUpdate, 4)
	opts := fastOptions(wsURL(srv))
	opts.OnStatus = func(s domain.ConnectionStatus) { statuses <- s }
	opts.OnOrderUpdate = func(u domain.OrderUpdate) { updates <- u }

	client := NewClient(opts)
	t.Cleanup(client.Close)
	require.NoError(t, client.Connect(context.Background()))

	select {
	case status := <-statuses:
		assert.Equal(t, "connected", status.Status)
		assert.Equal(t, 1, status.ClientsCount)
	case <-time.After(2 * time.Second):
		t.Fatal("no connection status")
	}
	assert.True(t, client.Connected())
	assert.Equal(t, "Bearer admin-token", authHeader.Load())

	order := sampleOrder()
	require.NoError(t, hub.Publish(domain.OrderEventCreated, order))
	order.Status = domain.OrderStatusShipped
	require.NoError(t, hub.Publish(domain.OrderEventStatusUpdated, order))

	for i := 0; i < 2; i++ {
		select {
		case <-updates:
		case <-time.After(2 * time.Second):
			t.Fatal("missing order update")
		}
	}

	orders := client.Orders().Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID.String(), orders[0].ID)
	assert.Equal(t, domain.OrderStatusShipped, orders[0].Status)
	assert.Equal(t, 1, client.Orders().Unread())

	client.Close()
	assert.False(t, client.Connected())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_ConnectIsIdempotent(t *testing.T) {
	var upgrades atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		upgrades.Add(1)
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(fastOptions(wsURL(srv)))
	t.Cleanup(client.Close)

	require.NoError(t, client.Connect(context.Background()))
	require.NoError(t, client.Connect(context.Background()))
	require.Eventually(t, client.Connected, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, client.Connect(context.Background()))

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, upgrades.Load())
}

type failingDialer struct {
	calls atomic.Int32
}

func (d *failingDialer) DialContext(context.Context, string, http.Header) (*websocket.Conn, *http.Response, error) {
	d.calls.Add(1)
	return nil, nil, errors.New("connection refused")
}

func TestClient_StopsAfterMaxReconnectAttempts(t *testing.T) {
	dialer := &failingDialer{}
	opts := fastOptions("ws://unreachable.invalid/ws")
	opts.Dialer = dialer

	client := NewClient(opts)
	var sawConnected atomic.Bool
	unsubscribe := client.OnConnectionChange(func(connected bool) {
		if connected {
			sawConnected.Store(true)
		}
	})
	defer unsubscribe()

	require.NoError(t, client.Connect(context.Background()))

	select {
	case <-client.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("client kept retrying")
	}

	assert.EqualValues(t, 1+opts.MaxReconnectAttempts, dialer.calls.Load())
	assert.False(t, client.Connected())
	assert.Equal(t, StateDisconnected, client.State())
	assert.False(t, sawConnected.Load())

	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 1+opts.MaxReconnectAttempts, dialer.calls.Load())
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	var upgrades atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if upgrades.Add(1) == 1 {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(fastOptions(wsURL(srv)))
	t.Cleanup(client.Close)

	var (
		mu      sync.Mutex
		history []bool
	)
	client.OnConnectionChange(func(connected bool) {
		mu.Lock()
		history = append(history, connected)
		mu.Unlock()
	})

	require.NoError(t, client.Connect(context.Background()))
	require.Eventually(t, func() bool { return upgrades.Load() == 2 && client.Connected() }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true, false, true}, history)
}

func TestClient_OnConnectionChangeUnsubscribe(t *testing.T) {
	client := NewClient(Options{URL: "ws://example.invalid"})

	var calls atomic.Int32
	unsubscribe := client.OnConnectionChange(func(bool) { calls.Add(1) })
	assert.EqualValues(t, 1, calls.Load())

	unsubscribe()
	unsubscribe()
	client.setState(StateConnected)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_ConnectRequiresURL(t *testing.T) {
	assert.Error(t, NewClient(Options{}).Connect(context.Background()))
}

func TestClient_OnConnectionChangeKeepsOrderUnderToggles(t *testing.T) {
	client := NewClient(Options{URL: "ws://example.invalid"})

	type listener struct {
		mu   sync.Mutex
		last bool
	}
	listeners := make([]*listener, 50)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				client.setState(StateConnected)
			} else {
				client.setState(StateDisconnected)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := range listeners {
			l := &listener{}
			listeners[i] = l
			client.OnConnectionChange(func(connected bool) {
				l.mu.Lock()
				l.last = connected
				l.mu.Unlock()
			})
		}
	}()
	wg.Wait()

	want := client.Connected()
	for i, l := range listeners {
		l.mu.Lock()
		assert.Equal(t, want, l.last, "listener %d", i)
		l.mu.Unlock()
	}
}
