// Package dashboard is the admin dashboard's side of the order notification
// socket: it connects, identifies, keeps the link alive and folds pushed
// order updates into an OrderBook.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

// State is the client's connection lifecycle.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Dialer opens the socket. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Options configures a Client. Zero durations and counts take the defaults.
type Options struct {
	URL   string
	Token string
	// ClientID is announced on identify; a random id is used when empty.
	ClientID string

	IdentifyDelay        time.Duration
	PingInterval         time.Duration
	MaxReconnectAttempts int
	BaseBackoff          time.Duration
	MaxBackoff           time.Duration
	WriteWait            time.Duration

	Dialer Dialer
	Logger *slog.Logger

	// OnOrderUpdate, when set, sees every update after the book applied it.
	OnOrderUpdate func(domain.OrderUpdate)
	// OnStatus, when set, sees the server's identify acknowledgement.
	OnStatus func(domain.ConnectionStatus)
}

func (o Options) withDefaults() Options {
	if o.ClientID == "" {
		o.ClientID = "dashboard-" + uuid.NewString()
	}
	if o.IdentifyDelay <= 0 {
		o.IdentifyDelay = 100 * time.Millisecond
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.MaxReconnectAttempts < 0 {
		o.MaxReconnectAttempts = 0
	} else if o.MaxReconnectAttempts == 0 {
		o.MaxReconnectAttempts = 5
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Client maintains one dashboard connection with reconnect.
type Client struct {
	opts    Options
	backoff backoff
	book    *OrderBook
	logger  *slog.Logger

	// notifyMu orders listener callbacks so a subscriber never sees a stale
	// value after a newer one.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	listeners map[int]func(bool)
	nextID    int
}

// NewClient returns a disconnected client. Call Connect to start it.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		opts:      opts,
		backoff:   backoff{base: opts.BaseBackoff, max: opts.MaxBackoff},
		book:      NewOrderBook(),
		logger:    opts.Logger.With("component", "dashboard", "client_id", opts.ClientID),
		state:     StateDisconnected,
		listeners: make(map[int]func(bool)),
	}
}

// Orders is the view of pushed orders for the current connection.
func (c *Client) Orders() *OrderBook {
	return c.book
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the dashboard socket is currently open.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// OnConnectionChange calls fn with the current connectivity and then on each
// change. fn must not subscribe from inside the callback. The returned func
// removes the subscription.
func (c *Client) OnConnectionChange(fn func(connected bool)) (unsubscribe func()) {
	c.notifyMu.Lock()
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	connected := c.state == StateConnected
	c.mu.Unlock()

	fn(connected)
	c.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) setState(s State) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	was := c.state == StateConnected
	c.state = s
	now := s == StateConnected
	var notify []func(bool)
	if was != now {
		for _, fn := range c.listeners {
			notify = append(notify, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range notify {
		fn(now)
	}
}

// Connect starts the connection loop in the background. It is a no-op while
// a loop is already running. The loop ends when ctx is cancelled, Close is
// called, or reconnect attempts are exhausted.
func (c *Client) Connect(ctx context.Context) error {
	if c.opts.URL == "" {
		return errors.New("dashboard url required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		select {
		case <-c.done:
		default:
			return nil
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(loopCtx, c.done)
	return nil
}

// Done is closed when the current connection loop has ended.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}

// Close disconnects without reconnecting and waits for the loop to end.
func (c *Client) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer c.setState(StateDisconnected)

	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Error("giving up on dashboard connection", "error", err)
			}
			return
		}

		c.serve(ctx, conn)
		if ctx.Err() != nil {
			return
		}

		c.logger.Info("connection lost, reconnecting", "retry_in", c.opts.BaseBackoff)
		if !sleep(ctx, c.opts.BaseBackoff) {
			return
		}
	}
}

// dial makes the initial attempt plus up to MaxReconnectAttempts retries.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	c.setState(StateConnecting)
	for attempt := 0; ; attempt++ {
		conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err == nil {
			return conn, nil
		}
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= c.opts.MaxReconnectAttempts {
			return nil, fmt.Errorf("after %d attempts: %w", attempt+1, err)
		}

		wait := c.backoff.delay(attempt)
		c.logger.Warn("dial failed, will retry", "error", err, "attempt", attempt+1, "retry_in", wait)
		if !sleep(ctx, wait) {
			return nil, ctx.Err()
		}
	}
}

// serve owns all writes on conn until it drops or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) {
	c.book.Reset()
	c.setState(StateConnected)
	c.logger.Info("connected", "url", c.opts.URL)

	readErr := make(chan error, 1)
	go func() { readErr <- c.readLoop(conn) }()

	identify := time.NewTimer(c.opts.IdentifyDelay)
	defer identify.Stop()
	ping := time.NewTicker(c.opts.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteWait))
			_ = conn.Close()
			<-readErr
			c.setState(StateDisconnected)
			return

		case err := <-readErr:
			_ = conn.Close()
			c.logger.Warn("connection closed", "error", err)
			c.setState(StateDisconnected)
			return

		case <-identify.C:
			err := c.write(conn, domain.MessageAdminConnect, domain.AdminIdentify{
				ClientType: domain.AdminClientType,
				Timestamp:  domain.FormatTimestamp(time.Now()),
				ClientID:   c.opts.ClientID,
			})
			if err != nil {
				c.logger.Warn("identify failed", "error", err)
			}

		case <-ping.C:
			if err := c.write(conn, domain.MessagePing, map[string]int64{"time": time.Now().UnixMilli()}); err != nil {
				c.logger.Debug("ping failed", "error", err)
			}
		}
	}
}

func (c *Client) write(conn *websocket.Conn, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(domain.SocketMessage{Type: msgType, Payload: raw})
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handle(raw)
	}
}

func (c *Client) handle(raw []byte) {
	var msg domain.SocketMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Warn("malformed message", "error", err)
		return
	}

	switch msg.Type {
	case domain.MessageOrderUpdate:
		var update domain.OrderUpdate
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			c.logger.Warn("malformed order update", "error", err)
			return
		}
		if err := c.book.Apply(update); err != nil {
			c.logger.Warn("order update ignored", "error", err)
			return
		}
		if c.opts.OnOrderUpdate != nil {
			c.opts.OnOrderUpdate(update)
		}

	case domain.MessageConnectionStatus:
		var status domain.ConnectionStatus
		if err := json.Unmarshal(msg.Payload, &status); err != nil {
			c.logger.Warn("malformed connection status", "error", err)
			return
		}
		c.logger.Info("registered with server", "server_client_id", status.ClientID, "clients", status.ClientsCount)
		if c.opts.OnStatus != nil {
			c.opts.OnStatus(status)
		}

	case domain.MessagePong:
		c.logger.Debug("pong received")

	default:
		c.logger.Debug("unknown message type", "type", msg.Type)
	}
}

// sleep waits d or until ctx ends; it reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
