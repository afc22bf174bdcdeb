package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

const connectedMessage = "Successfully connected to admin notifications"

// ClientConfig holds per-connection timing and buffer settings.
type ClientConfig struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration
	// Maximum message size allowed from peer.
	MaxMessageSize int64
	// Outbound frames buffered before the peer counts as stalled.
	SendBuffer int
}

// DefaultClientConfig returns the standard connection settings.
func DefaultClientConfig() ClientConfig {
	pongWait := 60 * time.Second
	return ClientConfig{
		WriteWait:      10 * time.Second,
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

// Client is a middleman between one dashboard websocket and the hub. It
// becomes a registry entry once the dashboard sends admin-connect.
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	cfg    ClientConfig
	logger *slog.Logger

	// UserID is the authenticated admin behind the connection.
	UserID uuid.UUID

	closed     atomic.Bool
	registered atomic.Bool
	closeOnce  sync.Once
}

var _ Connection = (*Client)(nil)

// NewClient creates a connection with a fresh transport id
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, cfg ClientConfig, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
		cfg:    cfg,
		UserID: userID,
		logger: logger.With("connection_id", id, "user_id", userID.String()),
	}
}

// ID identifies the connection in logs and hub bookkeeping
func (c *Client) ID() string {
	return c.id
}

// Send queues a frame for the write pump without blocking
func (c *Client) Send(frame []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Closed reports whether Close has been called
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close stops the write pump, which sends a close frame and hangs up
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		if c.registered.Load() {
			if err := c.hub.Unregister(c.id); err != nil {
				c.logger.Debug("unregister skipped", "error", err)
			}
		}
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		// Any inbound frame proves the peer is alive.
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		c.handleIncomingMessage(message)
	}
}

// WritePump pumps queued frames to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn("failed to write message", "error", err)
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
				c.logger.Debug("failed to send close message", "error", err)
			}
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				c.Close()
				return
			}
		}
	}
}

// --- Incoming Message Handling ---

func (c *Client) handleIncomingMessage(message []byte) {
	var msg domain.SocketMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("malformed inbound message", "error", err)
		return
	}

	switch msg.Type {
	case domain.MessageAdminConnect:
		c.handleIdentify(msg.Payload)

	case domain.MessagePing:
		c.handlePing(msg.Payload)

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) handleIdentify(payload json.RawMessage) {
	var p domain.AdminIdentify
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("malformed admin identify", "error", err)
		return
	}
	if p.ClientType != domain.AdminClientType {
		c.logger.Warn("admin identify with unexpected client type", "client_type", p.ClientType)
		return
	}

	c.registered.Store(true)
	err := c.hub.Register(c, func(clientsCount int) {
		frame, err := encodeMessage(domain.MessageConnectionStatus, domain.ConnectionStatus{
			Status:       "connected",
			Message:      connectedMessage,
			ClientID:     c.id,
			ServerTime:   domain.FormatTimestamp(c.hub.now()),
			ClientsCount: clientsCount,
		})
		if err != nil {
			c.logger.Error("failed to encode connection status", "error", err)
			return
		}
		if err := c.Send(frame); err != nil {
			c.logger.Warn("failed to queue connection status", "error", err)
		}
	})
	if err != nil {
		c.logger.Error("failed to register dashboard", "error", err)
	}
}

func (c *Client) handlePing(payload json.RawMessage) {
	pong := map[string]any{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &pong); err != nil || pong == nil {
			c.logger.Warn("malformed ping payload", "error", err)
			return
		}
	}
	pong["serverTime"] = domain.FormatTimestamp(c.hub.now())

	frame, err := encodeMessage(domain.MessagePong, pong)
	if err != nil {
		c.logger.Error("failed to encode pong", "error", err)
		return
	}
	if err := c.Send(frame); err != nil {
		c.logger.Debug("pong skipped", "error", err)
	}
}
