package domain

import (
	"encoding/json"
	"time"
)

// OrderEventKind identifies which persisted mutation produced an order update.
type OrderEventKind string

const (
	OrderEventCreated       OrderEventKind = "created"
	OrderEventStatusUpdated OrderEventKind = "status-updated"
)

// IsValid reports whether the kind is one the dashboard understands.
func (k OrderEventKind) IsValid() bool {
	return k == OrderEventCreated || k == OrderEventStatusUpdated
}

// Socket message types exchanged with the admin dashboard.
const (
	MessageAdminConnect     = "admin-connect"
	MessageConnectionStatus = "connection-status"
	MessagePing             = "ping"
	MessagePong             = "pong"
	MessageOrderUpdate      = "order:update"
)

// SocketMessage is the envelope for every frame on the dashboard socket.
type SocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TimestampLayout is ISO 8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// AdminClientType is the clientType a dashboard announces when identifying.
const AdminClientType = "admin-dashboard"

// OrderProjection is the read-only snapshot of an order pushed to dashboards.
type OrderProjection struct {
	ID          string      `json:"_id"`
	OrderNumber string      `json:"orderNumber"`
	Status      OrderStatus `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
	Items       []OrderItem `json:"items"`
	EventTime   string      `json:"eventTime"`
}

// NewOrderProjection builds a projection from a persisted order, stamped with
// the given event time.
func NewOrderProjection(order *Order, eventTime time.Time) OrderProjection {
	items := make([]OrderItem, len(order.Items))
	copy(items, order.Items)

	return OrderProjection{
		ID:          order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		CreatedAt:   FormatTimestamp(order.CreatedAt),
		UpdatedAt:   FormatTimestamp(order.UpdatedAt),
		Items:       items,
		EventTime:   FormatTimestamp(eventTime),
	}
}

// OrderUpdate is the payload of an order:update message.
type OrderUpdate struct {
	Event OrderEventKind  `json:"event"`
	Order OrderProjection `json:"order"`
}

// AdminIdentify is sent by a dashboard right after its connection opens.
type AdminIdentify struct {
	ClientType string `json:"clientType"`
	Timestamp  string `json:"timestamp"`
	ClientID   string `json:"clientId"`
}

// ConnectionStatus acknowledges a successful admin identify.
type ConnectionStatus struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ClientID     string `json:"clientId"`
	ServerTime   string `json:"serverTime"`
	ClientsCount int    `json:"clientsCount"`
}
