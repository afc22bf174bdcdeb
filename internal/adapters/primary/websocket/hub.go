package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// DefaultQueueSize is the dispatch queue capacity used when none is configured.
const DefaultQueueSize = 256

// Drop reasons reported to Metrics.
const (
	DropNoSubscribers     = "no_subscribers"
	DropTransportNotReady = "transport_not_ready"
	DropQueueFull         = "queue_full"
)

// PublishResult is the outcome of one fan-out.
type PublishResult struct {
	Event     domain.OrderEventKind
	OrderID   string
	Delivered int
	Pruned    int
	Failed    int
}

// Metrics receives fan-out counters. The prometheus collectors in
// infrastructure/metrics implement it.
type Metrics interface {
	Published(event string)
	Delivered(delivered, pruned, failed int)
	Dropped(reason string)
	SetConnections(n int)
}

type noopMetrics struct{}

func (noopMetrics) Published(string)        {}
func (noopMetrics) Delivered(int, int, int) {}
func (noopMetrics) Dropped(string)          {}
func (noopMetrics) SetConnections(int)      {}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithMetrics reports fan-out counters to m.
func WithMetrics(m Metrics) HubOption {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithObserver calls fn on the dispatch goroutine after every fan-out.
func WithObserver(fn func(PublishResult)) HubOption {
	return func(h *Hub) {
		h.observer = fn
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

// Hub owns the connection registry and fans order updates out to every
// registered dashboard. All registry access happens on the goroutine running
// Run, which drains a single FIFO queue of operations; frames therefore reach
// each connection in the order Publish was called.
type Hub struct {
	registry  *Registry
	ops       chan func()
	done      chan struct{}
	running   atomic.Bool
	size      atomic.Int64
	queueSize int

	metrics  Metrics
	observer func(PublishResult)
	now      func() time.Time
	logger   *slog.Logger
}

// Ensure Hub implements the OrderNotifier interface.
var _ ports.OrderNotifier = (*Hub)(nil)

// NewHub creates a hub. Nothing is dispatched until Run is called.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		registry:  NewRegistry(),
		done:      make(chan struct{}),
		queueSize: DefaultQueueSize,
		metrics:   noopMetrics{},
		now:       time.Now,
		logger:    logger.With("component", "websocket_hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.ops = make(chan func(), h.queueSize)
	return h
}

// Run dispatches queued operations until ctx is cancelled, then closes every
// registered connection. It must be called once, in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	h.logger.Info("notification hub started", "queue_size", h.queueSize)

	defer func() {
		h.running.Store(false)
		close(h.done)
		h.shutdown()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case op := <-h.ops:
			op()
		}
	}
}

// Running reports whether the dispatch loop is active.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	return int(h.size.Load())
}

// Inspect runs fn against the registry on the dispatch goroutine and waits
// for it to return. Every operation queued before it has completed by then.
func (h *Hub) Inspect(fn func(r *Registry)) error {
	finished := make(chan struct{})
	if err := h.submit(func() {
		fn(h.registry)
		close(finished)
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-h.done:
		return apperrors.ErrTransportNotReady
	}
}

// Register adds conn to the registry. onRegistered, if set, runs on the
// dispatch goroutine right after the entry is added, before any later
// publish reaches the connection.
func (h *Hub) Register(conn Connection, onRegistered func(clientsCount int)) error {
	return h.submit(func() {
		h.registry.Register(conn)
		h.syncSize()
		h.logger.Info("dashboard registered",
			"connection_id", conn.ID(),
			"clients_count", h.registry.Len(),
		)
		if onRegistered != nil {
			onRegistered(h.registry.Len())
		}
	})
}

// Unregister removes the entry for id. Unknown ids are ignored.
func (h *Hub) Unregister(id string) error {
	return h.submit(func() {
		if h.registry.Unregister(id) {
			h.syncSize()
			h.logger.Info("dashboard unregistered",
				"connection_id", id,
				"clients_count", h.registry.Len(),
			)
		}
	})
}

// Publish builds the order projection now and queues its fan-out. It never
// waits for delivery.
func (h *Hub) Publish(kind domain.OrderEventKind, order *domain.Order) error {
	if !h.running.Load() {
		h.metrics.Dropped(DropTransportNotReady)
		return apperrors.ErrTransportNotReady
	}

	frame, err := EncodeOrderUpdate(kind, order, h.now())
	if err != nil {
		return err
	}

	orderID := order.ID.String()
	op := func() { h.fanOut(kind, orderID, frame) }

	select {
	case h.ops <- op:
		h.metrics.Published(string(kind))
		return nil
	default:
		h.metrics.Dropped(DropQueueFull)
		return apperrors.ErrDispatchQueueFull
	}
}

// fanOut runs on the dispatch goroutine. Closed entries are pruned from a
// snapshot first; only entries that are still open receive the frame.
func (h *Hub) fanOut(kind domain.OrderEventKind, orderID string, frame []byte) {
	result := PublishResult{Event: kind, OrderID: orderID}
	defer func() { h.report(result) }()

	snapshot := h.registry.Snapshot()
	if len(snapshot) == 0 {
		h.logger.Warn("no dashboards connected, order update dropped",
			"event", kind,
			"order_id", orderID,
		)
		h.metrics.Dropped(DropNoSubscribers)
		return
	}

	live := make([]Connection, 0, len(snapshot))
	for _, conn := range snapshot {
		if conn.Closed() {
			h.registry.Unregister(conn.ID())
			result.Pruned++
			h.logger.Info("pruned closed dashboard connection", "connection_id", conn.ID())
			continue
		}
		live = append(live, conn)
	}

	for _, conn := range live {
		if err := conn.Send(frame); err != nil {
			// A peer that cannot take the frame is dropped for good.
			h.registry.Unregister(conn.ID())
			conn.Close()
			result.Failed++
			h.logger.Warn("failed to deliver order update",
				"connection_id", conn.ID(),
				"event", kind,
				"order_id", orderID,
				"error", err,
			)
			continue
		}
		result.Delivered++
	}

	h.syncSize()
	h.logger.Debug("order update fanned out",
		"event", kind,
		"order_id", orderID,
		"delivered", result.Delivered,
		"pruned", result.Pruned,
		"failed", result.Failed,
	)
}

func (h *Hub) report(result PublishResult) {
	h.metrics.Delivered(result.Delivered, result.Pruned, result.Failed)
	if h.observer != nil {
		h.observer(result)
	}
}

// submit queues a registry mutation, waiting for room in the queue.
func (h *Hub) submit(op func()) error {
	if !h.running.Load() {
		return apperrors.ErrTransportNotReady
	}
	select {
	case h.ops <- op:
		return nil
	case <-h.done:
		return apperrors.ErrTransportNotReady
	}
}

func (h *Hub) syncSize() {
	n := h.registry.Len()
	h.size.Store(int64(n))
	h.metrics.SetConnections(n)
}

func (h *Hub) shutdown() {
	for _, conn := range h.registry.Snapshot() {
		h.registry.Unregister(conn.ID())
		conn.Close()
	}
	h.syncSize()
	h.logger.Info("notification hub stopped")
}

// EncodeOrderUpdate renders the order:update frame for an order.
func EncodeOrderUpdate(kind domain.OrderEventKind, order *domain.Order, eventTime time.Time) ([]byte, error) {
	return encodeMessage(domain.MessageOrderUpdate, domain.OrderUpdate{
		Event: kind,
		Order: domain.NewOrderProjection(order, eventTime),
	})
}

func encodeMessage(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.SocketMessage{Type: msgType, Payload: raw})
}
