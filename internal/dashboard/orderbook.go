package dashboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

var (
	ErrMissingOrderID    = errors.New("order update without _id")
	ErrUnknownOrderEvent = errors.New("unknown order event")
)

// OrderBook is the dashboard's in-memory view of pushed orders, newest first.
// It is safe for concurrent use.
type OrderBook struct {
	mu     sync.RWMutex
	orders []domain.OrderProjection
	unread int
}

// NewOrderBook returns an empty view.
func NewOrderBook() *OrderBook {
	return &OrderBook{orders: []domain.OrderProjection{}}
}

// Apply folds one update into the view. created prepends and counts as
// unread; status-updated rewrites the status of the matching entry in place.
func (b *OrderBook) Apply(update domain.OrderUpdate) error {
	if update.Order.ID == "" {
		return ErrMissingOrderID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch update.Event {
	case domain.OrderEventCreated:
		b.orders = append([]domain.OrderProjection{update.Order}, b.orders...)
		b.unread++
	case domain.OrderEventStatusUpdated:
		for i := range b.orders {
			if b.orders[i].ID == update.Order.ID {
				b.orders[i].Status = update.Order.Status
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOrderEvent, update.Event)
	}
	return nil
}

// Orders returns a copy of the view.
func (b *OrderBook) Orders() []domain.OrderProjection {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.OrderProjection, len(b.orders))
	copy(out, b.orders)
	return out
}

// Unread counts orders created since the last ResetUnread.
func (b *OrderBook) Unread() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unread
}

// ResetUnread marks all orders as seen.
func (b *OrderBook) ResetUnread() {
	b.mu.Lock()
	b.unread = 0
	b.mu.Unlock()
}

// Reset empties the view, as on a fresh connection.
func (b *OrderBook) Reset() {
	b.mu.Lock()
	b.orders = []domain.OrderProjection{}
	b.unread = 0
	b.mu.Unlock()
}
