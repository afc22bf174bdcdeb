package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order validation limits
const (
	MaxOrderItems     = 100
	MaxItemNameLength = 255
	MaxItemQuantity   = 1000
)

// OrderStatuses lists every recognized status in display order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// OrderStatusStrings returns the recognized statuses as plain strings.
func OrderStatusStrings() []string {
	statuses := OrderStatuses()
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// IsValid reports whether the status is a member of the recognized set.
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItem is a single line of an order.
type OrderItem struct {
	FoodID   *uuid.UUID `json:"foodId,omitempty"`
	Name     string     `json:"name"`
	Size     string     `json:"size,omitempty"`
	Quantity int        `json:"quantity"`
	Price    float64    `json:"price"`
}

// Subtotal returns quantity times unit price.
func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}

// Order is the persisted customer order.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	UserID      *uuid.UUID
	Email       string
	MobileNo    string
	Status      OrderStatus
	Items       []OrderItem
	TotalAmount float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderParams holds the input for placing a new order.
type OrderParams struct {
	UserID   *uuid.UUID
	Email    string
	MobileNo string
	Items    []OrderItem
}

// Validate validates order placement parameters.
func (p *OrderParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if strings.TrimSpace(p.Email) == "" {
		errs.Add("email", "Email is required")
	} else if !isValidEmail(p.Email) {
		errs.Add("email", "Invalid email format")
	}

	switch {
	case len(p.Items) == 0:
		errs.Add("items", "At least one item is required")
	case len(p.Items) > MaxOrderItems:
		errs.Add("items", "Too many items in a single order")
	}

	for _, item := range p.Items {
		if strings.TrimSpace(item.Name) == "" {
			errs.Add("items", "Item name is required")
		} else if len(item.Name) > MaxItemNameLength {
			errs.Add("items", "Item name must be 255 characters or less")
		}
		if item.Quantity < 1 || item.Quantity > MaxItemQuantity {
			errs.Add("items", "Item quantity must be between 1 and 1000")
		}
		if item.Price < 0 {
			errs.Add("items", "Item price cannot be negative")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewOrder builds a pending order with its total computed from the items.
func NewOrder(params OrderParams) (*Order, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	items := make([]OrderItem, len(params.Items))
	var total float64
	for i, item := range params.Items {
		item.Name = strings.TrimSpace(item.Name)
		items[i] = item
		total += item.Subtotal()
	}

	now := time.Now().UTC()
	return &Order{
		UserID:      params.UserID,
		Email:       strings.ToLower(strings.TrimSpace(params.Email)),
		MobileNo:    strings.TrimSpace(params.MobileNo),
		Status:      OrderStatusPending,
		Items:       items,
		TotalAmount: total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetStatus moves the order to the given status. Any recognized status may
// follow any other; only membership in the set is enforced.
func (o *Order) SetStatus(status OrderStatus) error {
	if !status.IsValid() {
		return apperrors.ErrInvalidOrderStatus
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// IsPlacedBy reports whether the order belongs to the given user.
func (o *Order) IsPlacedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// StatusSummary aggregates orders sharing a status.
type StatusSummary struct {
	Status OrderStatus
	Count  int64
	Amount float64
}

// OrderStats is the aggregate view over all orders.
type OrderStats struct {
	TotalOrders  int64
	TotalRevenue float64
	Statuses     []StatusSummary
}
