package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

// OrderService implements the order lifecycle and pushes every persisted
// mutation to the dashboard notifier
type OrderService struct {
	orderRepo ports.OrderRepository
	txManager ports.TransactionManager
	notifier  ports.OrderNotifier
	logger    *slog.Logger
}

var _ ports.OrderService = (*OrderService)(nil)

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo ports.OrderRepository,
	txManager ports.TransactionManager,
	notifier ports.OrderNotifier,
	logger *slog.Logger,
) ports.OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		txManager: txManager,
		notifier:  notifier,
		logger:    logger.With("service", "orders"),
	}
}

// PlaceOrder validates and persists a new pending order
func (s *OrderService) PlaceOrder(ctx context.Context, params domain.OrderParams) (*domain.Order, error) {
	// 1. Build the domain entity (validates items and computes the total)
	order, err := domain.NewOrder(params)
	if err != nil {
		return nil, err
	}

	// 2. Persist; the repository assigns id and order number
	created, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	// 3. Fan out the persisted record
	s.publish(domain.OrderEventCreated, created)

	return created, nil
}

// ListMyOrders returns the caller's orders newest first
func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// ListOrders returns one page of the admin order listing
func (s *OrderService) ListOrders(ctx context.Context, params ports.ListOrdersParams) (*ports.OrderPage, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, apperrors.ErrInvalidOrderStatus
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = defaultOrderPageSize
	}
	if limit > maxOrderPageSize {
		limit = maxOrderPageSize
	}

	orders, total, err := s.orderRepo.List(ctx, ports.OrderFilter{
		Status:      params.Status,
		CreatedFrom: params.StartDate,
		CreatedTo:   params.EndDate,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	return &ports.OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// GetOrder returns a single order
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// UpdateStatus sets the order status. Any recognized status is accepted
// regardless of the current one.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, apperrors.ErrInvalidOrderStatus
	}

	var updated *domain.Order
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		// 1. Load and apply the change on the domain entity
		order, err := s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := order.SetStatus(status); err != nil {
			return err
		}

		// 2. Persist
		if err := s.orderRepo.UpdateStatus(ctx, id, order.Status); err != nil {
			return err
		}

		// 3. Re-read so the published record is what was stored
		updated, err = s.orderRepo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(domain.OrderEventStatusUpdated, updated)

	return updated, nil
}

// Stats aggregates order counts and revenue
func (s *OrderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	return s.orderRepo.Stats(ctx)
}

// publish hands the record to the notifier. A dropped notification never
// fails the write that produced it.
func (s *OrderService) publish(kind domain.OrderEventKind, order *domain.Order) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Publish(kind, order)
	if err == nil {
		return
	}

	level := slog.LevelWarn
	if errors.Is(err, apperrors.ErrTransportNotReady) {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, "order notification dropped",
		"event", kind,
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"error", err,
	)
}
