package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/mocks"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
	"github.com/lorrc/cloudkitchen-backend/internal/core/services"
)

type orderFixture struct {
	repo     *mocks.MockOrderRepository
	tx       *mocks.MockTransactionManager
	notifier *mocks.MockOrderNotifier
	svc      ports.OrderService
}

func newOrderFixture() orderFixture {
	f := orderFixture{
		repo:     mocks.NewMockOrderRepository(),
		tx:       mocks.NewMockTransactionManager(),
		notifier: mocks.NewMockOrderNotifier(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = services.NewOrderService(f.repo, f.tx, f.notifier, logger)
	return f
}

func TestOrderService_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	params := domain.OrderParams{
		UserID: &userID,
		Email:  "diner@example.com",
		Items:  []domain.OrderItem{{Name: "Thali", Quantity: 2, Price: 125}},
	}

	t.Run("persists then publishes the stored record", func(t *testing.T) {
		f := newOrderFixture()
		stored := &domain.Order{ID: uuid.New(), OrderNumber: "ORD-1", Status: domain.OrderStatusPending, TotalAmount: 250}

		f.repo.On("Create", ctx, mock.MatchedBy(func(o *domain.Order) bool {
			return o.TotalAmount == 250 && o.Status == domain.OrderStatusPending
		})).Return(stored, nil)
		f.notifier.On("Publish", domain.OrderEventCreated, stored).Return(nil)

		order, err := f.svc.PlaceOrder(ctx, params)

		require.NoError(t, err)
		assert.Same(t, stored, order)
		f.repo.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("notifier failure does not fail the write", func(t *testing.T) {
		f := newOrderFixture()
		stored := &domain.Order{ID: uuid.New(), OrderNumber: "ORD-2"}

		f.repo.On("Create", ctx, mock.Anything).Return(stored, nil)
		f.notifier.On("Publish", domain.OrderEventCreated, stored).Return(errors.New("transport not ready"))

		order, err := f.svc.PlaceOrder(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, "ORD-2", order.OrderNumber)
	})

	t.Run("nothing published when persistence fails", func(t *testing.T) {
		f := newOrderFixture()
		f.repo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db down"))

		_, err := f.svc.PlaceOrder(ctx, params)
		assert.Error(t, err)
		f.notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("validation", func(t *testing.T) {
		f := newOrderFixture()
		_, err := f.svc.PlaceOrder(ctx, domain.OrderParams{Email: "diner@example.com"})

		var validationErr *apperrors.ValidationErrors
		assert.ErrorAs(t, err, &validationErr)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("publishes the re-read record", func(t *testing.T) {
		f := newOrderFixture()
		before := &domain.Order{ID: id, Status: domain.OrderStatusDelivered}
		after := &domain.Order{ID: id, Status: domain.OrderStatusPending, UpdatedAt: time.Now()}

		f.tx.On("WithTransaction", ctx)
		f.repo.On("GetByID", ctx, id).Return(before, nil).Once()
		f.repo.On("UpdateStatus", ctx, id, domain.OrderStatusPending).Return(nil)
		f.repo.On("GetByID", ctx, id).Return(after, nil).Once()
		f.notifier.On("Publish", domain.OrderEventStatusUpdated, after).Return(nil)

		order, err := f.svc.UpdateStatus(ctx, id, domain.OrderStatusPending)

		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPending, order.Status)
		f.repo.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newOrderFixture()
		_, err := f.svc.UpdateStatus(ctx, id, "lost")
		assert.ErrorIs(t, err, apperrors.ErrInvalidOrderStatus)
		f.tx.AssertNotCalled(t, "WithTransaction", mock.Anything)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newOrderFixture()
		f.tx.On("WithTransaction", ctx)
		f.repo.On("GetByID", ctx, id).Return(nil, apperrors.ErrOrderNotFound)

		_, err := f.svc.UpdateStatus(ctx, id, domain.OrderStatusShipped)
		assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
		f.notifier.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()

	t.Run("pagination defaults and total pages", func(t *testing.T) {
		f := newOrderFixture()
		status := domain.OrderStatusShipped
		f.repo.On("List", ctx, ports.OrderFilter{Status: &status, Limit: 20, Offset: 20}).
			Return([]*domain.Order{{OrderNumber: "ORD-9"}}, int64(41), nil)

		page, err := f.svc.ListOrders(ctx, ports.ListOrdersParams{Status: &status, Page: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 20, page.Limit)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, int64(41), page.Total)
	})

	t.Run("limit is capped", func(t *testing.T) {
		f := newOrderFixture()
		f.repo.On("List", ctx, ports.OrderFilter{Limit: 100}).Return([]*domain.Order{}, int64(0), nil)

		page, err := f.svc.ListOrders(ctx, ports.ListOrdersParams{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, 0, page.TotalPages)
	})

	t.Run("bad status filter", func(t *testing.T) {
		f := newOrderFixture()
		bad := domain.OrderStatus("Ordered")
		_, err := f.svc.ListOrders(ctx, ports.ListOrdersParams{Status: &bad})
		assert.ErrorIs(t, err, apperrors.ErrInvalidOrderStatus)
	})
}
