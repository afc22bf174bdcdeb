package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

func placeOrder(t *testing.T, repo *OrderRepository, userID *uuid.UUID, price float64) *domain.Order {
	t.Helper()
	foodID := uuid.New()
	order, err := domain.NewOrder(domain.OrderParams{
		UserID: userID,
		Email:  "diner@example.com",
		Items: []domain.OrderItem{
			{FoodID: &foodID, Name: "Paneer Tikka", Size: "full", Quantity: 1, Price: price},
		},
	})
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestOrderRepository_CreateAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)
	user := createUser(t, domain.RoleUser)

	first := placeOrder(t, repo, &user.ID, 120)
	second := placeOrder(t, repo, &user.ID, 80)

	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.True(t, strings.HasPrefix(first.OrderNumber, "ORD-"), first.OrderNumber)
	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, first.Status)

	found, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber, found.OrderNumber)
	assert.Equal(t, 120.0, found.TotalAmount)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Paneer Tikka", found.Items[0].Name)
	assert.Equal(t, "full", found.Items[0].Size)
	require.NotNil(t, found.Items[0].FoodID)
	assert.Equal(t, user.ID, *found.UserID)
}

func TestOrderRepository_GuestOrder(t *testing.T) {
	repo := NewOrderRepository(testPool)

	order := placeOrder(t, repo, nil, 50)

	found, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, found.UserID)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)
	order := placeOrder(t, repo, nil, 50)

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.OrderStatusShipped))

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, found.Status)
	assert.False(t, found.UpdatedAt.Before(order.UpdatedAt))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.New(), domain.OrderStatusShipped), apperrors.ErrOrderNotFound)
	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestOrderRepository_ListByUser(t *testing.T) {
	repo := NewOrderRepository(testPool)
	user := createUser(t, domain.RoleUser)
	other := createUser(t, domain.RoleUser)

	older := placeOrder(t, repo, &user.ID, 10)
	newer := placeOrder(t, repo, &user.ID, 20)
	placeOrder(t, repo, &other.ID, 30)

	orders, err := repo.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)

	none, err := repo.ListByUser(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOrderRepository_ListFilters(t *testing.T) {
	resetTables(t, "orders")
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	for i := 0; i < 3; i++ {
		placeOrder(t, repo, nil, 10)
	}
	shipped := placeOrder(t, repo, nil, 10)
	require.NoError(t, repo.UpdateStatus(ctx, shipped.ID, domain.OrderStatusShipped))

	// Backdate one order so the date window can exclude it.
	old := placeOrder(t, repo, nil, 10)
	lastWeek := time.Now().UTC().AddDate(0, 0, -7)
	_, err := testPool.Exec(ctx, `UPDATE orders SET created_at = $2 WHERE id = $1`, old.ID, lastWeek)
	require.NoError(t, err)

	t.Run("pages newest first", func(t *testing.T) {
		page, total, err := repo.List(ctx, ports.OrderFilter{Limit: 2, Offset: 0})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, page, 2)
		assert.Equal(t, shipped.ID, page[0].ID)

		last, _, err := repo.List(ctx, ports.OrderFilter{Limit: 2, Offset: 4})
		require.NoError(t, err)
		require.Len(t, last, 1)
		assert.Equal(t, old.ID, last[0].ID)
	})

	t.Run("by status", func(t *testing.T) {
		status := domain.OrderStatusShipped
		page, total, err := repo.List(ctx, ports.OrderFilter{Status: &status, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, page, 1)
		assert.Equal(t, shipped.ID, page[0].ID)
	})

	t.Run("by date window", func(t *testing.T) {
		from := time.Now().UTC().AddDate(0, 0, -1)
		to := time.Now().UTC().Add(time.Hour)
		_, total, err := repo.List(ctx, ports.OrderFilter{CreatedFrom: &from, CreatedTo: &to, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)

		until := lastWeek.Add(time.Minute)
		page, total, err := repo.List(ctx, ports.OrderFilter{CreatedTo: &until, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, old.ID, page[0].ID)
	})
}

func TestOrderRepository_Stats(t *testing.T) {
	resetTables(t, "orders")
	ctx := context.Background()
	repo := NewOrderRepository(testPool)

	empty, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.Zero(t, empty.TotalRevenue)
	assert.Empty(t, empty.Statuses)

	placeOrder(t, repo, nil, 100)
	placeOrder(t, repo, nil, 50)
	cancelled := placeOrder(t, repo, nil, 25)
	require.NoError(t, repo.UpdateStatus(ctx, cancelled.ID, domain.OrderStatusCancelled))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalOrders)
	assert.Equal(t, 175.0, stats.TotalRevenue)
	assert.Equal(t, []domain.StatusSummary{
		{Status: domain.OrderStatusPending, Count: 2, Amount: 150},
		{Status: domain.OrderStatusCancelled, Count: 1, Amount: 25},
	}, stats.Statuses)
}

func TestOrderRepository_SameInstantSortsByNumber(t *testing.T) {
	resetTables(t, "orders")
	ctx := context.Background()
	repo := NewOrderRepository(testPool)
	user := createUser(t, domain.RoleUser)

	_, err := testPool.Exec(ctx, `SELECT setval('order_number_seq', 8)`)
	require.NoError(t, err)

	var placed []*domain.Order
	for i := 0; i < 3; i++ {
		placed = append(placed, placeOrder(t, repo, &user.ID, 10))
	}
	require.Equal(t, "ORD-9", placed[0].OrderNumber)
	require.Equal(t, "ORD-10", placed[1].OrderNumber)

	_, err = testPool.Exec(ctx, `UPDATE orders SET created_at = $1`, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)

	want := []string{"ORD-11", "ORD-10", "ORD-9"}

	mine, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	page, _, err := repo.List(ctx, ports.OrderFilter{Limit: 10})
	require.NoError(t, err)

	for _, orders := range [][]*domain.Order{mine, page} {
		got := make([]string, len(orders))
		for i, o := range orders {
			got[i] = o.OrderNumber
		}
		assert.Equal(t, want, got)
	}
}
