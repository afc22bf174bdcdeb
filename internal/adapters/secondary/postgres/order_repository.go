package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

const orderColumns = `id, order_number, user_id, email, mobile_no, status, items, total_amount, created_at, updated_at`

// OrderRepository is the secondary adapter for order persistence. Line
// items are stored as a JSONB array on the order row.
type OrderRepository struct {
	pool *pgxpool.Pool
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Email, &o.MobileNo, &status,
		&o.Items, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// Create inserts the order; the database assigns id and order number.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	const query = `
INSERT INTO orders (user_id, email, mobile_no, status, items, total_amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderColumns

	items := order.Items
	if items == nil {
		items = []domain.OrderItem{}
	}

	created, err := scanOrder(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		order.UserID, order.Email, order.MobileNo, string(order.Status), items,
		order.TotalAmount, order.CreatedAt, order.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return created, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, apperrors.ErrOrderNotFound)
	}
	return order, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	const query = `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, order_seq DESC`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// List returns one page newest first and the total count for the filter.
func (r *OrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, int64, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.CreatedFrom != nil {
		add("created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		add("created_at <= $%d", *filter.CreatedTo)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	db := GetDBTX(ctx, r.pool)

	var total int64
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, order_seq DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := db.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Stats groups orders by status. Only statuses with at least one order are
// listed, in display order.
func (r *OrderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	const query = `SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders GROUP BY status`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStatus := make(map[domain.OrderStatus]domain.StatusSummary)
	for rows.Next() {
		var (
			status string
			sum    domain.StatusSummary
		)
		if err := rows.Scan(&status, &sum.Count, &sum.Amount); err != nil {
			return nil, err
		}
		sum.Status = domain.OrderStatus(status)
		byStatus[sum.Status] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := &domain.OrderStats{Statuses: []domain.StatusSummary{}}
	for _, status := range domain.OrderStatuses() {
		sum, ok := byStatus[status]
		if !ok {
			continue
		}
		stats.TotalOrders += sum.Count
		stats.TotalRevenue += sum.Amount
		stats.Statuses = append(stats.Statuses, sum)
	}
	return stats, nil
}
