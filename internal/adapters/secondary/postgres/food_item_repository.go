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

const foodItemColumns = `id, name, description, price, category_id, image_url, options, is_available, created_at, updated_at`

// FoodItemRepository stores catalog items. Size options live in a JSONB
// column keyed by size label.
type FoodItemRepository struct {
	pool *pgxpool.Pool
}

var _ ports.FoodItemRepository = (*FoodItemRepository)(nil)

func NewFoodItemRepository(pool *pgxpool.Pool) *FoodItemRepository {
	return &FoodItemRepository{pool: pool}
}

func scanFoodItem(row pgx.Row) (*domain.FoodItem, error) {
	var f domain.FoodItem
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.CategoryID, &f.ImageURL,
		&f.Options, &f.IsAvailable, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if f.Options == nil {
		f.Options = map[string]string{}
	}
	return &f, nil
}

func options(item *domain.FoodItem) map[string]string {
	if item.Options == nil {
		return map[string]string{}
	}
	return item.Options
}

// writeError maps constraint failures shared by insert and update.
func writeError(err error) error {
	if _, bad := constraintViolation(err, foreignKeyViolation); bad {
		return apperrors.ErrCategoryNotFound
	}
	return err
}

func (r *FoodItemRepository) Create(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error) {
	const query = `
INSERT INTO food_items (` + foodItemColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + foodItemColumns

	created, err := scanFoodItem(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		item.ID, item.Name, item.Description, item.Price, item.CategoryID, item.ImageURL,
		options(item), item.IsAvailable, item.CreatedAt, item.UpdatedAt,
	))
	if err != nil {
		return nil, writeError(err)
	}
	return created, nil
}

func (r *FoodItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FoodItem, error) {
	const query = `SELECT ` + foodItemColumns + ` FROM food_items WHERE id = $1`

	item, err := scanFoodItem(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, apperrors.ErrFoodItemNotFound)
	}
	return item, nil
}

func (r *FoodItemRepository) List(ctx context.Context, filter ports.FoodItemFilter) ([]*domain.FoodItem, error) {
	var (
		conds []string
		args  []any
	)
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.AvailableOnly {
		conds = append(conds, "is_available")
	}
	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		conds = append(conds, fmt.Sprintf("id = ANY($%d)", len(args)))
	}

	query := `SELECT ` + foodItemColumns + ` FROM food_items`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name, created_at"

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*domain.FoodItem{}
	for rows.Next() {
		item, err := scanFoodItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *FoodItemRepository) Update(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error) {
	const query = `
UPDATE food_items
SET name = $2, description = $3, price = $4, category_id = $5, image_url = $6,
    options = $7, is_available = $8, updated_at = $9
WHERE id = $1
RETURNING ` + foodItemColumns

	updated, err := scanFoodItem(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		item.ID, item.Name, item.Description, item.Price, item.CategoryID, item.ImageURL,
		options(item), item.IsAvailable, item.UpdatedAt,
	))
	if err != nil {
		return nil, notFound(writeError(err), apperrors.ErrFoodItemNotFound)
	}
	return updated, nil
}

func (r *FoodItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, `DELETE FROM food_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrFoodItemNotFound
	}
	return nil
}

func (r *FoodItemRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := GetDBTX(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM food_items WHERE category_id = $1`, categoryID).Scan(&n)
	return n, err
}
