package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts the category. Names are unique ignoring case.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	const query = `INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3) RETURNING id, name, created_at`

	created, err := scanCategory(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		category.ID, category.Name, category.CreatedAt))
	if _, dup := constraintViolation(err, uniqueViolation); dup {
		return nil, apperrors.ErrCategoryExists
	}
	return created, err
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	const query = `SELECT id, name, created_at FROM categories WHERE id = $1`

	category, err := scanCategory(GetDBTX(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, apperrors.ErrCategoryNotFound)
	}
	return category, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	const query = `UPDATE categories SET name = $2 WHERE id = $1 RETURNING id, name, created_at`

	updated, err := scanCategory(GetDBTX(ctx, r.pool).QueryRow(ctx, query, category.ID, category.Name))
	if _, dup := constraintViolation(err, uniqueViolation); dup {
		return nil, apperrors.ErrCategoryExists
	}
	if err != nil {
		return nil, notFound(err, apperrors.ErrCategoryNotFound)
	}
	return updated, nil
}

// Delete removes the category. Food items still referencing it block the
// delete through the foreign key.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if _, inUse := constraintViolation(err, foreignKeyViolation); inUse {
		return apperrors.ErrCategoryInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
