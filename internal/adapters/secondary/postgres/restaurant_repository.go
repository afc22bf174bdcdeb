package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

const (
	restaurantColumns = `id, name, email, password_hash, restaurant_code, profile, is_active, created_at, updated_at`
	menuItemColumns   = `id, name, category, price, description, image_url, is_available, created_at, updated_at`
)

// Constraint names from the restaurants migration.
const (
	restaurantEmailKey = "restaurants_email_key"
	restaurantCodeKey  = "restaurants_code_key"
)

// RestaurantRepository stores partner restaurants. The profile is a JSONB
// document and menu items live in their own table.
type RestaurantRepository struct {
	pool *pgxpool.Pool
}

var _ ports.RestaurantRepository = (*RestaurantRepository)(nil)

func NewRestaurantRepository(pool *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{pool: pool}
}

func scanRestaurant(row pgx.Row) (*domain.Restaurant, error) {
	var r domain.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.PasswordHash, &r.RestaurantCode,
		&r.Profile, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.MenuItems = []domain.MenuItem{}
	return &r, nil
}

func scanMenuItem(row pgx.Row) (*domain.MenuItem, error) {
	var m domain.MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.Description, &m.ImageURL,
		&m.IsAvailable, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *RestaurantRepository) Create(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error) {
	const query = `
INSERT INTO restaurants (` + restaurantColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + restaurantColumns

	created, err := scanRestaurant(GetDBTX(ctx, r.pool).QueryRow(ctx, query,
		restaurant.ID, restaurant.Name, restaurant.Email, restaurant.PasswordHash,
		restaurant.RestaurantCode, restaurant.Profile, restaurant.IsActive,
		restaurant.CreatedAt, restaurant.UpdatedAt,
	))
	if constraint, dup := constraintViolation(err, uniqueViolation); dup {
		if constraint == restaurantCodeKey {
			return nil, apperrors.ErrRestaurantCodeTaken
		}
		return nil, apperrors.ErrRestaurantExists
	}
	if err != nil {
		return nil, fmt.Errorf("insert restaurant: %w", err)
	}
	return created, nil
}

// GetByID returns the restaurant with its menu, oldest item first.
func (r *RestaurantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	const query = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`

	db := GetDBTX(ctx, r.pool)
	restaurant, err := scanRestaurant(db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, apperrors.ErrRestaurantNotFound)
	}

	rows, err := db.Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE restaurant_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		restaurant.MenuItems = append(restaurant.MenuItems, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return restaurant, nil
}

// GetByEmail returns the restaurant without its menu.
func (r *RestaurantRepository) GetByEmail(ctx context.Context, email string) (*domain.Restaurant, error) {
	const query = `SELECT ` + restaurantColumns + ` FROM restaurants WHERE email = $1`

	restaurant, err := scanRestaurant(GetDBTX(ctx, r.pool).QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound(err, apperrors.ErrRestaurantNotFound)
	}
	return restaurant, nil
}

func (r *RestaurantRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := GetDBTX(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM restaurants WHERE restaurant_code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *RestaurantRepository) UpdateProfile(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error) {
	const query = `UPDATE restaurants SET profile = $2, updated_at = NOW() WHERE id = $1`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, restaurant.ID, restaurant.Profile)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrRestaurantNotFound
	}
	return r.GetByID(ctx, restaurant.ID)
}

func (r *RestaurantRepository) AddMenuItem(ctx context.Context, restaurantID uuid.UUID, item *domain.MenuItem) error {
	const query = `
INSERT INTO menu_items (restaurant_id, ` + menuItemColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := GetDBTX(ctx, r.pool).Exec(ctx, query, restaurantID,
		item.ID, item.Name, item.Category, item.Price, item.Description, item.ImageURL,
		item.IsAvailable, item.CreatedAt, item.UpdatedAt,
	)
	if _, missing := constraintViolation(err, foreignKeyViolation); missing {
		return apperrors.ErrRestaurantNotFound
	}
	return err
}

func (r *RestaurantRepository) GetMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID) (*domain.MenuItem, error) {
	const query = `SELECT ` + menuItemColumns + ` FROM menu_items WHERE restaurant_id = $1 AND id = $2`

	item, err := scanMenuItem(GetDBTX(ctx, r.pool).QueryRow(ctx, query, restaurantID, itemID))
	if err != nil {
		return nil, notFound(err, apperrors.ErrMenuItemNotFound)
	}
	return item, nil
}

func (r *RestaurantRepository) UpdateMenuItem(ctx context.Context, restaurantID uuid.UUID, item *domain.MenuItem) error {
	const query = `
UPDATE menu_items
SET name = $3, category = $4, price = $5, description = $6, image_url = $7,
    is_available = $8, updated_at = $9
WHERE restaurant_id = $1 AND id = $2`

	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, query, restaurantID, item.ID,
		item.Name, item.Category, item.Price, item.Description, item.ImageURL,
		item.IsAvailable, item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMenuItemNotFound
	}
	return nil
}

func (r *RestaurantRepository) DeleteMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID) error {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx,
		`DELETE FROM menu_items WHERE restaurant_id = $1 AND id = $2`, restaurantID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMenuItemNotFound
	}
	return nil
}
