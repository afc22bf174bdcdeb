package ports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role, isActive bool) error
}

// OrderFilter narrows an admin order listing.
type OrderFilter struct {
	Status      *domain.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// OrderRepository defines persistence for orders.
type OrderRepository interface {
	// Create assigns the id and order number and returns the stored order.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	// List returns one page of orders newest first, plus the total matching count.
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

// CategoryRepository defines persistence for menu categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FoodItemFilter narrows a catalog listing.
type FoodItemFilter struct {
	CategoryID    *uuid.UUID
	AvailableOnly bool
	// IDs, when non-empty, restricts the listing to these items.
	IDs           []uuid.UUID
}

// FoodItemRepository defines persistence for catalog items.
type FoodItemRepository interface {
	Create(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FoodItem, error)
	List(ctx context.Context, filter FoodItemFilter) ([]*domain.FoodItem, error)
	Update(ctx context.Context, item *domain.FoodItem) (*domain.FoodItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

// RestaurantRepository defines persistence for partner restaurants and their menus.
type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Restaurant, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateProfile(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error)
	AddMenuItem(ctx context.Context, restaurantID uuid.UUID, item *domain.MenuItem) error
	GetMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, restaurantID uuid.UUID, item *domain.MenuItem) error
	DeleteMenuItem(ctx context.Context, restaurantID, itemID uuid.UUID) error
}

// BlobObject describes an object to store.
type BlobObject struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// BlobStore defines the port for storing uploaded images.
type BlobStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, obj BlobObject) (string, error)
}
