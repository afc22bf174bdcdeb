package ports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
)

// AuthService defines the port for account authentication.
type AuthService interface {
	Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	// AdminLogin succeeds only for active admin accounts.
	AdminLogin(ctx context.Context, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// AdminAccountService defines operator maintenance of admin accounts.
type AdminAccountService interface {
	// EnsureAdmin creates the admin, or promotes an existing account. The
	// boolean reports whether a new account was created.
	EnsureAdmin(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ResetPassword(ctx context.Context, email, password string) error
}

// ListOrdersParams defines the input for the admin order listing.
type ListOrdersParams struct {
	Status    *domain.OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders     []*domain.Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// OrderService defines the order lifecycle operations.
type OrderService interface {
	PlaceOrder(ctx context.Context, params domain.OrderParams) (*domain.Order, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListOrders(ctx context.Context, params ListOrdersParams) (*OrderPage, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

// OrderNotifier pushes persisted order mutations to connected dashboards.
// Publish never blocks on delivery; a returned error means the event was
// dropped before dispatch.
type OrderNotifier interface {
	Publish(kind domain.OrderEventKind, order *domain.Order) error
}

// UploadImageParams defines an image upload.
type UploadImageParams struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CatalogService defines category and food item management.
type CatalogService interface {
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CreateFoodItem(ctx context.Context, params domain.FoodItemParams) (*domain.FoodItem, error)
	GetFoodItem(ctx context.Context, id uuid.UUID) (*domain.FoodItem, error)
	ListFoodItems(ctx context.Context, filter FoodItemFilter) ([]*domain.FoodItem, error)
	UpdateFoodItem(ctx context.Context, id uuid.UUID, params domain.FoodItemParams) (*domain.FoodItem, error)
	DeleteFoodItem(ctx context.Context, id uuid.UUID) error
	UploadImage(ctx context.Context, params UploadImageParams) (string, error)
}

// RestaurantService defines partner restaurant onboarding and menu management.
type RestaurantService interface {
	Register(ctx context.Context, params domain.RestaurantRegistrationParams) (*domain.Restaurant, error)
	Login(ctx context.Context, email, password string) (*domain.Restaurant, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update domain.RestaurantProfileUpdate) (*domain.Restaurant, error)
	AddMenuItem(ctx context.Context, id uuid.UUID, params domain.MenuItemParams) (*domain.MenuItem, *domain.Restaurant, error)
	UpdateMenuItem(ctx context.Context, id, itemID uuid.UUID, update domain.MenuItemUpdate) (*domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id, itemID uuid.UUID) (*domain.Restaurant, error)
	ImportCatalog(ctx context.Context, id uuid.UUID, foodItemIDs []uuid.UUID) (*MenuImport, error)
}

// MenuImport reports a catalog import onto a restaurant menu.
type MenuImport struct {
	Imported   int
	Skipped    int
	Restaurant *domain.Restaurant
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
