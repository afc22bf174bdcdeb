package http

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/validation"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// --- Auth ---

// RegisterRequest is the customer sign-up body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Location string `json:"location"`
	MobileNo string `json:"mobileNo"`
}

// LoginRequest is shared by customer, admin and restaurant logins
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID        uuid.UUID   `json:"_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Location  string      `json:"location,omitempty"`
	MobileNo  string      `json:"mobileNo,omitempty"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AuthResponse carries an access token and the account it was issued for
type AuthResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	ExpiresIn    int64         `json:"expiresIn"`
	User         *UserResponse `json:"user,omitempty"`
}

// RefreshRequest carries a refresh token issued at login
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func toUserResponse(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Location:  u.Location,
		MobileNo:  u.MobileNo,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// --- Orders ---

// OrderItemRequest is one line of a new order
type OrderItemRequest struct {
	FoodID   string  `json:"foodId"`
	Name     string  `json:"name"`
	Size     string  `json:"size"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// PlaceOrderRequest is the checkout body. Email defaults to the caller's.
type PlaceOrderRequest struct {
	Email    string             `json:"email"`
	MobileNo string             `json:"mobileNo"`
	Items    []OrderItemRequest `json:"items"`
}

func (req *PlaceOrderRequest) toParams(claimsEmail string, userID *uuid.UUID) (domain.OrderParams, error) {
	v := validation.NewValidator()
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		line := domain.OrderItem{
			Name:     item.Name,
			Size:     strings.TrimSpace(item.Size),
			Quantity: item.Quantity,
			Price:    item.Price,
		}
		if item.FoodID != "" {
			id, err := uuid.Parse(item.FoodID)
			v.Custom("items", err == nil, "Item foodId must be a valid UUID")
			if err == nil {
				line.FoodID = &id
			}
		}
		items = append(items, line)
	}
	if err := v.Err(); err != nil {
		return domain.OrderParams{}, err
	}

	email := req.Email
	if strings.TrimSpace(email) == "" {
		email = claimsEmail
	}
	return domain.OrderParams{
		UserID:   userID,
		Email:    email,
		MobileNo: req.MobileNo,
		Items:    items,
	}, nil
}

// UpdateOrderStatusRequest is the admin status change body
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// OrderResponse is the REST view of an order
type OrderResponse struct {
	ID          uuid.UUID          `json:"_id"`
	OrderNumber string             `json:"orderNumber"`
	UserID      *uuid.UUID         `json:"userId,omitempty"`
	Email       string             `json:"email"`
	MobileNo    string             `json:"mobileNo,omitempty"`
	Status      domain.OrderStatus `json:"status"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toOrderResponse(o *domain.Order) *OrderResponse {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return &OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Email:       o.Email,
		MobileNo:    o.MobileNo,
		Status:      o.Status,
		Items:       items,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderResponses(orders []*domain.Order) []*OrderResponse {
	out := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

// OrderPageResponse is one page of the admin order listing
type OrderPageResponse struct {
	Orders      []*OrderResponse `json:"orders"`
	TotalOrders int64            `json:"totalOrders"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Limit       int              `json:"limit"`
}

func toOrderPageResponse(p *ports.OrderPage) *OrderPageResponse {
	return &OrderPageResponse{
		Orders:      toOrderResponses(p.Orders),
		TotalOrders: p.Total,
		TotalPages:  p.TotalPages,
		CurrentPage: p.Page,
		Limit:       p.Limit,
	}
}

// StatusSummaryResponse aggregates one status
type StatusSummaryResponse struct {
	Status domain.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
	Amount float64            `json:"amount"`
}

// OrderStatsResponse is the dashboard summary
type OrderStatsResponse struct {
	TotalOrders  int64                   `json:"totalOrders"`
	TotalRevenue float64                 `json:"totalRevenue"`
	Statuses     []StatusSummaryResponse `json:"statuses"`
}

func toOrderStatsResponse(s *domain.OrderStats) *OrderStatsResponse {
	out := &OrderStatsResponse{
		TotalOrders:  s.TotalOrders,
		TotalRevenue: s.TotalRevenue,
		Statuses:     make([]StatusSummaryResponse, len(s.Statuses)),
	}
	for i, st := range s.Statuses {
		out.Statuses[i] = StatusSummaryResponse{Status: st.Status, Count: st.Count, Amount: st.Amount}
	}
	return out
}

// --- Catalog ---

// CategoryRequest creates a category
type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse is the REST view of a category
type CategoryResponse struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCategoryResponse(c *domain.Category) *CategoryResponse {
	return &CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

// FoodItemRequest creates or replaces a food item
type FoodItemRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	CategoryID  string            `json:"categoryId"`
	ImageURL    string            `json:"imageUrl"`
	Options     map[string]string `json:"options"`
	IsAvailable *bool             `json:"isAvailable"`
}

func (req *FoodItemRequest) toParams() (domain.FoodItemParams, error) {
	v := validation.NewValidator().
		Required("categoryId", req.CategoryID).
		UUID("categoryId", req.CategoryID)
	if err := v.Err(); err != nil {
		return domain.FoodItemParams{}, err
	}
	return domain.FoodItemParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  uuid.MustParse(req.CategoryID),
		ImageURL:    req.ImageURL,
		Options:     req.Options,
		IsAvailable: req.IsAvailable,
	}, nil
}

// FoodItemResponse is the REST view of a food item
type FoodItemResponse struct {
	ID          uuid.UUID         `json:"_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Price       float64           `json:"price"`
	CategoryID  uuid.UUID         `json:"categoryId"`
	ImageURL    string            `json:"imageUrl"`
	Options     map[string]string `json:"options,omitempty"`
	IsAvailable bool              `json:"isAvailable"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toFoodItemResponse(f *domain.FoodItem) *FoodItemResponse {
	return &FoodItemResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		CategoryID:  f.CategoryID,
		ImageURL:    f.ImageURL,
		Options:     f.Options,
		IsAvailable: f.IsAvailable,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// UploadResponse returns the stored image URL
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// --- Restaurants ---

// RestaurantRegisterRequest is the partner sign-up body; profile fields sit
// next to the credentials.
type RestaurantRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	domain.RestaurantProfile
}

// RestaurantProfileRequest is a partial profile update
type RestaurantProfileRequest struct {
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	Cuisine    *string `json:"cuisine"`
	Bio        *string `json:"bio"`
	LogoURL    *string `json:"logoUrl"`
	OwnerName  *string `json:"ownerName"`
}

func (req *RestaurantProfileRequest) toUpdate() domain.RestaurantProfileUpdate {
	return domain.RestaurantProfileUpdate{
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Cuisine:    req.Cuisine,
		Bio:        req.Bio,
		LogoURL:    req.LogoURL,
		OwnerName:  req.OwnerName,
	}
}

// MenuItemRequest adds a menu item or updates the fields it carries
type MenuItemRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"imageUrl"`
	IsAvailable *bool    `json:"isAvailable"`
}

func (req *MenuItemRequest) toParams() (domain.MenuItemParams, error) {
	v := validation.NewValidator().
		Custom("name", req.Name != nil, "This field is required").
		Custom("category", req.Category != nil, "This field is required").
		Custom("price", req.Price != nil, "This field is required")
	if err := v.Err(); err != nil {
		return domain.MenuItemParams{}, err
	}
	return domain.MenuItemParams{
		Name:        *req.Name,
		Category:    *req.Category,
		Price:       *req.Price,
		Description: deref(req.Description),
		ImageURL:    deref(req.ImageURL),
		IsAvailable: req.IsAvailable,
	}, nil
}

func (req *MenuItemRequest) toUpdate() domain.MenuItemUpdate {
	return domain.MenuItemUpdate{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsAvailable: req.IsAvailable,
	}
}

// RestaurantResponse is the owner's view of their restaurant
type RestaurantResponse struct {
	ID             uuid.UUID                `json:"_id"`
	Name           string                   `json:"name"`
	Email          string                   `json:"email"`
	RestaurantCode string                   `json:"restaurantCode"`
	Profile        domain.RestaurantProfile `json:"profile"`
	MenuItems      []domain.MenuItem        `json:"menuItems"`
	IsActive       bool                     `json:"isActive"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

func toRestaurantResponse(r *domain.Restaurant) *RestaurantResponse {
	menu := r.MenuItems
	if menu == nil {
		menu = []domain.MenuItem{}
	}
	return &RestaurantResponse{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		RestaurantCode: r.RestaurantCode,
		Profile:        r.Profile,
		MenuItems:      menu,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// RestaurantAuthResponse carries a restaurant token
type RestaurantAuthResponse struct {
	Token      string              `json:"token"`
	ExpiresIn  int64               `json:"expiresIn"`
	Restaurant *RestaurantResponse `json:"restaurant"`
}

// MenuItemResponse returns the touched item with the refreshed restaurant
type MenuItemResponse struct {
	MenuItem   *domain.MenuItem    `json:"menuItem,omitempty"`
	Restaurant *RestaurantResponse `json:"restaurant,omitempty"`
}

// MenuImportRequest names the catalog items to copy onto a menu. Ids that do
// not parse are ignored.
type MenuImportRequest struct {
	FoodItemIDs []string `json:"foodItemIds"`
}

func (r MenuImportRequest) parseIDs() ([]uuid.UUID, error) {
	if len(r.FoodItemIDs) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(r.FoodItemIDs))
	for _, raw := range r.FoodItemIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "No valid food item ids provided")
	}
	return ids, nil
}

// MenuImportResponse reports a catalog import
type MenuImportResponse struct {
	Imported   int                 `json:"imported"`
	Skipped    int                 `json:"skipped"`
	Restaurant *RestaurantResponse `json:"restaurant"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
