package domain

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

const (
	maxRestaurantSlugLength = 24
	restaurantCodeSuffixLen = 4
	restaurantCodeAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// RestaurantProfile holds the optional, freely editable profile fields.
type RestaurantProfile struct {
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Cuisine    string `json:"cuisine"`
	Bio        string `json:"bio"`
	LogoURL    string `json:"logoUrl"`
	OwnerName  string `json:"ownerName"`
}

// RestaurantProfileUpdate carries only the profile fields the caller sent.
type RestaurantProfileUpdate struct {
	Phone      *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string
	Country    *string
	Cuisine    *string
	Bio        *string
	LogoURL    *string
	OwnerName  *string
}

// IsEmpty reports whether no field was provided.
func (u RestaurantProfileUpdate) IsEmpty() bool {
	return u.Phone == nil && u.Address == nil && u.City == nil && u.State == nil &&
		u.PostalCode == nil && u.Country == nil && u.Cuisine == nil && u.Bio == nil &&
		u.LogoURL == nil && u.OwnerName == nil
}

// MenuItem is an item on a restaurant's own menu.
type MenuItem struct {
	ID          uuid.UUID `json:"_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MenuItemUpdate carries only the menu item fields the caller sent.
type MenuItemUpdate struct {
	Name        *string
	Category    *string
	Price       *float64
	Description *string
	ImageURL    *string
	IsAvailable *bool
}

// IsEmpty reports whether no field was provided.
func (u MenuItemUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Price == nil &&
		u.Description == nil && u.ImageURL == nil && u.IsAvailable == nil
}

// Restaurant is a partner kitchen account with its own menu.
type Restaurant struct {
	ID             uuid.UUID
	Name           string
	Email          string
	PasswordHash   string
	RestaurantCode string
	Profile        RestaurantProfile
	MenuItems      []MenuItem
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RestaurantRegistrationParams holds the sign-up input.
type RestaurantRegistrationParams struct {
	Name     string
	Email    string
	Password string
	Profile  RestaurantProfile
}

// Validate validates restaurant registration parameters.
func (p *RestaurantRegistrationParams) Validate() error {
	errs := apperrors.NewValidationErrors()
	if strings.TrimSpace(p.Name) == "" {
		errs.Add("name", "Name is required")
	}
	email := NormalizeEmail(p.Email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !isValidEmail(email) {
		errs.Add("email", "Please use a valid email address")
	}
	if p.Password == "" {
		errs.Add("password", "Password is required")
	} else if len(p.Password) > MaxPasswordLength {
		errs.Add("password", "Password must be 72 characters or less")
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewRestaurant builds an active restaurant with a hashed password. The
// restaurant code is assigned separately so the caller can retry on collision.
func NewRestaurant(params RestaurantRegistrationParams) (*Restaurant, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Restaurant{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(params.Name),
		Email:        NormalizeEmail(params.Email),
		PasswordHash: string(hash),
		Profile:      params.Profile.trimmed(),
		MenuItems:    []MenuItem{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword verifies the password against the stored hash.
func (r *Restaurant) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte(password)) == nil
}

// ApplyProfile sets every provided field, trimmed.
func (r *Restaurant) ApplyProfile(u RestaurantProfileUpdate) error {
	if u.IsEmpty() {
		return apperrors.ErrNoProfileFields
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&r.Profile.Phone, u.Phone)
	set(&r.Profile.Address, u.Address)
	set(&r.Profile.City, u.City)
	set(&r.Profile.State, u.State)
	set(&r.Profile.PostalCode, u.PostalCode)
	set(&r.Profile.Country, u.Country)
	set(&r.Profile.Cuisine, u.Cuisine)
	set(&r.Profile.Bio, u.Bio)
	set(&r.Profile.LogoURL, u.LogoURL)
	set(&r.Profile.OwnerName, u.OwnerName)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (p RestaurantProfile) trimmed() RestaurantProfile {
	return RestaurantProfile{
		Phone:      strings.TrimSpace(p.Phone),
		Address:    strings.TrimSpace(p.Address),
		City:       strings.TrimSpace(p.City),
		State:      strings.TrimSpace(p.State),
		PostalCode: strings.TrimSpace(p.PostalCode),
		Country:    strings.TrimSpace(p.Country),
		Cuisine:    strings.TrimSpace(p.Cuisine),
		Bio:        strings.TrimSpace(p.Bio),
		LogoURL:    strings.TrimSpace(p.LogoURL),
		OwnerName:  strings.TrimSpace(p.OwnerName),
	}
}

// MenuItemParams holds the input for a new menu item.
type MenuItemParams struct {
	Name        string
	Category    string
	Price       float64
	Description string
	ImageURL    string
	IsAvailable *bool
}

// NewMenuItem validates the required fields and builds a menu item.
func NewMenuItem(params MenuItemParams) (*MenuItem, error) {
	errs := apperrors.NewValidationErrors()
	if strings.TrimSpace(params.Name) == "" {
		errs.Add("name", "Name is required")
	}
	if strings.TrimSpace(params.Category) == "" {
		errs.Add("category", "Category is required")
	}
	if params.Price < 0 {
		errs.Add("price", "Price cannot be negative")
	}
	if errs.HasErrors() {
		return nil, errs
	}

	available := true
	if params.IsAvailable != nil {
		available = *params.IsAvailable
	}
	now := time.Now().UTC()
	return &MenuItem{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(params.Name),
		Category:    strings.TrimSpace(params.Category),
		Price:       params.Price,
		Description: strings.TrimSpace(params.Description),
		ImageURL:    strings.TrimSpace(params.ImageURL),
		IsAvailable: available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply sets every provided field.
func (m *MenuItem) Apply(u MenuItemUpdate) error {
	if u.IsEmpty() {
		return apperrors.NewValidationErrorsWith("update", "No valid fields provided for update")
	}
	if u.Price != nil && *u.Price < 0 {
		return apperrors.NewValidationErrorsWith("price", "Price cannot be negative")
	}
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return apperrors.NewValidationErrorsWith("name", "Name is required")
		}
		m.Name = strings.TrimSpace(*u.Name)
	}
	if u.Category != nil {
		m.Category = strings.TrimSpace(*u.Category)
	}
	if u.Price != nil {
		m.Price = *u.Price
	}
	if u.Description != nil {
		m.Description = strings.TrimSpace(*u.Description)
	}
	if u.ImageURL != nil {
		m.ImageURL = strings.TrimSpace(*u.ImageURL)
	}
	if u.IsAvailable != nil {
		m.IsAvailable = *u.IsAvailable
	}
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// GenerateRestaurantCode derives a public code from the restaurant name: a
// lower-case slug of at most 24 characters followed by 4 random characters.
func GenerateRestaurantCode(name string) (string, error) {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxRestaurantSlugLength {
		slug = slug[:maxRestaurantSlugLength]
	}
	if slug == "" {
		slug = "restaurant"
	}

	suffix := make([]byte, restaurantCodeSuffixLen)
	limit := big.NewInt(int64(len(restaurantCodeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		suffix[i] = restaurantCodeAlphabet[n.Int64()]
	}
	return slug + "-" + string(suffix), nil
}

// defaultMenuCategory labels imported items whose catalog category is unknown.
const defaultMenuCategory = "General"

// MenuItemFromFoodItem copies a shared catalog item onto a restaurant menu
// under a fresh id.
func MenuItemFromFoodItem(item *FoodItem, category string) MenuItem {
	category = strings.TrimSpace(category)
	if category == "" {
		category = defaultMenuCategory
	}
	now := time.Now().UTC()
	return MenuItem{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(item.Name),
		Category:    category,
		Price:       item.Price,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		IsAvailable: item.IsAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MenuKey is the case-insensitive name menu items are deduplicated on.
func MenuKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
