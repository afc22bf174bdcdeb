package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

const (
	MaxFoodNameLength        = 255
	MaxFoodDescriptionLength = 2000
	MaxCategoryNameLength    = 100
)

// Category groups food items on the storefront menu.
type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// NewCategory validates the name and builds a category.
func NewCategory(name string) (*Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	return &Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Rename validates and sets a new name.
func (c *Category) Rename(name string) error {
	name, err := validateCategoryName(name)
	if err != nil {
		return err
	}
	c.Name = name
	return nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	errs := apperrors.NewValidationErrors()
	if name == "" {
		errs.Add("name", "Category name is required")
	} else if len(name) > MaxCategoryNameLength {
		errs.Add("name", "Category name must be 100 characters or less")
	}
	if errs.HasErrors() {
		return "", errs
	}
	return name, nil
}

// FoodItem is an item of the shared catalog.
type FoodItem struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       float64
	CategoryID  uuid.UUID
	ImageURL    string
	// Options maps a size label (half, full, regular, ...) to its display price.
	Options     map[string]string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FoodItemParams holds the writable fields of a food item.
type FoodItemParams struct {
	Name        string
	Description string
	Price       float64
	CategoryID  uuid.UUID
	ImageURL    string
	Options     map[string]string
	IsAvailable *bool
}

// Validate validates food item parameters.
func (p *FoodItemParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs.Add("name", "Name is required")
	} else if len(name) > MaxFoodNameLength {
		errs.Add("name", "Name must be 255 characters or less")
	}
	if len(p.Description) > MaxFoodDescriptionLength {
		errs.Add("description", "Description must be 2000 characters or less")
	}
	if p.Price < 0 {
		errs.Add("price", "Price cannot be negative")
	}
	if p.CategoryID == uuid.Nil {
		errs.Add("categoryId", "Category is required")
	}
	if strings.TrimSpace(p.ImageURL) == "" {
		errs.Add("imageUrl", "Image is required")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewFoodItem builds a food item from validated parameters.
func NewFoodItem(params FoodItemParams) (*FoodItem, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item := &FoodItem{
		ID:          uuid.New(),
		IsAvailable: true,
		CreatedAt:   now,
	}
	item.apply(params, now)
	return item, nil
}

// Update replaces the writable fields after validation.
func (f *FoodItem) Update(params FoodItemParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	f.apply(params, time.Now().UTC())
	return nil
}

func (f *FoodItem) apply(params FoodItemParams, now time.Time) {
	f.Name = strings.TrimSpace(params.Name)
	f.Description = strings.TrimSpace(params.Description)
	f.Price = params.Price
	f.CategoryID = params.CategoryID
	f.ImageURL = strings.TrimSpace(params.ImageURL)
	f.Options = params.Options
	if f.Options == nil {
		f.Options = map[string]string{}
	}
	if params.IsAvailable != nil {
		f.IsAvailable = *params.IsAvailable
	}
	f.UpdatedAt = now
}
