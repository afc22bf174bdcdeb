package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// maxCodeAttempts bounds how many restaurant codes are tried before giving up.
const maxCodeAttempts = 5

// RestaurantService implements partner restaurant onboarding
type RestaurantService struct {
	repo       ports.RestaurantRepository
	foods      ports.FoodItemRepository
	categories ports.CategoryRepository
	txManager  ports.TransactionManager
}

var _ ports.RestaurantService = (*RestaurantService)(nil)

// NewRestaurantService creates a restaurant service. The catalog repositories
// back the legacy menu import.
func NewRestaurantService(
	repo ports.RestaurantRepository,
	foods ports.FoodItemRepository,
	categories ports.CategoryRepository,
	txManager ports.TransactionManager,
) ports.RestaurantService {
	return &RestaurantService{
		repo:       repo,
		foods:      foods,
		categories: categories,
		txManager:  txManager,
	}
}

// Register creates a restaurant with a unique public code
func (s *RestaurantService) Register(ctx context.Context, params domain.RestaurantRegistrationParams) (*domain.Restaurant, error) {
	// 1. Build the entity (validates and hashes the password)
	restaurant, err := domain.NewRestaurant(params)
	if err != nil {
		return nil, err
	}

	// 2. Reject duplicate emails
	_, err = s.repo.GetByEmail(ctx, restaurant.Email)
	if err == nil {
		return nil, apperrors.ErrRestaurantExists
	}
	if !errors.Is(err, apperrors.ErrRestaurantNotFound) {
		return nil, err
	}

	// 3. Pick a code no other restaurant uses
	code, err := s.uniqueCode(ctx, restaurant.Name)
	if err != nil {
		return nil, err
	}
	restaurant.RestaurantCode = code

	return s.repo.Create(ctx, restaurant)
}

func (s *RestaurantService) uniqueCode(ctx context.Context, name string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := domain.GenerateRestaurantCode(name)
		if err != nil {
			return "", err
		}
		taken, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperrors.ErrRestaurantCodeTaken
}

// Login authenticates an active restaurant
func (s *RestaurantService) Login(ctx context.Context, email, password string) (*domain.Restaurant, error) {
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	restaurant, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if !restaurant.IsActive {
		return nil, apperrors.ErrRestaurantNotFound
	}
	if !restaurant.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return restaurant, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RestaurantService) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.RestaurantProfileUpdate) (*domain.Restaurant, error) {
	restaurant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := restaurant.ApplyProfile(update); err != nil {
		return nil, err
	}
	return s.repo.UpdateProfile(ctx, restaurant)
}

func (s *RestaurantService) AddMenuItem(ctx context.Context, id uuid.UUID, params domain.MenuItemParams) (*domain.MenuItem, *domain.Restaurant, error) {
	item, err := domain.NewMenuItem(params)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.AddMenuItem(ctx, id, item); err != nil {
		return nil, nil, err
	}
	restaurant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return item, restaurant, nil
}

func (s *RestaurantService) UpdateMenuItem(ctx context.Context, id, itemID uuid.UUID, update domain.MenuItemUpdate) (*domain.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, id, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.Apply(update); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMenuItem(ctx, id, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *RestaurantService) DeleteMenuItem(ctx context.Context, id, itemID uuid.UUID) (*domain.Restaurant, error) {
	if err := s.repo.DeleteMenuItem(ctx, id, itemID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ImportCatalog copies shared catalog items onto the restaurant menu. Items
// whose name already appears on the menu or earlier in the batch are skipped.
func (s *RestaurantService) ImportCatalog(ctx context.Context, id uuid.UUID, foodItemIDs []uuid.UUID) (*ports.MenuImport, error) {
	// 1. Load the restaurant first so unknown ids fail before any catalog work
	restaurant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 2. Resolve the requested catalog items, or the whole catalog when none are named
	items, err := s.foods.List(ctx, ports.FoodItemFilter{IDs: foodItemIDs})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperrors.ErrNothingToImport
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	// 3. Drop names already on the menu
	seen := make(map[string]struct{}, len(restaurant.MenuItems)+len(items))
	for _, m := range restaurant.MenuItems {
		seen[domain.MenuKey(m.Name)] = struct{}{}
	}
	var fresh []domain.MenuItem
	for _, item := range items {
		key := domain.MenuKey(item.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, domain.MenuItemFromFoodItem(item, categoryNames[item.CategoryID]))
	}

	result := &ports.MenuImport{Imported: len(fresh), Skipped: len(items) - len(fresh), Restaurant: restaurant}
	if len(fresh) == 0 {
		return result, nil
	}

	// 4. Append atomically
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range fresh {
			if err := s.repo.AddMenuItem(ctx, id, &fresh[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Restaurant, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return result, nil
}
