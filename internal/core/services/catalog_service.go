package services

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// MaxImageSize is the largest accepted upload, 5 MiB.
const MaxImageSize = 5 << 20

const imageKeyPrefix = "food-items/"

// CatalogService implements category and food item management
type CatalogService struct {
	categoryRepo ports.CategoryRepository
	foodRepo     ports.FoodItemRepository
	blobs        ports.BlobStore
}

var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a catalog service. blobs may be nil, in which
// case image uploads are rejected.
func NewCatalogService(
	categoryRepo ports.CategoryRepository,
	foodRepo ports.FoodItemRepository,
	blobs ports.BlobStore,
) ports.CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		foodRepo:     foodRepo,
		blobs:        blobs,
	}
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	category, err := domain.NewCategory(name)
	if err != nil {
		return nil, err
	}
	return s.categoryRepo.Create(ctx, category)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := category.Rename(name); err != nil {
		return nil, err
	}
	return s.categoryRepo.Update(ctx, category)
}

// DeleteCategory removes a category no food item uses.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.foodRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.ErrCategoryInUse
	}
	return s.categoryRepo.Delete(ctx, id)
}

func (s *CatalogService) CreateFoodItem(ctx context.Context, params domain.FoodItemParams) (*domain.FoodItem, error) {
	item, err := domain.NewFoodItem(params)
	if err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, item.CategoryID); err != nil {
		return nil, err
	}
	return s.foodRepo.Create(ctx, item)
}

func (s *CatalogService) GetFoodItem(ctx context.Context, id uuid.UUID) (*domain.FoodItem, error) {
	return s.foodRepo.GetByID(ctx, id)
}

func (s *CatalogService) ListFoodItems(ctx context.Context, filter ports.FoodItemFilter) ([]*domain.FoodItem, error) {
	return s.foodRepo.List(ctx, filter)
}

func (s *CatalogService) UpdateFoodItem(ctx context.Context, id uuid.UUID, params domain.FoodItemParams) (*domain.FoodItem, error) {
	item, err := s.foodRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := item.Update(params); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, item.CategoryID); err != nil {
		return nil, err
	}
	return s.foodRepo.Update(ctx, item)
}

func (s *CatalogService) DeleteFoodItem(ctx context.Context, id uuid.UUID) error {
	return s.foodRepo.Delete(ctx, id)
}

// UploadImage stores an image and returns its public URL
func (s *CatalogService) UploadImage(ctx context.Context, params ports.UploadImageParams) (string, error) {
	if s.blobs == nil {
		return "", apperrors.ErrUploadsDisabled
	}
	if !strings.HasPrefix(params.ContentType, "image/") {
		return "", apperrors.ErrUnsupportedMedia
	}
	if params.Size > MaxImageSize {
		return "", apperrors.ErrFileTooLarge
	}

	key := imageKeyPrefix + uuid.NewString() + strings.ToLower(path.Ext(params.Filename))
	return s.blobs.Put(ctx, ports.BlobObject{
		Key:         key,
		ContentType: params.ContentType,
		Size:        params.Size,
		Body:        params.Body,
	})
}
