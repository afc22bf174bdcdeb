package http

import (
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

func sampleRestaurant() *domain.Restaurant {
	now := time.Now().UTC()
	return &domain.Restaurant{
		ID:             uuid.New(),
		Name:           "Spice Route",
		Email:          "owner@spiceroute.example",
		RestaurantCode: "spice-route-a1b2",
		Profile:        domain.RestaurantProfile{City: "Pune", Cuisine: "Maratha"},
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestRestaurantHandler_Register(t *testing.T) {
	api := newTestAPI(t)
	restaurant := sampleRestaurant()
	api.restaurants.On("Register", mock.Anything, mock.MatchedBy(func(p domain.RestaurantRegistrationParams) bool {
		return p.Name == "Spice Route" && p.Profile.City == "Pune"
	})).Return(restaurant, nil)

	rec := api.do(t, stdhttp.MethodPost, "/api/restaurants/register", map[string]any{
		"name":     "Spice Route",
		"email":    "owner@spiceroute.example",
		"password": "secret12",
		"city":     "Pune",
	}, "")

	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[RestaurantAuthResponse](t, rec)
	assert.Equal(t, "spice-route-a1b2", resp.Restaurant.RestaurantCode)
	assert.NotNil(t, resp.Restaurant.MenuItems)
	assert.Equal(t, int64((7 * 24 * time.Hour).Seconds()), resp.ExpiresIn)

	claims, err := api.tm.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRestaurantOwner, claims.Role)
	assert.Equal(t, restaurant.ID, claims.UserID)
}

func TestRestaurantHandler_MeRequiresOwner(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.token(t, domain.RoleAdmin)
	ownerID, ownerToken := api.token(t, domain.RoleRestaurantOwner)
	restaurant := sampleRestaurant()
	restaurant.ID = ownerID
	api.restaurants.On("Get", mock.Anything, ownerID).Return(restaurant, nil)

	assert.Equal(t, stdhttp.StatusForbidden, api.do(t, stdhttp.MethodGet, "/api/restaurants/me", nil, adminToken).Code)

	rec := api.do(t, stdhttp.MethodGet, "/api/restaurants/me", nil, ownerToken)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, ownerID, decodeBody[RestaurantResponse](t, rec).ID)
}

func TestRestaurantHandler_UpdateProfile(t *testing.T) {
	api := newTestAPI(t)
	ownerID, token := api.token(t, domain.RoleRestaurantOwner)
	restaurant := sampleRestaurant()
	restaurant.Profile.Bio = "Coastal kitchen"

	api.restaurants.On("UpdateProfile", mock.Anything, ownerID, mock.MatchedBy(func(u domain.RestaurantProfileUpdate) bool {
		return u.Bio != nil && *u.Bio == "Coastal kitchen" && u.City == nil
	})).Return(restaurant, nil).Once()
	api.restaurants.On("UpdateProfile", mock.Anything, ownerID, domain.RestaurantProfileUpdate{}).Return(nil, apperrors.ErrNoProfileFields).Once()

	rec := api.do(t, stdhttp.MethodPut, "/api/restaurants/me", map[string]any{"bio": "Coastal kitchen"}, token)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "Coastal kitchen", decodeBody[RestaurantResponse](t, rec).Profile.Bio)

	rec = api.do(t, stdhttp.MethodPut, "/api/restaurants/me", map[string]any{}, token)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestRestaurantHandler_AddMenuItem(t *testing.T) {
	api := newTestAPI(t)
	ownerID, token := api.token(t, domain.RoleRestaurantOwner)
	item := &domain.MenuItem{ID: uuid.New(), Name: "Misal Pav", Category: "Breakfast", Price: 90, IsAvailable: true}
	restaurant := sampleRestaurant()
	restaurant.MenuItems = []domain.MenuItem{*item}

	api.restaurants.On("AddMenuItem", mock.Anything, ownerID, mock.MatchedBy(func(p domain.MenuItemParams) bool {
		return p.Name == "Misal Pav" && p.Price == 90 && p.Category == "Breakfast"
	})).Return(item, restaurant, nil)

	rec := api.do(t, stdhttp.MethodPost, "/api/restaurants/me/menu", map[string]any{
		"name":     "Misal Pav",
		"category": "Breakfast",
		"price":    90,
	}, token)
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[MenuItemResponse](t, rec)
	assert.Equal(t, item.ID, resp.MenuItem.ID)
	assert.Len(t, resp.Restaurant.MenuItems, 1)

	rec = api.do(t, stdhttp.MethodPost, "/api/restaurants/me/menu", map[string]any{"name": "Vada"}, token)
	require.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	fields := decodeBody[ValidationErrorResponse](t, rec).Fields
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "category")
}

func TestRestaurantHandler_UpdateMenuItem(t *testing.T) {
	api := newTestAPI(t)
	ownerID, token := api.token(t, domain.RoleRestaurantOwner)
	itemID := uuid.New()
	api.restaurants.On("UpdateMenuItem", mock.Anything, ownerID, itemID, mock.MatchedBy(func(u domain.MenuItemUpdate) bool {
		return u.IsAvailable != nil && !*u.IsAvailable && u.Name == nil
	})).Return(&domain.MenuItem{ID: itemID, Name: "Misal Pav"}, nil)
	api.restaurants.On("UpdateMenuItem", mock.Anything, ownerID, mock.Anything, mock.Anything).Return(nil, apperrors.ErrMenuItemNotFound)

	rec := api.do(t, stdhttp.MethodPut, "/api/restaurants/me/menu/"+itemID.String(), map[string]any{"isAvailable": false}, token)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, itemID, decodeBody[MenuItemResponse](t, rec).MenuItem.ID)

	rec = api.do(t, stdhttp.MethodPut, "/api/restaurants/me/menu/"+uuid.NewString(), map[string]any{"price": 10}, token)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestRestaurantHandler_DeleteMenuItem(t *testing.T) {
	api := newTestAPI(t)
	ownerID, token := api.token(t, domain.RoleRestaurantOwner)
	itemID := uuid.New()
	restaurant := sampleRestaurant()
	restaurant.ID = ownerID
	api.restaurants.On("DeleteMenuItem", mock.Anything, ownerID, itemID).Return(restaurant, nil)
	api.restaurants.On("DeleteMenuItem", mock.Anything, ownerID, mock.Anything).Return(nil, apperrors.ErrMenuItemNotFound)

	rec := api.do(t, stdhttp.MethodDelete, "/api/restaurants/me/menu/"+itemID.String(), nil, token)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[MenuItemResponse](t, rec)
	assert.Nil(t, resp.MenuItem)
	assert.Equal(t, ownerID, resp.Restaurant.ID)

	rec = api.do(t, stdhttp.MethodDelete, "/api/restaurants/me/menu/"+uuid.NewString(), nil, token)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestRestaurantHandler_ImportCatalog(t *testing.T) {
	api := newTestAPI(t)
	ownerID, token := api.token(t, domain.RoleRestaurantOwner)
	wanted := uuid.New()
	restaurant := sampleRestaurant()
	restaurant.MenuItems = []domain.MenuItem{{ID: uuid.New(), Name: "Poi", Category: "General"}}

	api.restaurants.On("ImportCatalog", mock.Anything, ownerID, []uuid.UUID{wanted}).
		Return(&ports.MenuImport{Imported: 1, Skipped: 0, Restaurant: restaurant}, nil).Once()
	api.restaurants.On("ImportCatalog", mock.Anything, ownerID, []uuid.UUID(nil)).
		Return(nil, apperrors.ErrNothingToImport).Once()

	rec := api.do(t, stdhttp.MethodPost, "/api/restaurants/me/menu/import-legacy", map[string]any{
		"foodItemIds": []string{"junk", wanted.String()},
	}, token)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[MenuImportResponse](t, rec)
	assert.Equal(t, 1, resp.Imported)
	assert.Len(t, resp.Restaurant.MenuItems, 1)

	rec = api.do(t, stdhttp.MethodPost, "/api/restaurants/me/menu/import-legacy", nil, token)
	require.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Equal(t, "NOTHING_TO_IMPORT", errorCode(t, rec))

	rec = api.do(t, stdhttp.MethodPost, "/api/restaurants/me/menu/import-legacy", map[string]any{
		"foodItemIds": []string{"junk"},
	}, token)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}
