package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/validation"
	"github.com/lorrc/cloudkitchen-backend/internal/auth"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// RestaurantHandler serves partner onboarding and menu management
type RestaurantHandler struct {
	restaurantService ports.RestaurantService
	tokenManager      *auth.TokenManager
	errorHandler      *ErrorHandler
	logger            *slog.Logger
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(
	restaurantService ports.RestaurantService,
	tokenManager *auth.TokenManager,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *RestaurantHandler {
	return &RestaurantHandler{
		restaurantService: restaurantService,
		tokenManager:      tokenManager,
		errorHandler:      errorHandler,
		logger:            logger.With("handler", "restaurants"),
	}
}

// RegisterRoutes mounts the unauthenticated routes under /api/restaurants
func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}

// RegisterOwnerRoutes mounts the restaurant_owner routes under /api/restaurants
func (h *RestaurantHandler) RegisterOwnerRoutes(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Put("/me", h.HandleUpdateProfile)
	r.Post("/me/menu", h.HandleAddMenuItem)
	r.Put("/me/menu/{itemID}", h.HandleUpdateMenuItem)
	r.Delete("/me/menu/{itemID}", h.HandleDeleteMenuItem)
	r.Post("/me/menu/import-legacy", h.HandleImportCatalog)
}

// HandleRegister onboards a restaurant and signs it in
func (h *RestaurantHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[RestaurantRegisterRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	restaurant, err := h.restaurantService.Register(r.Context(), domain.RestaurantRegistrationParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Profile:  req.RestaurantProfile,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "restaurant registered",
		"restaurant_id", restaurant.ID,
		"restaurant_code", restaurant.RestaurantCode,
	)
	h.writeToken(w, r, http.StatusCreated, restaurant)
}

// HandleLogin signs in a restaurant owner
func (h *RestaurantHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[LoginRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	restaurant, err := h.restaurantService.Login(r.Context(), req.Email, req.Password)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	h.writeToken(w, r, http.StatusOK, restaurant)
}

// HandleMe returns the caller's restaurant
func (h *RestaurantHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}

	restaurant, err := h.restaurantService.Get(r.Context(), id)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// HandleUpdateProfile applies the profile fields present in the body
func (h *RestaurantHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}
	req, err := validation.DecodeJSON[RestaurantProfileRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	restaurant, err := h.restaurantService.UpdateProfile(r.Context(), id, req.toUpdate())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// HandleAddMenuItem appends a menu item
func (h *RestaurantHandler) HandleAddMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}
	req, err := validation.DecodeJSON[MenuItemRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	params, err := req.toParams()
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	item, restaurant, err := h.restaurantService.AddMenuItem(r.Context(), id, params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteCreated(w, MenuItemResponse{MenuItem: item, Restaurant: toRestaurantResponse(restaurant)})
}

// HandleUpdateMenuItem applies the menu item fields present in the body
func (h *RestaurantHandler) HandleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}
	itemID, err := validation.ParseUUIDParam(r, "itemID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	req, err := validation.DecodeJSON[MenuItemRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	item, err := h.restaurantService.UpdateMenuItem(r.Context(), id, itemID, req.toUpdate())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, MenuItemResponse{MenuItem: item})
}

// HandleDeleteMenuItem removes a menu item and returns the refreshed restaurant
func (h *RestaurantHandler) HandleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}
	itemID, err := validation.ParseUUIDParam(r, "itemID")
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	restaurant, err := h.restaurantService.DeleteMenuItem(r.Context(), id, itemID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	WriteJSON(w, http.StatusOK, MenuItemResponse{Restaurant: toRestaurantResponse(restaurant)})
}

// HandleImportCatalog copies shared catalog items onto the caller's menu.
// An empty body imports the whole catalog.
func (h *RestaurantHandler) HandleImportCatalog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.restaurantID(w, r)
	if !ok {
		return
	}
	var req MenuImportRequest
	if r.ContentLength != 0 {
		decoded, err := validation.DecodeJSON[MenuImportRequest](w, r)
		if HandleError(w, r, err, h.errorHandler) {
			return
		}
		req = *decoded
	}
	ids, err := req.parseIDs()
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	result, err := h.restaurantService.ImportCatalog(r.Context(), id, ids)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "catalog imported",
		"restaurant_id", id,
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	WriteJSON(w, http.StatusOK, MenuImportResponse{
		Imported:   result.Imported,
		Skipped:    result.Skipped,
		Restaurant: toRestaurantResponse(result.Restaurant),
	})
}

// restaurantID reads the restaurant id carried as the token subject.
func (h *RestaurantHandler) restaurantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func (h *RestaurantHandler) writeToken(w http.ResponseWriter, r *http.Request, status int, restaurant *domain.Restaurant) {
	token, err := h.tokenManager.GenerateToken(restaurant.ID, restaurant.Email, domain.RoleRestaurantOwner)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}
	WriteJSON(w, status, RestaurantAuthResponse{
		Token:      token,
		ExpiresIn:  int64(h.tokenManager.TTL(domain.RoleRestaurantOwner).Seconds()),
		Restaurant: toRestaurantResponse(restaurant),
	})
}
