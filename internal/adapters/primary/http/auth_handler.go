package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http/middleware"
	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/validation"
	"github.com/lorrc/cloudkitchen-backend/internal/auth"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// AuthHandler serves customer and admin authentication
type AuthHandler struct {
	authService  ports.AuthService
	tokenManager *auth.TokenManager
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(
	authService ports.AuthService,
	tokenManager *auth.TokenManager,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenManager: tokenManager,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "auth"),
	}
}

// RegisterRoutes mounts the customer routes under /api/auth
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/refresh", h.HandleRefresh)
}

// HandleRegister creates a customer account and signs it in
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[RegisterRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	user, err := h.authService.Register(r.Context(), domain.UserRegistrationParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Location: req.Location,
		MobileNo: req.MobileNo,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	h.writeToken(w, r, http.StatusCreated, user)
}

// HandleLogin signs in any active account
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[LoginRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	h.writeToken(w, r, http.StatusOK, user)
}

// HandleAdminLogin signs in admin accounts only
func (h *AuthHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[LoginRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	user, err := h.authService.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(r.Context(), "admin login rejected", "error", err)
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.writeToken(w, r, http.StatusOK, user)
}

// HandleAdminMe returns the signed-in admin's profile
func (h *AuthHandler) HandleAdminMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.UserID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if !user.IsAdmin() {
		h.errorHandler.Handle(w, r, apperrors.ErrForbidden)
		return
	}
	WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleRefresh exchanges a refresh token for a new token pair. The account
// is reloaded so a changed role or a disabled account takes effect.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[RefreshRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	claims, err := h.tokenManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.DebugContext(r.Context(), "refresh token rejected", "error", err)
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.UserID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		err = apperrors.ErrInvalidToken
	}
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if !user.IsActive {
		h.errorHandler.Handle(w, r, apperrors.ErrAccountDisabled)
		return
	}
	h.writeToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, err := h.tokenManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}
	refresh, err := h.tokenManager.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}
	WriteJSON(w, status, AuthResponse{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int64(h.tokenManager.TTL(user.Role).Seconds()),
		User:         toUserResponse(user),
	})
}
