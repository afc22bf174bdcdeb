package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, err)
		writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err)
		WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: validationErrs.Errors,
		})
		return
	}

	statusCode, response := mapDomainError(err)
	h.logError(r, statusCode, err)
	writeErrorResponse(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func mapDomainError(err error) (int, ErrorResponse) {
	switch {
	// Authentication & Authorization
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password", Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Code: "UNAUTHORIZED"}
	case errors.Is(err, apperrors.ErrInvalidToken):
		return http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired refresh token", Code: "INVALID_TOKEN"}
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: "You do not have permission to perform this action", Code: "FORBIDDEN"}
	case errors.Is(err, apperrors.ErrAccountDisabled):
		return http.StatusForbidden, ErrorResponse{Error: "This account has been disabled", Code: "ACCOUNT_DISABLED"}

	// Not Found errors
	case errors.Is(err, apperrors.ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "User not found", Code: "USER_NOT_FOUND"}
	case errors.Is(err, apperrors.ErrOrderNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Order not found", Code: "ORDER_NOT_FOUND"}
	case errors.Is(err, apperrors.ErrFoodItemNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Food item not found", Code: "FOOD_ITEM_NOT_FOUND"}
	case errors.Is(err, apperrors.ErrCategoryNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Category not found", Code: "CATEGORY_NOT_FOUND"}
	case errors.Is(err, apperrors.ErrRestaurantNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Restaurant not found", Code: "RESTAURANT_NOT_FOUND"}
	case errors.Is(err, apperrors.ErrMenuItemNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Menu item not found", Code: "MENU_ITEM_NOT_FOUND"}
	case errors.Is(err, apperrors.ErrNothingToImport):
		return http.StatusNotFound, ErrorResponse{Error: "No matching food items found to import", Code: "NOTHING_TO_IMPORT"}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Resource not found", Code: "NOT_FOUND"}

	// Conflict errors
	case errors.Is(err, apperrors.ErrUserExists):
		return http.StatusConflict, ErrorResponse{Error: "A user with this email already exists", Code: "USER_EXISTS"}
	case errors.Is(err, apperrors.ErrRestaurantExists):
		return http.StatusConflict, ErrorResponse{Error: "A restaurant with this email already exists", Code: "RESTAURANT_EXISTS"}
	case errors.Is(err, apperrors.ErrCategoryExists):
		return http.StatusConflict, ErrorResponse{Error: "A category with this name already exists", Code: "CATEGORY_EXISTS"}
	case errors.Is(err, apperrors.ErrRestaurantCodeTaken):
		return http.StatusConflict, ErrorResponse{Error: "Could not allocate a unique restaurant code, please retry", Code: "RESTAURANT_CODE_TAKEN"}
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: "Resource conflict", Code: "CONFLICT"}

	// Validation errors
	case errors.Is(err, apperrors.ErrEmailRequired),
		errors.Is(err, apperrors.ErrPasswordRequired),
		errors.Is(err, apperrors.ErrPasswordTooWeak),
		errors.Is(err, apperrors.ErrOrderItemsRequired),
		errors.Is(err, apperrors.ErrNoProfileFields),
		errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}
	case errors.Is(err, apperrors.ErrCategoryInUse):
		return http.StatusBadRequest, ErrorResponse{Error: "Cannot delete category with associated food items", Code: "CATEGORY_IN_USE"}
	case errors.Is(err, apperrors.ErrInvalidOrderStatus):
		return http.StatusBadRequest, ErrorResponse{Error: "Invalid order status", Code: "INVALID_ORDER_STATUS"}

	// Uploads
	case errors.Is(err, apperrors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Image must be 5 MB or smaller", Code: "FILE_TOO_LARGE"}
	case errors.Is(err, apperrors.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, ErrorResponse{Error: "Only image files are allowed", Code: "UNSUPPORTED_MEDIA_TYPE"}
	case errors.Is(err, apperrors.ErrUploadsDisabled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Image uploads are not configured", Code: "UPLOADS_DISABLED"}

	// Rate limiting
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests. Please try again later.", Code: "RATE_LIMITED"}

	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "An unexpected error occurred", Code: "INTERNAL_ERROR"}
	}
}

// logError logs 5xx at ERROR and everything else at WARN
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	level := slog.LevelWarn
	msg := "client error"
	if statusCode >= 500 {
		level = slog.LevelError
		msg = "server error"
	}
	h.logger.Log(r.Context(), level, msg,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	WriteJSON(w, statusCode, response)
}

// HandleError Helper function to handle errors inline in handlers
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
