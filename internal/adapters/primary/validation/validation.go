package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Validator collects field errors for request DTOs
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the collected errors, or nil when there are none.
func (v *Validator) Err() error {
	if v.HasErrors() {
		return v.errors
	}
	return nil
}

// Required validates that a string is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, limit int) *Validator {
	if len(value) > limit {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(limit)+" characters")
	}
	return v
}

// UUID validates UUID format
func (v *Validator) UUID(field, value string) *Validator {
	if value != "" {
		if _, err := uuid.Parse(value); err != nil {
			v.errors.Add(field, "Must be a valid UUID")
		}
	}
	return v
}

// NonNegative validates a price-like value
func (v *Validator) NonNegative(field string, value float64) *Validator {
	if value < 0 {
		v.errors.Add(field, "Must not be negative")
	}
	return v
}

// OneOf validates value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v // Empty is handled by Required
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// DecodeJSON decodes a bounded JSON request body into T. Unknown fields are
// ignored; an empty body or trailing data is rejected.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, apperrors.NewBadRequestError(err, "Request body too large")
		case errors.Is(err, io.EOF):
			return nil, apperrors.NewBadRequestError(err, "Request body is required")
		default:
			return nil, apperrors.NewBadRequestError(err, "Invalid request body")
		}
	}
	if dec.More() {
		return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Request body must contain a single JSON object")
	}

	return &req, nil
}

// PageParams holds page-number pagination
type PageParams struct {
	Page  int
	Limit int
}

// ParsePage reads page and limit query parameters. Missing or invalid values
// fall back to page 1 and defaultLimit; limit is capped at maxLimit.
func ParsePage(r *http.Request, defaultLimit, maxLimit int) PageParams {
	params := PageParams{
		Page:  ParseIntQueryParam(r, "page", 1),
		Limit: ParseIntQueryParam(r, "limit", defaultLimit),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultLimit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}
	return params
}

// ParseIntQueryParam safely parses an integer query parameter
func ParseIntQueryParam(r *http.Request, key string, defaultValue int) int {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		return defaultValue
	}

	return value
}

// ParseStringQueryParam returns nil for an absent parameter
func ParseStringQueryParam(r *http.Request, key string) *string {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil
	}
	return &value
}

// ParseBoolQueryParam safely parses a boolean query parameter
func ParseBoolQueryParam(r *http.Request, key string, defaultValue bool) bool {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// ParseDateQueryParam accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
// A plain endOfDay date resolves to the last instant of that day.
func ParseDateQueryParam(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperrors.NewValidationErrorsWith(key, "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// ParseUUIDParam reads a chi URL parameter as a UUID
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(err, fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}
