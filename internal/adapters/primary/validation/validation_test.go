package validation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
)

func TestValidator(t *testing.T) {
	v := NewValidator().
		Required("name", " ").
		MaxLength("bio", strings.Repeat("x", 11), 10).
		UUID("categoryId", "nope").
		NonNegative("price", -1).
		OneOf("status", "teleported", []string{"pending", "shipped"}).
		Custom("items", false, "At least one item is required")

	require.True(t, v.HasErrors())
	for _, field := range []string{"name", "bio", "categoryId", "price", "status", "items"} {
		assert.Contains(t, v.Errors().Errors, field)
	}

	var validationErr *apperrors.ValidationErrors
	assert.ErrorAs(t, v.Err(), &validationErr)
	assert.NoError(t, NewValidator().Required("name", "Thali").Err())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	decode := func(body string) (*payload, error) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return DecodeJSON[payload](httptest.NewRecorder(), req)
	}

	got, err := decode(`{"name":"Thali","extra":1}`)
	require.NoError(t, err)
	assert.Equal(t, "Thali", got.Name)

	for _, body := range []string{"", "{", `{"name":"a"}{"name":"b"}`} {
		_, err := decode(body)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr, body)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	}

	_, err = decode(`{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Request body too large", appErr.Message)
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  PageParams
	}{
		{"", PageParams{Page: 1, Limit: 20}},
		{"page=3&limit=50", PageParams{Page: 3, Limit: 50}},
		{"page=0&limit=0", PageParams{Page: 1, Limit: 20}},
		{"page=abc&limit=1000", PageParams{Page: 1, Limit: 100}},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
		assert.Equal(t, tt.want, ParsePage(req, 20, 100), tt.query)
	}
}

func TestParseDateQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?startDate=2026-03-01&endDate=2026-03-02&at=2026-03-01T10:00:00Z&bad=yesterday", nil)

	start, err := ParseDateQueryParam(req, "startDate", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *start)

	end, err := ParseDateQueryParam(req, "endDate", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, 999999999, time.UTC), *end)

	at, err := ParseDateQueryParam(req, "at", true)
	require.NoError(t, err)
	assert.Equal(t, 10, at.Hour())

	missing, err := ParseDateQueryParam(req, "none", false)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseDateQueryParam(req, "bad", false)
	var validationErr *apperrors.ValidationErrors
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Errors, "bad")
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orderID", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := ParseUUIDParam(withParam(id.String()), "orderID")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(withParam("42"), "orderID")
	assert.Error(t, err)
}
