package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/websocket"
	"github.com/lorrc/cloudkitchen-backend/internal/auth"
	"github.com/lorrc/cloudkitchen-backend/internal/config"
	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	"github.com/lorrc/cloudkitchen-backend/internal/core/mocks"
	"github.com/lorrc/cloudkitchen-backend/internal/infrastructure/metrics"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hmac"

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error {
	return p.err
}

type testAPI struct {
	router      chi.Router
	tm          *auth.TokenManager
	hub         *websocket.Hub
	metrics     *metrics.Collectors
	db          *fakePinger
	auth        *mocks.MockAuthService
	orders      *mocks.MockOrderService
	catalog     *mocks.MockCatalogService
	restaurants *mocks.MockRestaurantService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestAPI wires the full router over service mocks and a running hub.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := newStoppedTestAPI(t)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		api.hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	require.Eventually(t, api.hub.Running, time.Second, time.Millisecond)

	return api
}

// newStoppedTestAPI is newTestAPI without starting the hub.
func newStoppedTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := testLogger()
	collectors := metrics.New()

	api := &testAPI{
		tm: auth.NewTokenManager(testSecret, time.Hour,
			auth.WithRoleTTL(domain.RoleAdmin, 8*time.Hour),
			auth.WithRoleTTL(domain.RoleRestaurantOwner, 7*24*time.Hour),
		),
		hub:         websocket.NewHub(logger, websocket.WithMetrics(collectors)),
		metrics:     collectors,
		db:          &fakePinger{},
		auth:        mocks.NewMockAuthService(),
		orders:      mocks.NewMockOrderService(),
		catalog:     mocks.NewMockCatalogService(),
		restaurants: mocks.NewMockRestaurantService(),
	}

	cfg := &config.Config{App: config.AppConfig{Environment: "development"}}
	errorHandler := NewErrorHandler(logger)
	api.router = NewRouter(RouterConfig{
		Logger:         logger,
		TokenManager:   api.tm,
		AllowedOrigins: []string{"http://localhost:3000"},
		Metrics:        collectors,
		MetricsPath:    "/metrics",
		Health:         NewHealthHandler(api.db, api.hub, "test"),
		Auth:           NewAuthHandler(api.auth, api.tm, errorHandler, logger),
		Orders:         NewOrderHandler(api.orders, errorHandler, logger),
		Catalog:        NewCatalogHandler(api.catalog, errorHandler, logger),
		Restaurants:    NewRestaurantHandler(api.restaurants, api.tm, errorHandler, logger),
		WebSocket:      NewWebSocketHandler(api.hub, api.tm, cfg, logger),
	})
	t.Cleanup(func() {
		api.auth.AssertExpectations(t)
		api.orders.AssertExpectations(t)
		api.catalog.AssertExpectations(t)
		api.restaurants.AssertExpectations(t)
	})
	return api
}

func (api *testAPI) token(t *testing.T, role domain.Role) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token, err := api.tm.GenerateToken(id, string(role)+"@example.com", role)
	require.NoError(t, err)
	return id, token
}

func (api *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, rec).Code
}
