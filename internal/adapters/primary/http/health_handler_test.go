package http

import (
	"errors"
	stdhttp "net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Readiness(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, stdhttp.MethodGet, "/health/ready", nil, "")

	require.Equal(t, stdhttp.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, statusHealthy, resp.Status)
	assert.Equal(t, statusHealthy, resp.Checks["database"].Status)
	require.NotNil(t, resp.Checks["notifications"].Clients)
	assert.Zero(t, *resp.Checks["notifications"].Clients)
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	api := newTestAPI(t)
	api.db.err = errors.New("connection refused")

	rec := api.do(t, stdhttp.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, statusUnhealthy, resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["database"].Message)

	rec = api.do(t, stdhttp.MethodGet, "/health", nil, "")
	assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, statusDegraded, decodeBody[HealthResponse](t, rec).Status)
}

func TestHealthHandler_HubStopped(t *testing.T) {
	api := newStoppedTestAPI(t)

	rec := api.do(t, stdhttp.MethodGet, "/health/ready", nil, "")

	assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, statusUnhealthy, decodeBody[HealthResponse](t, rec).Checks["notifications"].Status)
}

func TestHealthHandler_Liveness(t *testing.T) {
	api := newStoppedTestAPI(t)
	api.db.err = errors.New("down")

	rec := api.do(t, stdhttp.MethodGet, "/health/live", nil, "")

	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, stdhttp.MethodGet, "/health/live", nil, "")

	rec := api.do(t, stdhttp.MethodGet, "/metrics", nil, "")

	require.Equal(t, stdhttp.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/health/live",status="200"} 1`), body)
	assert.Contains(t, body, "notification_registered_connections")
}
