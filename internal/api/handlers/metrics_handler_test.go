package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/promo/services/events/config"
	"example.com/promo/services/events/internal/metrics"
	"example.com/promo/services/events/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newHealthRouter(t *testing.T, m *metrics.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tracer, err := tracing.NewTracer(config.TracingConfig{})
	require.NoError(t, err)

	router := gin.New()
	handler := NewMetricsHandler(m, tracer)
	router.GET("/health", handler.HandleGetHealthCheck)
	return router
}

func TestHealthCheckReportsUnhealthyComponent(t *testing.T) {
	m := metrics.NewMetrics()
	m.SetHealth("database", true)
	// A failed cache initialization must surface here, not the config flag
	m.SetHealth("cache", false)

	router := newHealthRouter(t, m)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Healthy    bool            `json:"healthy"`
		Components map[string]bool `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Healthy)
	require.False(t, body.Components["cache"])
	require.True(t, body.Components["database"])
}

func TestHealthCheckAllComponentsHealthy(t *testing.T) {
	m := metrics.NewMetrics()
	m.SetHealth("database", true)
	m.SetHealth("cache", true)

	router := newHealthRouter(t, m)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
