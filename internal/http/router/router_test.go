package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestEngine(health map[string]apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config: &config.Config{
			JWTAccessSecret: "secret",
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitRPS:    1000,
			RateLimitBurst:  1000,
		},
		Logger:  logger.Nop(),
		Health:  health,
		Metrics: prometheus.NewRegistry(),
	})
}

func getHealth(t *testing.T, engine *gin.Engine) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthAllUp(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	engine := newTestEngine(map[string]apphttp.HealthChecker{"database": up, "redis": up})

	code, body := getHealth(t, engine)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthDegraded(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	engine := newTestEngine(map[string]apphttp.HealthChecker{"database": up, "redis": down})

	code, body := getHealth(t, engine)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"database": "up", "redis": "down"}, body["checks"])
}

func TestMetricsAndRequestID(t *testing.T) {
	engine := newTestEngine(nil)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
