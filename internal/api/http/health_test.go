package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, h *HealthHandler, path string) (int, HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	h.RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	return rr.Code, response
}

func TestHealthCheck(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	t.Run("all dependencies up", func(t *testing.T) {
		code, resp := serveHealth(t, NewHealthHandler("test-service", "1.0.0", up, up), "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "test-service", resp.Service)
		assert.Equal(t, "1.0.0", resp.Version)
		assert.Equal(t, "up", resp.DB)
		assert.Equal(t, "up", resp.Redis)
	})

	t.Run("redis disabled", func(t *testing.T) {
		code, resp := serveHealth(t, NewHealthHandler("svc", "1", up, nil), "/healthz")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "disabled", resp.Redis)
	})

	t.Run("redis down degrades", func(t *testing.T) {
		code, resp := serveHealth(t, NewHealthHandler("svc", "1", up, down), "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", resp.Status)
	})

	t.Run("db down is unhealthy", func(t *testing.T) {
		code, resp := serveHealth(t, NewHealthHandler("svc", "1", down, up), "/health")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "down", resp.DB)
	})
}
