package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
)

func run(t *testing.T, h gin.HandlerFunc) (int, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", h)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return rr.Code, env
}

func TestOK(t *testing.T) {
	code, env := run(t, func(c *gin.Context) {
		OK(c, http.StatusCreated, gin.H{"id": 7})
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	assert.Equal(t, float64(7), env.Data.(map[string]any)["id"])
	assert.Empty(t, env.Error)
}

func TestError(t *testing.T) {
	t.Run("validation message is surfaced", func(t *testing.T) {
		code, env := run(t, func(c *gin.Context) {
			Error(c, errs.Invalid("name is required"))
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, env.Success)
		assert.Equal(t, "name is required", env.Error)
	})

	t.Run("sentinel keeps wrapped context", func(t *testing.T) {
		code, env := run(t, func(c *gin.Context) {
			Error(c, fmt.Errorf("division 3: %w", errs.ErrNotFound))
		})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "division 3: not found", env.Error)
	})

	t.Run("internal errors are hidden", func(t *testing.T) {
		code, env := run(t, func(c *gin.Context) {
			Error(c, errors.New("pq: connection refused"))
		})
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "internal error", env.Error)
	})
}
