// Package response writes the {success, data, error} envelope every endpoint
// returns.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/logging"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Error: message})
}

// Error maps err to a status through errs.StatusOf. Server-side failures are
// logged and replaced with a generic message.
func Error(c *gin.Context, err error) {
	status := errs.StatusOf(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logging.FromContext(c.Request.Context()).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		Fail(c, status, "internal error")
		return
	}

	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		Fail(c, status, verr.Message)
		return
	}
	Fail(c, status, err.Error())
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: message})
}
