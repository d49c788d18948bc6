// Package request parses path and query parameters shared by the handlers.
package request

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
)

// ParamID parses a positive int64 path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Invalid(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// OptionalInt64 parses an optional positive int64 query parameter. A missing
// parameter yields nil.
func OptionalInt64(c *gin.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, errs.Invalid(fmt.Sprintf("invalid %s", name))
	}
	return &v, nil
}

// OptionalString returns the trimmed query parameter or nil when absent.
func OptionalString(c *gin.Context, name string) *string {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	return &raw
}

// IncludeInactive reports whether ?includeInactive=true was passed.
func IncludeInactive(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("includeInactive", "false"))
	return err == nil && v
}

// BindJSON decodes and validates the body, turning binding failures into
// validation errors.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errs.Invalid("invalid body: " + err.Error())
	}
	return nil
}

// FormFile opens the multipart file field, capping the request body at
// maxBytes. Callers close the returned file.
func FormFile(c *gin.Context, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, errs.Invalid(fmt.Sprintf("file exceeds %d bytes", maxBytes))
		}
		return nil, nil, errs.Invalid(fmt.Sprintf("multipart field %q is required", field))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	return f, fh, nil
}
