// Package errs holds the sentinel errors shared by every feature and their
// HTTP status mapping.
package errs

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInvalidReference  = errors.New("referenced record does not exist")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("user not authenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrUnavailable       = errors.New("service unavailable")
)

var ErrStatusMap = map[error]int{
	ErrNotFound:          http.StatusNotFound,
	ErrConflict:          http.StatusConflict,
	ErrInvalidReference:  http.StatusUnprocessableEntity,
	ErrInvalidTransition: http.StatusUnprocessableEntity,
	ErrValidation:        http.StatusBadRequest,
	ErrUnauthenticated:   http.StatusUnauthorized,
	ErrForbidden:         http.StatusForbidden,
	ErrUnavailable:       http.StatusServiceUnavailable,
}

// StatusOf returns the HTTP status for err, or 500 when err wraps none of the
// known sentinels.
func StatusOf(err error) int {
	for known, status := range ErrStatusMap {
		if errors.Is(err, known) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a ValidationError with the given message.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}
