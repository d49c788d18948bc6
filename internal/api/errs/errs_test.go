package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"wrapped conflict", fmt.Errorf("create division: %w", ErrConflict), http.StatusConflict},
		{"invalid reference", ErrInvalidReference, http.StatusUnprocessableEntity},
		{"transition", fmt.Errorf("discrepancy 4: %w", ErrInvalidTransition), http.StatusUnprocessableEntity},
		{"validation error type", Invalid("name is required"), http.StatusBadRequest},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Invalid("endDate must not be before startDate"))
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "endDate must not be before startDate", verr.Message)
}
