package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/grungysync/backend/pkg/apperror"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: apperror.ErrNotFound, want: http.StatusNotFound},
		{name: "unauthorized", err: apperror.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "forbidden", err: apperror.ErrForbidden, want: http.StatusForbidden},
		{name: "bad request", err: apperror.ErrBadRequest, want: http.StatusBadRequest},
		{name: "invalid input", err: apperror.ErrInvalidInput, want: http.StatusBadRequest},
		{name: "exhausted", err: apperror.ErrExhausted, want: http.StatusTooManyRequests},
		{name: "rate limited", err: apperror.ErrRateLimitExceeded, want: http.StatusTooManyRequests},
		{name: "unknown error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{
			name: "wrapped sentinel keeps its status",
			err:  fmt.Errorf("action not found: %w", apperror.ErrNotFound),
			want: http.StatusNotFound,
		},
		{
			name: "doubly wrapped sentinel",
			err:  fmt.Errorf("submit failed: %w", fmt.Errorf("no feedback tokens left: %w", apperror.ErrExhausted)),
			want: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, apperror.MapErrorToStatus(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := apperror.New(http.StatusNotFound, "space missing", apperror.ErrNotFound)

	assert.Equal(t, apperror.ErrNotFound.Error(), err.Error())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "space missing", apperror.New(0, "space missing", nil).Error())
}
