package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanphung2005/fluxify-sub001/internal/apperr"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &apperr.ValidationError{Field: "variant", Reason: "bad"}, http.StatusBadRequest},
		{"insufficient stock", &apperr.InsufficientStockError{ProductName: "Mug"}, http.StatusConflict},
		{"state transition", &apperr.StateTransitionError{From: "DELIVERED", To: "CANCELLED"}, http.StatusConflict},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"rate limited", &apperr.RateLimitError{}, http.StatusTooManyRequests},
		{"product not found", apperr.ErrProductNotFound, http.StatusNotFound},
		{"order not found", apperr.ErrOrderNotFound, http.StatusNotFound},
		{"coupon not found", apperr.ErrCouponNotFound, http.StatusNotFound},
		{"wrapped internal", apperr.Internal(errors.New("db down")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := HTTPStatus(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestHTTPStatusSanitizesInternalDetail(t *testing.T) {
	_, message := HTTPStatus(apperr.Internal(errors.New("pq: connection refused on host db-prod-3")))

	assert.Equal(t, "internal error", message)
	assert.NotContains(t, message, "db-prod-3")
}
