package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.New(apperrors.ErrNotFound, "No document found with that ID"), http.StatusNotFound},
		{apperrors.New(apperrors.ErrValidation, "Invalid payment method"), http.StatusBadRequest},
		{apperrors.New(apperrors.ErrForbidden, "nope"), http.StatusForbidden},
		{apperrors.New(apperrors.ErrInvalidState, "Cannot update completed order"), http.StatusBadRequest},
		{apperrors.New(apperrors.ErrPaymentRequired, "pay first"), http.StatusPaymentRequired},
		{apperrors.New(apperrors.ErrPaymentFailed, "Payment failed"), http.StatusBadRequest},
		{apperrors.New(apperrors.ErrConflict, "dup"), http.StatusConflict},
		{fmt.Errorf("service: %w", apperrors.New(apperrors.ErrUnauthorized, "bad token")), http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, apperrors.HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("capture: %w", apperrors.Wrap(apperrors.ErrPaymentFailed, "Payment failed", cause))

	assert.Equal(t, "Payment failed", apperrors.Message(err))
	assert.True(t, errors.Is(err, apperrors.ErrPaymentFailed))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "boom", apperrors.Message(errors.New("boom")))
}
