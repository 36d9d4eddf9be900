package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStatusCode(t *testing.T) {
	appErr := NewAppError("PAYMENT_PROCESS_ERROR", "charge declined", http.StatusPaymentRequired, nil)

	assert.Equal(t, http.StatusPaymentRequired, GetStatusCode(appErr))
	assert.Equal(t, http.StatusPaymentRequired, GetStatusCode(fmt.Errorf("pay: %w", appErr)))
	assert.Equal(t, http.StatusBadRequest, GetStatusCode(BadRequest("missing order id")))
	assert.Equal(t, http.StatusBadRequest, GetStatusCode(fmt.Errorf("bind: %w", ErrBadRequest)))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("boom")))
}

func TestErrorCode(t *testing.T) {
	appErr := NewAppError("INVALID_ORDER", "order has no open transaction", http.StatusBadRequest, nil)

	assert.Equal(t, "INVALID_ORDER", ErrorCode(appErr, "PAYMENT_PROCESS_ERROR"))
	assert.Equal(t, "INVALID_ORDER", ErrorCode(fmt.Errorf("pay: %w", appErr), "PAYMENT_PROCESS_ERROR"))
	assert.Equal(t, "PAYMENT_PROCESS_ERROR", ErrorCode(errors.New("boom"), "PAYMENT_PROCESS_ERROR"))
}
