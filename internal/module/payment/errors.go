package payment

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/payflow/server/internal/shared/errors"
)

// Module errors.
var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidTransition    = errors.New("invalid transaction state transition")
	ErrInvalidOrder         = errors.New("order has no open transaction")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrInvalidToken         = errors.New("invalid payment token")
	ErrTokenExpired         = errors.New("payment token expired")
	ErrAsyncInterrupted     = errors.New("async payment process interrupted")
)

// Error codes surfaced at process boundaries, including as the `error-code`
// query parameter on error redirects.
const (
	CodeInvalidOrder         = "INVALID_ORDER"
	CodeUnknownPaymentMethod = "UNKNOWN_PAYMENT_METHOD"
	CodeInvalidToken         = "INVALID_PAYMENT_TOKEN"
	CodeTokenExpired         = "PAYMENT_TOKEN_EXPIRED"
	CodeAsyncInterrupted     = "ASYNC_PAYMENT_PROCESS_INTERRUPTED"
	CodeCustomerCanceled     = "CUSTOMER_CANCELED_EXTERNAL"
	CodePaymentProcessError  = "PAYMENT_PROCESS_ERROR"
)

// NewInvalidOrderError reports that no open transaction exists for the order.
func NewInvalidOrderError(orderID uuid.UUID) *apperrors.AppError {
	return apperrors.NewAppError(
		CodeInvalidOrder,
		fmt.Sprintf("order %s has no open payment transaction", orderID),
		http.StatusBadRequest,
		ErrInvalidOrder,
	)
}

// NewUnknownPaymentMethodError reports an unresolvable payment method.
func NewUnknownPaymentMethodError(paymentMethodID uuid.UUID) *apperrors.AppError {
	return apperrors.NewAppError(
		CodeUnknownPaymentMethod,
		fmt.Sprintf("no payment handler registered for method %s", paymentMethodID),
		http.StatusBadRequest,
		ErrUnknownPaymentMethod,
	)
}

// NewInvalidTokenError reports a malformed or already-consumed token.
func NewInvalidTokenError(cause error) *apperrors.AppError {
	err := ErrInvalidToken
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidToken, cause)
	}
	return apperrors.NewAppError(
		CodeInvalidToken,
		"the payment token is invalid",
		http.StatusBadRequest,
		err,
	)
}

// NewTokenExpiredError reports an expired confirmation token. It is returned
// as data on the token result, never thrown across the finalize boundary.
func NewTokenExpiredError() *apperrors.AppError {
	return apperrors.NewAppError(
		CodeTokenExpired,
		"the payment token is expired",
		http.StatusBadRequest,
		ErrTokenExpired,
	)
}

// NewAsyncInterruptedError reports a token without transaction linkage.
func NewAsyncInterruptedError() *apperrors.AppError {
	return apperrors.NewAppError(
		CodeAsyncInterrupted,
		"the asynchronous payment process was interrupted",
		http.StatusBadRequest,
		ErrAsyncInterrupted,
	)
}

// NewPaymentProcessError wraps a provider failure in the generic fallback kind.
func NewPaymentProcessError(cause error) *apperrors.AppError {
	return apperrors.NewAppError(
		CodePaymentProcessError,
		"payment processing failed",
		http.StatusPaymentRequired,
		cause,
	)
}
