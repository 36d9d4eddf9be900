package provider

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/payflow/server/internal/module/payment/domain"
)

// ErrCustomerCanceled signals that the customer aborted the payment at the
// external gateway. The coordinator cancels the transaction instead of
// failing it.
var ErrCustomerCanceled = errors.New("customer canceled the payment externally")

// Request is the slim view of an inbound HTTP request handed to providers.
type Request struct {
	Params   map[string]string // Merged query and form parameters
	RemoteIP string
}

// Param returns a request parameter or empty.
func (r *Request) Param(key string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[key]
}

// TransactionView is the provider-facing view of an order transaction.
type TransactionView struct {
	TransactionID   uuid.UUID
	OrderID         uuid.UUID
	PaymentMethodID uuid.UUID
	Amount          int64
	Currency        string
	ReturnURL       string // Confirmation URL for redirect flows; empty for recurring
}

// RedirectResponse directs the customer to an external payment step.
type RedirectResponse struct {
	URL string
}

// Provider is the unified payment handler contract. A provider is stateless
// from the coordinator's point of view and selected per payment method.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Pay starts a payment. A nil response means the provider completed the
	// payment synchronously; a redirect response sends the customer to an
	// external step that later returns through the confirmation URL.
	Pay(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext, validation map[string]any) (*RedirectResponse, error)

	// Finalize confirms a payment after the customer returned from the
	// external step.
	Finalize(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext) error

	// Validate checks payment-specific data before an order is placed and
	// may return a validation struct carried through to Pay. Most providers
	// return no data.
	Validate(ctx context.Context, cart *domain.CartSnapshot, data map[string]any, channel *domain.ChannelContext) (map[string]any, error)

	// Recurring charges a stored payment method without customer presence.
	Recurring(ctx context.Context, view TransactionView, channel *domain.ChannelContext) error
}

// LegacyProvider is the deprecated synchronous handler contract, kept as a
// fallback during the migration window.
type LegacyProvider interface {
	// Name returns the provider name.
	Name() string

	// PaySync executes the whole payment synchronously.
	PaySync(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext) error
}

// LegacyPreparedProvider is the deprecated prepared/async handler contract.
// It validates payment data before order placement and captures the prepared
// payment on confirmation.
type LegacyPreparedProvider interface {
	// Name returns the provider name.
	Name() string

	// Validate checks payment-specific data before the order is placed.
	Validate(ctx context.Context, cart *domain.CartSnapshot, data map[string]any, channel *domain.ChannelContext) (map[string]any, error)

	// Capture completes the prepared payment.
	Capture(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext, validation map[string]any) error
}
