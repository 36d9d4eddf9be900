package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/payflow/server/internal/module/payment/domain"
)

// InvoiceProvider is a synchronous provider: the payment completes
// immediately and the order is settled out of band against the invoice. It
// produces a validation struct so the invoice number travels from the cart
// validation step to payment execution.
type InvoiceProvider struct{}

// NewInvoiceProvider creates a new invoice provider.
func NewInvoiceProvider() *InvoiceProvider {
	return &InvoiceProvider{}
}

// Name returns the provider name.
func (p *InvoiceProvider) Name() string {
	return "invoice"
}

// Pay completes synchronously; there is no external step.
func (p *InvoiceProvider) Pay(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext, validation map[string]any) (*RedirectResponse, error) {
	return nil, nil
}

// Finalize is a no-op; invoice payments never redirect.
func (p *InvoiceProvider) Finalize(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext) error {
	return nil
}

// Validate assigns an invoice number carried through to payment execution.
func (p *InvoiceProvider) Validate(ctx context.Context, cart *domain.CartSnapshot, data map[string]any, channel *domain.ChannelContext) (map[string]any, error) {
	if cart != nil && cart.Total < 0 {
		return nil, fmt.Errorf("cart total must not be negative")
	}
	return map[string]any{
		"invoice_number": fmt.Sprintf("INV-%s", shortID(uuid.New().String())),
	}, nil
}

// Recurring settles against a new invoice; nothing to charge.
func (p *InvoiceProvider) Recurring(ctx context.Context, view TransactionView, channel *domain.ChannelContext) error {
	return nil
}
