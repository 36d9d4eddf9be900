package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/payflow/server/internal/module/payment/domain"
)

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	APIKey           string
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// StripeProvider implements the unified Provider contract for Stripe.
// Gateway calls run behind a circuit breaker so an outage fails fast instead
// of tying up request workers.
type StripeProvider struct {
	breaker *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
}

// NewStripeProvider creates a new Stripe provider.
func NewStripeProvider(config *StripeConfig) *StripeProvider {
	stripe.Key = config.APIKey

	failureThreshold := config.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 5
	}
	timeout := config.BreakerTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*stripe.PaymentIntent](gobreaker.Settings{
		Name:    "stripe",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
	})

	return &StripeProvider{breaker: breaker}
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// Pay creates a PaymentIntent for the transaction. When Stripe requires a
// customer-facing step it answers with a redirect; otherwise the payment
// completed synchronously.
func (p *StripeProvider) Pay(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext, validation map[string]any) (*RedirectResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(view.Amount),
		Currency: stripe.String(view.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id":       view.OrderID.String(),
			"transaction_id": view.TransactionID.String(),
		},
	}
	if view.ReturnURL != "" {
		params.ReturnURL = stripe.String(view.ReturnURL)
		params.Confirm = stripe.Bool(true)
	}
	if pm := req.Param("payment_method"); pm != "" {
		params.PaymentMethod = stripe.String(pm)
	}
	if customerID, ok := validation["stripe_customer_id"].(string); ok && customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.Context = ctx

	pi, err := p.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return paymentintent.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil && pi.NextAction.RedirectToURL.URL != "" {
		return &RedirectResponse{URL: pi.NextAction.RedirectToURL.URL}, nil
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresCapture:
		return nil, nil
	case stripe.PaymentIntentStatusCanceled:
		return nil, fmt.Errorf("payment intent %s: %w", pi.ID, ErrCustomerCanceled)
	default:
		return nil, fmt.Errorf("payment intent %s not completed: %s", pi.ID, pi.Status)
	}
}

// Finalize confirms the payment after the customer returned from the
// external step. Stripe appends the intent id to the return URL.
func (p *StripeProvider) Finalize(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext) error {
	intentID := req.Param("payment_intent")
	if intentID == "" {
		return errors.New("missing payment_intent parameter")
	}

	pi, err := p.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return paymentintent.Get(intentID, &stripe.PaymentIntentParams{
			Params: stripe.Params{Context: ctx},
		})
	})
	if err != nil {
		return fmt.Errorf("get payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresCapture:
		return nil
	case stripe.PaymentIntentStatusCanceled:
		return fmt.Errorf("payment intent %s: %w", pi.ID, ErrCustomerCanceled)
	default:
		return fmt.Errorf("payment intent %s not completed: %s", pi.ID, pi.Status)
	}
}

// Validate returns no validation data; card details never pass through here.
func (p *StripeProvider) Validate(ctx context.Context, cart *domain.CartSnapshot, data map[string]any, channel *domain.ChannelContext) (map[string]any, error) {
	return nil, nil
}

// Recurring charges a stored payment method off-session.
func (p *StripeProvider) Recurring(ctx context.Context, view TransactionView, channel *domain.ChannelContext) error {
	params := &stripe.PaymentIntentParams{
		Amount:     stripe.Int64(view.Amount),
		Currency:   stripe.String(view.Currency),
		Confirm:    stripe.Bool(true),
		OffSession: stripe.Bool(true),
		Metadata: map[string]string{
			"order_id":       view.OrderID.String(),
			"transaction_id": view.TransactionID.String(),
		},
	}
	params.Context = ctx

	pi, err := p.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return paymentintent.New(params)
	})
	if err != nil {
		return fmt.Errorf("create off-session payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded && pi.Status != stripe.PaymentIntentStatusProcessing {
		return fmt.Errorf("off-session payment intent %s not completed: %s", pi.ID, pi.Status)
	}
	return nil
}
