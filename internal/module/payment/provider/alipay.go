package provider

import (
	"context"
	"fmt"

	"github.com/go-pay/gopay"
	"github.com/go-pay/gopay/alipay"

	"github.com/payflow/server/internal/module/payment/domain"
)

// AlipayConfig holds Alipay configuration.
type AlipayConfig struct {
	AppID           string // Application ID
	PrivateKey      string // RSA2 private key (PEM format)
	AlipayPublicKey string // Alipay public key for verification (PEM format)
	IsProd          bool   // Production environment flag
}

// AlipayProvider implements the unified Provider contract for Alipay.
// Payment always runs through an external redirect; confirmation queries the
// trade status when the customer returns.
type AlipayProvider struct {
	client *alipay.Client
}

// NewAlipayProvider creates a new Alipay provider.
func NewAlipayProvider(config *AlipayConfig) (*AlipayProvider, error) {
	client, err := alipay.NewClient(config.AppID, config.PrivateKey, config.IsProd)
	if err != nil {
		return nil, fmt.Errorf("create alipay client: %w", err)
	}

	// Set public key for auto signature verification
	client.AutoVerifySign([]byte(config.AlipayPublicKey))

	return &AlipayProvider{client: client}, nil
}

// Name returns the provider name.
func (p *AlipayProvider) Name() string {
	return "alipay"
}

// Pay creates a page-pay order and redirects the customer to Alipay.
func (p *AlipayProvider) Pay(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext, validation map[string]any) (*RedirectResponse, error) {
	// Alipay wants yuan with 2 decimal places.
	amountStr := fmt.Sprintf("%.2f", float64(view.Amount)/100)

	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", view.TransactionID.String())
	bm.Set("total_amount", amountStr)
	bm.Set("subject", fmt.Sprintf("Order #%s", shortID(view.OrderID.String())))
	bm.Set("timeout_express", "30m")
	bm.Set("return_url", view.ReturnURL)
	bm.Set("product_code", "FAST_INSTANT_TRADE_PAY")

	payURL, err := p.client.TradePagePay(ctx, bm)
	if err != nil {
		return nil, fmt.Errorf("create page payment: %w", err)
	}

	return &RedirectResponse{URL: payURL}, nil
}

// Finalize queries the trade status once the customer returned.
func (p *AlipayProvider) Finalize(ctx context.Context, req *Request, view TransactionView, channel *domain.ChannelContext) error {
	bm := make(gopay.BodyMap)
	bm.Set("out_trade_no", view.TransactionID.String())

	resp, err := p.client.TradeQuery(ctx, bm)
	if err != nil {
		return fmt.Errorf("query payment: %w", err)
	}
	if resp.Response.Code != "10000" {
		return fmt.Errorf("alipay query error: %s - %s", resp.Response.Code, resp.Response.Msg)
	}

	switch resp.Response.TradeStatus {
	case "TRADE_SUCCESS", "TRADE_FINISHED":
		return nil
	case "TRADE_CLOSED":
		return fmt.Errorf("trade %s closed: %w", resp.Response.TradeNo, ErrCustomerCanceled)
	default:
		return fmt.Errorf("trade %s not completed: %s", resp.Response.TradeNo, resp.Response.TradeStatus)
	}
}

// Validate returns no validation data.
func (p *AlipayProvider) Validate(ctx context.Context, cart *domain.CartSnapshot, data map[string]any, channel *domain.ChannelContext) (map[string]any, error) {
	return nil, nil
}

// Recurring is not supported; Alipay recurring charges need a separate
// agreement-signing flow.
func (p *AlipayProvider) Recurring(ctx context.Context, view TransactionView, channel *domain.ChannelContext) error {
	return fmt.Errorf("alipay does not support recurring charges")
}

// shortID returns the first 8 characters of an id for display purposes.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
