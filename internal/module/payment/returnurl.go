package payment

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/module/payment/token"
)

// ReturnURLBuilder produces the absolute URL an external payment page
// redirects back to. The URL carries a single-use bearer token that binds
// the redirect to one transaction.
type ReturnURLBuilder struct {
	codec  token.Codec
	config ConfigStore
	urls   URLBuilder
	logger *zap.Logger
}

func NewReturnURLBuilder(codec token.Codec, config ConfigStore, urls URLBuilder, logger *zap.Logger) *ReturnURLBuilder {
	return &ReturnURLBuilder{
		codec:  codec,
		config: config,
		urls:   urls,
		logger: logger,
	}
}

// Build encodes a confirmation token for the transaction and wraps it in the
// finalize endpoint URL. The token lifetime comes from the sales channel
// configuration when set, otherwise the codec default applies.
func (b *ReturnURLBuilder) Build(ctx context.Context, tx *domain.Transaction, finishURL, errorURL string, channel *domain.ChannelContext) (string, error) {
	payload := token.Payload{
		PaymentMethodID: tx.PaymentMethodID,
		TransactionID:   tx.ID,
		FinishURL:       finishURL,
		ErrorURL:        errorURL,
		ExpiresIn:       b.finalizeWindow(ctx, channel),
	}

	bearer, err := b.codec.Encode(ctx, payload)
	if err != nil {
		return "", err
	}

	return b.urls.Absolute(RoutePaymentFinalize, url.Values{"_token": {bearer}}), nil
}

func (b *ReturnURLBuilder) finalizeWindow(ctx context.Context, channel *domain.ChannelContext) time.Duration {
	if b.config == nil || channel == nil {
		return 0
	}
	raw, ok := b.config.Get(ctx, ConfigKeyFinalizeWindow, channel.SalesChannelID)
	if !ok || raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		b.logger.Warn("invalid finalize window setting, using default",
			zap.String("value", raw),
			zap.String("sales_channel_id", channel.SalesChannelID.String()))
		return 0
	}
	return time.Duration(minutes) * time.Minute
}
