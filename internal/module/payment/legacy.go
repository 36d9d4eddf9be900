package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/module/payment/provider"
)

// LegacyProcessor drives transactions through the deprecated synchronous
// handler contracts. It exists so the coordinator stays free of legacy
// branching beyond a single delegation per flow.
type LegacyProcessor struct {
	gateway Gateway
	logger  *zap.Logger
}

func NewLegacyProcessor(gateway Gateway, logger *zap.Logger) *LegacyProcessor {
	return &LegacyProcessor{gateway: gateway, logger: logger}
}

// Pay runs the synchronous legacy chain: the handler executes the whole
// payment in one call and the transaction lands in paid or failed.
func (p *LegacyProcessor) Pay(ctx context.Context, legacy provider.LegacyProvider, req *provider.Request, tx *domain.Transaction, channel *domain.ChannelContext) error {
	view := viewFor(tx, "")
	if err := legacy.PaySync(ctx, req, view, channel); err != nil {
		p.logger.Error("legacy payment failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("provider", legacy.Name()),
			zap.Error(err))
		if markErr := p.gateway.MarkFailed(ctx, tx.ID); markErr != nil {
			p.logger.Error("failed to mark transaction failed",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(markErr))
		}
		return NewPaymentProcessError(err)
	}
	return p.gateway.MarkPaid(ctx, tx.ID)
}

// Finalize captures a prepared legacy payment after the customer returned
// from the external step. Handler failures are attached to the result so the
// caller can still redirect to the error target.
func (p *LegacyProcessor) Finalize(ctx context.Context, entry *provider.Entry, req *provider.Request, result *TokenResult, channel *domain.ChannelContext) *TokenResult {
	tx, err := p.gateway.Get(ctx, result.TransactionID)
	if err != nil {
		result.Err = err
		return result
	}

	if entry.Prepared == nil {
		// Plain synchronous handlers never produce a confirmation step;
		// reaching this point means the transaction already settled.
		return result
	}

	view := viewFor(tx, "")
	if err := entry.Prepared.Capture(ctx, req, view, channel, tx.ValidationData()); err != nil {
		p.logger.Error("legacy capture failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("provider", entry.Name()),
			zap.Error(err))
		if markErr := p.gateway.MarkFailed(ctx, tx.ID); markErr != nil {
			p.logger.Error("failed to mark transaction failed",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(markErr))
		}
		result.Err = NewPaymentProcessError(err)
		return result
	}

	if err := p.gateway.MarkPaid(ctx, tx.ID); err != nil {
		result.Err = err
	}
	return result
}

// Recurring charges a stored payment method through the synchronous legacy
// contract. Legacy handlers receive no request context here.
func (p *LegacyProcessor) Recurring(ctx context.Context, legacy provider.LegacyProvider, tx *domain.Transaction, channel *domain.ChannelContext) error {
	view := viewFor(tx, "")
	if err := legacy.PaySync(ctx, &provider.Request{}, view, channel); err != nil {
		p.logger.Error("legacy recurring payment failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("provider", legacy.Name()),
			zap.Error(err))
		if markErr := p.gateway.MarkFailed(ctx, tx.ID); markErr != nil {
			p.logger.Error("failed to mark transaction failed",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(markErr))
		}
		return NewPaymentProcessError(err)
	}
	return p.gateway.MarkPaid(ctx, tx.ID)
}

// viewFor projects a transaction into the provider-facing view.
func viewFor(tx *domain.Transaction, returnURL string) provider.TransactionView {
	return provider.TransactionView{
		TransactionID:   tx.ID,
		OrderID:         tx.OrderID,
		PaymentMethodID: tx.PaymentMethodID,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		ReturnURL:       returnURL,
	}
}
