package payment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/module/payment/provider"
	"github.com/payflow/server/internal/module/payment/token"
	apperrors "github.com/payflow/server/internal/shared/errors"
	"github.com/payflow/server/internal/utils/metrics"
)

// Service coordinates the payment lifecycle flows across the provider
// registry, the transaction gateway and the token codec.
type Service struct {
	gateway    Gateway
	registry   *provider.Registry
	codec      token.Codec
	returnURLs *ReturnURLBuilder
	legacy     *LegacyProcessor
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewService(
	gateway Gateway,
	registry *provider.Registry,
	codec token.Codec,
	returnURLs *ReturnURLBuilder,
	legacy *LegacyProcessor,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		gateway:    gateway,
		registry:   registry,
		codec:      codec,
		returnURLs: returnURLs,
		legacy:     legacy,
		metrics:    m,
		logger:     logger,
	}
}

// OpenTransaction creates a new open transaction for an order, typically at
// order placement. The validation struct, if the checkout ran Validate
// beforehand, is stashed on the transaction and handed back to the provider
// when the charge runs.
func (s *Service) OpenTransaction(ctx context.Context, orderID, paymentMethodID uuid.UUID, amount int64, currency string, validation map[string]any) (*domain.Transaction, error) {
	if _, ok := s.registry.Resolve(paymentMethodID); !ok {
		return nil, NewUnknownPaymentMethodError(paymentMethodID)
	}
	return s.gateway.CreateForOrder(ctx, orderID, paymentMethodID, amount, currency, validation)
}

// Pay starts the payment for the order's current open transaction. The
// returned response carries a redirect URL when the provider requires an
// external step; otherwise the payment completed synchronously.
//
// Failures after the transaction is resolved are converted into an error
// redirect when the caller supplied an error URL, so storefronts keep
// control of the customer journey.
func (s *Service) Pay(ctx context.Context, orderID uuid.UUID, req *PayRequest, httpReq *provider.Request, channel *domain.ChannelContext) (*PayResponse, error) {
	tx, err := s.gateway.CurrentFor(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			s.recordFlow("pay", "invalid_order")
			return nil, NewInvalidOrderError(orderID)
		}
		return nil, err
	}

	entry, ok := s.registry.Resolve(tx.PaymentMethodID)
	if !ok {
		return s.failPay(ctx, tx, req.ErrorURL, NewUnknownPaymentMethodError(tx.PaymentMethodID))
	}

	if !entry.SupportsModern() {
		if entry.Legacy == nil {
			return s.failPay(ctx, tx, req.ErrorURL, NewUnknownPaymentMethodError(tx.PaymentMethodID))
		}
		if err := s.legacy.Pay(ctx, entry.Legacy, httpReq, tx, channel); err != nil {
			s.recordFlow("pay", "failed")
			return nil, err
		}
		s.recordFlow("pay", "success")
		return &PayResponse{}, nil
	}

	returnURL, err := s.returnURLs.Build(ctx, tx, req.FinishURL, req.ErrorURL, channel)
	if err != nil {
		return s.failPay(ctx, tx, req.ErrorURL, NewPaymentProcessError(err))
	}

	redirect, err := entry.Modern.Pay(ctx, httpReq, viewFor(tx, returnURL), channel, tx.ValidationData())
	if err != nil {
		s.logger.Error("payment start failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("order_id", tx.OrderID.String()),
			zap.String("provider", entry.Name()),
			zap.Error(err))
		return s.failPay(ctx, tx, req.ErrorURL, NewPaymentProcessError(err))
	}

	if redirect != nil && redirect.URL != "" {
		if err := s.gateway.MarkInProgress(ctx, tx.ID); err != nil {
			return s.failPay(ctx, tx, req.ErrorURL, NewPaymentProcessError(err))
		}
		s.recordFlow("pay", "redirect")
		return &PayResponse{RedirectURL: redirect.URL}, nil
	}

	// Synchronous completion: no external step, so the token issued for the
	// return URL must not stay redeemable.
	if err := s.gateway.MarkPaid(ctx, tx.ID); err != nil {
		return s.failPay(ctx, tx, req.ErrorURL, NewPaymentProcessError(err))
	}
	if err := s.codec.Invalidate(ctx, bearerOf(returnURL)); err != nil {
		s.logger.Warn("failed to invalidate unused payment token",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
	}
	s.recordFlow("pay", "success")
	return &PayResponse{}, nil
}

// failPay marks the transaction failed and either propagates the failure or,
// when the request carried an error URL, converts it into an error redirect
// with the failure kind appended as the error-code query parameter.
func (s *Service) failPay(ctx context.Context, tx *domain.Transaction, errorURL string, cause error) (*PayResponse, error) {
	s.recordFlow("pay", "failed")
	if err := s.gateway.MarkFailed(ctx, tx.ID); err != nil && !errors.Is(err, ErrInvalidTransition) {
		s.logger.Error("failed to mark transaction failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
	}
	if errorURL == "" {
		return nil, cause
	}
	code := apperrors.ErrorCode(cause, CodePaymentProcessError)
	return &PayResponse{RedirectURL: appendErrorCode(errorURL, code)}, nil
}

// Finalize confirms a payment after the customer returned from the external
// step. Token failures that strip the flow of its return targets propagate as
// errors; once targets are known, handler failures are attached to the result
// so the caller can redirect to the error URL.
func (s *Service) Finalize(ctx context.Context, bearer string, httpReq *provider.Request, channel *domain.ChannelContext) (*TokenResult, error) {
	tok, err := s.codec.Decode(ctx, bearer)
	if err != nil {
		s.recordFlow("finalize", "invalid_token")
		return nil, NewInvalidTokenError(err)
	}

	// Consume the token exactly once regardless of how the flow exits.
	defer func() {
		if invErr := s.codec.Invalidate(ctx, tok.Bearer); invErr != nil {
			s.logger.Warn("failed to invalidate payment token", zap.Error(invErr))
		}
	}()

	result := &TokenResult{
		TokenID:         tok.TokenID,
		PaymentMethodID: tok.PaymentMethodID,
		TransactionID:   tok.TransactionID,
		FinishURL:       tok.FinishURL,
		ErrorURL:        tok.ErrorURL,
	}

	if tok.Expired {
		if s.metrics != nil {
			s.metrics.TokensExpiredTotal.Inc()
		}
		s.recordFlow("finalize", "token_expired")
		result.Err = NewTokenExpiredError()
		return result, nil
	}

	if tok.PaymentMethodID == uuid.Nil {
		s.recordFlow("finalize", "invalid_token")
		return nil, NewInvalidTokenError(nil)
	}
	if tok.TransactionID == uuid.Nil {
		s.recordFlow("finalize", "interrupted")
		return nil, NewAsyncInterruptedError()
	}

	entry, ok := s.registry.Resolve(tok.PaymentMethodID)
	if !ok {
		s.recordFlow("finalize", "unknown_method")
		return nil, NewUnknownPaymentMethodError(tok.PaymentMethodID)
	}

	if !entry.SupportsModern() {
		result = s.legacy.Finalize(ctx, entry, httpReq, result, channel)
		s.recordFlow("finalize", outcomeOf(result))
		return result, nil
	}

	tx, err := s.gateway.Get(ctx, tok.TransactionID)
	if err != nil {
		s.recordFlow("finalize", "failed")
		return nil, err
	}

	if err := entry.Modern.Finalize(ctx, httpReq, viewFor(tx, ""), channel); err != nil {
		if errors.Is(err, provider.ErrCustomerCanceled) {
			if markErr := s.gateway.MarkCanceled(ctx, tx.ID); markErr != nil {
				s.logger.Error("failed to mark transaction canceled",
					zap.String("transaction_id", tx.ID.String()),
					zap.Error(markErr))
			}
			s.recordFlow("finalize", "canceled")
			result.Err = apperrors.NewAppError(
				CodeCustomerCanceled,
				"the customer canceled the payment",
				http.StatusBadRequest,
				err,
			)
			return result, nil
		}

		s.logger.Error("payment confirmation failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("provider", entry.Name()),
			zap.Error(err))
		if markErr := s.gateway.MarkFailed(ctx, tx.ID); markErr != nil {
			s.logger.Error("failed to mark transaction failed",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(markErr))
		}
		s.recordFlow("finalize", "failed")
		result.Err = NewPaymentProcessError(err)
		return result, nil
	}

	if err := s.gateway.MarkPaid(ctx, tx.ID); err != nil {
		s.recordFlow("finalize", "failed")
		result.Err = err
		return result, nil
	}
	s.recordFlow("finalize", "success")
	return result, nil
}

// Validate checks payment-specific data before an order is placed. Methods
// without validation capability pass trivially with no data. Validation
// failures always propagate to the caller.
func (s *Service) Validate(ctx context.Context, cart *domain.CartSnapshot, data map[string]any, channel *domain.ChannelContext) (map[string]any, error) {
	entry, ok := s.registry.Resolve(channel.PaymentMethodID)
	if !ok {
		return nil, NewUnknownPaymentMethodError(channel.PaymentMethodID)
	}
	if !entry.SupportsValidation() {
		return nil, nil
	}

	var (
		validation map[string]any
		err        error
	)
	if entry.Modern != nil {
		validation, err = entry.Modern.Validate(ctx, cart, data, channel)
	} else {
		validation, err = entry.Prepared.Validate(ctx, cart, data, channel)
	}
	if err != nil {
		s.logger.Warn("payment validation failed",
			zap.String("provider", entry.Name()),
			zap.String("customer_id", channel.CustomerIDString()),
			zap.Error(err))
		return nil, err
	}
	return validation, nil
}

// Recurring charges the order's current open transaction without customer
// presence. There is no redirect path; every failure propagates.
func (s *Service) Recurring(ctx context.Context, orderID uuid.UUID, channel *domain.ChannelContext) error {
	tx, err := s.gateway.CurrentFor(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			s.recordFlow("recurring", "invalid_order")
			return NewInvalidOrderError(orderID)
		}
		return err
	}

	entry, ok := s.registry.Resolve(tx.PaymentMethodID)
	if !ok {
		s.logger.Error("recurring payment has no handler",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("payment_method_id", tx.PaymentMethodID.String()))
		if markErr := s.gateway.MarkFailed(ctx, tx.ID); markErr != nil {
			s.logger.Error("failed to mark transaction failed",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(markErr))
		}
		s.recordFlow("recurring", "unknown_method")
		return NewUnknownPaymentMethodError(tx.PaymentMethodID)
	}

	if !entry.SupportsModern() {
		if entry.Legacy == nil {
			s.recordFlow("recurring", "unknown_method")
			return NewUnknownPaymentMethodError(tx.PaymentMethodID)
		}
		err := s.legacy.Recurring(ctx, entry.Legacy, tx, channel)
		s.recordFlow("recurring", outcomeOfErr(err))
		return err
	}

	if err := entry.Modern.Recurring(ctx, viewFor(tx, ""), channel); err != nil {
		s.logger.Error("recurring payment failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("provider", entry.Name()),
			zap.Error(err))
		if markErr := s.gateway.MarkFailed(ctx, tx.ID); markErr != nil {
			s.logger.Error("failed to mark transaction failed",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(markErr))
		}
		s.recordFlow("recurring", "failed")
		return NewPaymentProcessError(err)
	}

	if err := s.gateway.MarkPaid(ctx, tx.ID); err != nil {
		s.recordFlow("recurring", "failed")
		return err
	}
	s.recordFlow("recurring", "success")
	return nil
}

func (s *Service) recordFlow(flow, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordFlow(flow, outcome)
	}
}

func outcomeOf(result *TokenResult) string {
	if result.Successful() {
		return "success"
	}
	return "failed"
}

func outcomeOfErr(err error) string {
	if err == nil {
		return "success"
	}
	return "failed"
}

// appendErrorCode attaches the error-code query parameter to a URL without
// re-encoding the existing query string, so parameter order survives.
func appendErrorCode(target, code string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "error-code=" + url.QueryEscape(code)
}

// bearerOf extracts the _token query parameter from a return URL.
func bearerOf(returnURL string) string {
	u, err := url.Parse(returnURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("_token")
}
