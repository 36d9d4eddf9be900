package payment

import (
	"github.com/google/uuid"
)

// PayRequest is the inbound payload of the pay flow.
type PayRequest struct {
	FinishURL string `json:"finish_url"`
	ErrorURL  string `json:"error_url"`
}

// PayResponse is the outcome of the pay flow. An empty RedirectURL means the
// provider completed the payment synchronously.
type PayResponse struct {
	RedirectURL string `json:"redirect_url,omitempty"`
}

// TokenResult is the outcome of the finalize flow. Failures during handler
// invocation are attached to Err rather than propagated, so callers can still
// reach the finish/error targets carried by the token.
type TokenResult struct {
	TokenID         string
	PaymentMethodID uuid.UUID
	TransactionID   uuid.UUID
	FinishURL       string
	ErrorURL        string
	Err             error
}

// Successful reports whether the confirmation completed without an attached
// failure.
func (r *TokenResult) Successful() bool {
	return r.Err == nil
}
