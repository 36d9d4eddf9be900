package events

import "github.com/google/uuid"

// Transaction event type constants.
const (
	TransactionFailedType   = "TransactionFailed"
	TransactionCanceledType = "TransactionCanceled"
	TransactionPaidType     = "TransactionPaid"
)

// TransactionStateChangedEvent is emitted when an order transaction moves to a
// new lifecycle state through the transaction gateway.
type TransactionStateChangedEvent struct {
	BaseEvent

	// TransactionID is the unique identifier of the transaction.
	TransactionID uuid.UUID `json:"transaction_id"`

	// OrderID is the ID of the order the transaction belongs to.
	OrderID uuid.UUID `json:"order_id"`

	// PaymentMethodID is the payment method the transaction was created with.
	PaymentMethodID uuid.UUID `json:"payment_method_id"`

	// FromStatus is the lifecycle state before the transition.
	FromStatus string `json:"from_status"`

	// ToStatus is the lifecycle state after the transition.
	ToStatus string `json:"to_status"`
}

// NewTransactionStateChangedEvent creates a state-changed event of the given
// type for a transaction transition.
func NewTransactionStateChangedEvent(
	eventType string,
	transactionID, orderID, paymentMethodID uuid.UUID,
	fromStatus, toStatus string,
) *TransactionStateChangedEvent {
	return &TransactionStateChangedEvent{
		BaseEvent:       NewBaseEvent(eventType, transactionID),
		TransactionID:   transactionID,
		OrderID:         orderID,
		PaymentMethodID: paymentMethodID,
		FromStatus:      fromStatus,
		ToStatus:        toStatus,
	}
}
