package domain

import (
	"time"

	"github.com/google/uuid"
)

// CustomFieldValidationData is the custom-field key under which validation
// data produced during cart validation is stashed on a transaction.
const CustomFieldValidationData = "payment_validation"

// Transaction is the payable unit tied to one order, tracked through the
// lifecycle state machine. It is created when an order is placed and mutated
// only through the transaction gateway.
type Transaction struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	PaymentMethodID uuid.UUID
	Status          TransactionStatus
	Amount          int64 // In the smallest currency unit
	Currency        string
	CustomFields    map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidationData returns the validation struct stashed on the transaction's
// custom fields, or nil when none was produced.
func (t *Transaction) ValidationData() map[string]any {
	if t.CustomFields == nil {
		return nil
	}
	data, ok := t.CustomFields[CustomFieldValidationData].(map[string]any)
	if !ok {
		return nil
	}
	return data
}

// PaymentMethod identifies a configured payment method. Immutable from the
// payment module's perspective.
type PaymentMethod struct {
	ID             uuid.UUID
	Name           string
	AppExtensionID *uuid.UUID // Set when a third-party app registered the handler
}

// ChannelContext carries the sales-channel scope of an inbound request.
type ChannelContext struct {
	SalesChannelID  uuid.UUID
	CustomerID      *uuid.UUID // Nil for anonymous customers
	PaymentMethodID uuid.UUID  // The currently selected payment method
	Currency        string
}

// CustomerIDString returns the acting customer's id, or empty when anonymous.
func (c *ChannelContext) CustomerIDString() string {
	if c == nil || c.CustomerID == nil {
		return ""
	}
	return c.CustomerID.String()
}

// CartItem is a single line of a cart snapshot.
type CartItem struct {
	Label     string
	Quantity  int
	UnitPrice int64
}

// CartSnapshot is the read-only view of a cart handed to payment validation
// before an order is placed.
type CartSnapshot struct {
	Token    string
	Items    []CartItem
	Total    int64
	Currency string
}
