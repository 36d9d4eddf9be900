package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/payflow/server/internal/module/payment/domain"
)

// TransactionEntity is the GORM entity for an order transaction.
type TransactionEntity struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index"`
	PaymentMethodID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status          string    `gorm:"not null;default:open;index"`
	Amount          int64
	Currency        string `gorm:"default:usd"`
	CustomFields    string `gorm:"type:jsonb"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the database table name.
func (TransactionEntity) TableName() string {
	return "order_transactions"
}

// ToDomain converts the entity to a domain Transaction.
func (e *TransactionEntity) ToDomain() *domain.Transaction {
	var customFields map[string]any
	if e.CustomFields != "" {
		// Malformed custom fields are treated as absent rather than fatal.
		_ = json.Unmarshal([]byte(e.CustomFields), &customFields)
	}

	return &domain.Transaction{
		ID:              e.ID,
		OrderID:         e.OrderID,
		PaymentMethodID: e.PaymentMethodID,
		Status:          domain.TransactionStatus(e.Status),
		Amount:          e.Amount,
		Currency:        e.Currency,
		CustomFields:    customFields,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// FromDomainTransaction converts a domain Transaction to an entity.
func FromDomainTransaction(t *domain.Transaction) *TransactionEntity {
	customFields := ""
	if len(t.CustomFields) > 0 {
		if raw, err := json.Marshal(t.CustomFields); err == nil {
			customFields = string(raw)
		}
	}

	return &TransactionEntity{
		ID:              t.ID,
		OrderID:         t.OrderID,
		PaymentMethodID: t.PaymentMethodID,
		Status:          string(t.Status),
		Amount:          t.Amount,
		Currency:        t.Currency,
		CustomFields:    customFields,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
