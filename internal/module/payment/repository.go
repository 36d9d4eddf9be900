package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/module/payment/entity"
)

// Repository defines the interface for transaction data access.
type Repository interface {
	// CreateTransaction persists a new transaction.
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error

	// GetTransaction returns a transaction by id.
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	// LatestOpenForOrder returns the most recently created transaction of an
	// order that is still in the open state.
	LatestOpenForOrder(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error)

	// UpdateStatus moves a transaction from one status to another. The
	// update is conditional on the current status so concurrent transitions
	// serialize at the database.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TransactionStatus) error

	// ListByOrder returns all transactions of an order, newest first.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new transaction repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	ent := entity.FromDomainTransaction(tx)
	if err := r.db.WithContext(ctx).Create(ent).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (r *repository) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var ent entity.TransactionEntity
	err := r.db.WithContext(ctx).First(&ent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *repository) LatestOpenForOrder(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	var ent entity.TransactionEntity
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, string(domain.StatusOpen)).
		Order("created_at DESC").
		First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("latest open transaction: %w", err)
	}
	return ent.ToDomain(), nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TransactionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&entity.TransactionEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return fmt.Errorf("update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race or the transaction moved on; let the caller re-read.
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Transaction, error) {
	var entities []*entity.TransactionEntity
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions by order: %w", err)
	}

	transactions := make([]*domain.Transaction, len(entities))
	for i, ent := range entities {
		transactions[i] = ent.ToDomain()
	}
	return transactions, nil
}
