package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/shared/events"
	"github.com/payflow/server/internal/utils/metrics"
)

// Gateway exposes transaction state to the payment flows. All transition
// methods are idempotent when the transaction is already in the target state.
type Gateway interface {
	// CurrentFor returns the latest open transaction of an order.
	CurrentFor(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error)

	// CreateForOrder opens a new transaction for an order. A non-nil
	// validation struct is stashed on the transaction so the provider sees
	// it again during pay and capture.
	CreateForOrder(ctx context.Context, orderID, paymentMethodID uuid.UUID, amount int64, currency string, validation map[string]any) (*domain.Transaction, error)

	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	MarkInProgress(ctx context.Context, id uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	MarkCanceled(ctx context.Context, id uuid.UUID) error
}

// StateGateway implements Gateway on top of the transaction repository and
// publishes a state change event for every completed transition.
type StateGateway struct {
	repo    Repository
	bus     EventPublisher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewStateGateway(repo Repository, bus EventPublisher, m *metrics.Metrics, logger *zap.Logger) *StateGateway {
	return &StateGateway{
		repo:    repo,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

func (g *StateGateway) CurrentFor(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	return g.repo.LatestOpenForOrder(ctx, orderID)
}

func (g *StateGateway) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return g.repo.GetTransaction(ctx, id)
}

func (g *StateGateway) CreateForOrder(ctx context.Context, orderID, paymentMethodID uuid.UUID, amount int64, currency string, validation map[string]any) (*domain.Transaction, error) {
	now := time.Now()
	tx := &domain.Transaction{
		ID:              uuid.New(),
		OrderID:         orderID,
		PaymentMethodID: paymentMethodID,
		Status:          domain.StatusOpen,
		Amount:          amount,
		Currency:        currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if validation != nil {
		tx.CustomFields = map[string]any{domain.CustomFieldValidationData: validation}
	}
	if err := g.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (g *StateGateway) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	return g.transition(ctx, id, domain.StatusInProgress, "")
}

func (g *StateGateway) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return g.transition(ctx, id, domain.StatusPaid, events.TransactionPaidType)
}

func (g *StateGateway) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return g.transition(ctx, id, domain.StatusFailed, events.TransactionFailedType)
}

func (g *StateGateway) MarkCanceled(ctx context.Context, id uuid.UUID) error {
	return g.transition(ctx, id, domain.StatusCanceled, events.TransactionCanceledType)
}

func (g *StateGateway) transition(ctx context.Context, id uuid.UUID, to domain.TransactionStatus, eventType string) error {
	tx, err := g.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if tx.Status == to {
		return nil
	}
	if !tx.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tx.Status, to)
	}

	if err := g.repo.UpdateStatus(ctx, id, tx.Status, to); err != nil {
		return err
	}

	if g.metrics != nil {
		g.metrics.RecordTransition(string(tx.Status), string(to))
	}
	g.logger.Info("transaction state changed",
		zap.String("transaction_id", id.String()),
		zap.String("from", string(tx.Status)),
		zap.String("to", string(to)))

	if eventType != "" && g.bus != nil {
		g.bus.Publish(events.NewTransactionStateChangedEvent(
			eventType, tx.ID, tx.OrderID, tx.PaymentMethodID, string(tx.Status), string(to)))
	}
	return nil
}
