package payment

import (
	"go.uber.org/zap"

	"github.com/payflow/server/internal/shared/events"
)

// FailureMonitor subscribes to terminal transaction events and logs them for
// operational follow-up. Registered on the event bus at startup.
type FailureMonitor struct {
	logger *zap.Logger
}

func NewFailureMonitor(logger *zap.Logger) *FailureMonitor {
	return &FailureMonitor{logger: logger}
}

// Handles returns the event types this handler subscribes to.
func (m *FailureMonitor) Handles() []string {
	return []string{events.TransactionFailedType, events.TransactionCanceledType}
}

// Handle processes a single event.
func (m *FailureMonitor) Handle(event events.Event) error {
	changed, ok := event.(*events.TransactionStateChangedEvent)
	if !ok {
		return nil
	}

	m.logger.Warn("transaction reached terminal failure state",
		zap.String("event_type", changed.EventType()),
		zap.String("transaction_id", changed.TransactionID.String()),
		zap.String("order_id", changed.OrderID.String()),
		zap.String("payment_method_id", changed.PaymentMethodID.String()),
		zap.String("from", changed.FromStatus),
		zap.String("to", changed.ToStatus))
	return nil
}
