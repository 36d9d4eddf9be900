package payment

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/payflow/server/internal/shared/events"
)

// Route name for the confirmation endpoint, resolved through the URLBuilder.
const RoutePaymentFinalize = "payment.finalize.transaction"

// ConfigKeyFinalizeWindow is the channel-scoped setting holding the
// confirmation window in minutes.
const ConfigKeyFinalizeWindow = "payment.finalize_transaction_time"

// ConfigStore reads channel-scoped configuration values.
// This interface is defined in the payment module (consumer) following
// the Dependency Inversion Principle.
type ConfigStore interface {
	// Get returns the value for key scoped to the sales channel, falling
	// back to the global value, and whether any value is set.
	Get(ctx context.Context, key string, salesChannelID uuid.UUID) (string, bool)
}

// URLBuilder produces externally reachable URLs for named routes.
type URLBuilder interface {
	// Absolute returns the absolute URL for a route carrying the params as
	// query parameters.
	Absolute(route string, params url.Values) string
}

// EventPublisher publishes domain events to registered handlers.
type EventPublisher interface {
	Publish(event events.Event)
}
