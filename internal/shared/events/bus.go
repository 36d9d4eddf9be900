package events

import (
	"sync"

	"go.uber.org/zap"
)

// Bus dispatches domain events to subscribers in process. Dispatch is
// synchronous, so a state transition and its side effects happen in the
// caller's order.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	logger      *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
		logger:      logger,
	}
}

// Register subscribes the handler to every event type it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, eventType := range handler.Handles() {
		b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	}
}

// Publish delivers the event to its subscribers in registration order. A
// failing handler is logged and skipped; it never stops the remaining
// handlers or the publisher.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subscribers := b.subscribers[event.EventType()]
	b.mu.RUnlock()

	for _, handler := range subscribers {
		if err := handler.Handle(event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err))
		}
	}
}
