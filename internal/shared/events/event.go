package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a domain event dispatched through the in-process bus.
type Event interface {
	// EventID identifies this event instance.
	EventID() uuid.UUID

	// EventType names the event, e.g. "TransactionPaid".
	EventType() string

	// OccurredAt is when the event happened.
	OccurredAt() time.Time

	// AggregateID is the entity the event is about.
	AggregateID() uuid.UUID
}

// BaseEvent carries the fields every event shares. Embed it in concrete
// event types.
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateUUID uuid.UUID `json:"aggregate_id"`
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.AggregateUUID }

// NewBaseEvent stamps a fresh event of the given type.
func NewBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggregateUUID: aggregateID,
	}
}

// Handler processes published events.
type Handler interface {
	// Handles returns the event types this handler subscribes to.
	Handles() []string

	// Handle processes a single event.
	Handle(event Event) error
}
