package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types []string
	seen  []Event
	err   error
}

func (h *recordingHandler) Handles() []string { return h.types }

func (h *recordingHandler) Handle(event Event) error {
	h.seen = append(h.seen, event)
	return h.err
}

func TestBusDeliversToSubscribedTypesOnly(t *testing.T) {
	bus := NewBus(zap.NewNop())
	paid := &recordingHandler{types: []string{TransactionPaidType}}
	failed := &recordingHandler{types: []string{TransactionFailedType}}
	bus.Register(paid)
	bus.Register(failed)

	bus.Publish(NewBaseEvent(TransactionPaidType, uuid.New()))

	assert.Len(t, paid.seen, 1)
	assert.Empty(t, failed.seen)
}

func TestBusIsolatesHandlerFailures(t *testing.T) {
	bus := NewBus(zap.NewNop())
	failing := &recordingHandler{types: []string{TransactionPaidType}, err: errors.New("webhook down")}
	next := &recordingHandler{types: []string{TransactionPaidType}}
	bus.Register(failing)
	bus.Register(next)

	bus.Publish(NewBaseEvent(TransactionPaidType, uuid.New()))

	assert.Len(t, failing.seen, 1)
	assert.Len(t, next.seen, 1)
}
