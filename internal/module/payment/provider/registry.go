package provider

import (
	"sync"

	"github.com/google/uuid"
)

// Entry is a resolved handler with its capabilities detected once at
// registration time, so flows branch on flags instead of re-inspecting types.
type Entry struct {
	PaymentMethodID uuid.UUID
	Modern          Provider
	Legacy          LegacyProvider
	Prepared        LegacyPreparedProvider
}

// SupportsModern reports whether the entry carries the unified contract.
func (e *Entry) SupportsModern() bool {
	return e.Modern != nil
}

// SupportsValidation reports whether the entry can validate payment data,
// either through the unified contract or the prepared legacy contract.
func (e *Entry) SupportsValidation() bool {
	return e.Modern != nil || e.Prepared != nil
}

// Name returns the provider name behind the entry.
func (e *Entry) Name() string {
	switch {
	case e.Modern != nil:
		return e.Modern.Name()
	case e.Prepared != nil:
		return e.Prepared.Name()
	case e.Legacy != nil:
		return e.Legacy.Name()
	default:
		return ""
	}
}

// Registry maps payment method ids to capability-typed provider entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]*Entry),
	}
}

// Register binds a handler to a payment method. Capabilities are detected
// here via type assertions; a handler may satisfy several contracts.
func (r *Registry) Register(paymentMethodID uuid.UUID, handler any) {
	entry := &Entry{PaymentMethodID: paymentMethodID}
	if p, ok := handler.(Provider); ok {
		entry.Modern = p
	}
	if p, ok := handler.(LegacyProvider); ok {
		entry.Legacy = p
	}
	if p, ok := handler.(LegacyPreparedProvider); ok {
		entry.Prepared = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[paymentMethodID] = entry
}

// Resolve returns the entry for a payment method. Absence is a boolean
// result, never an error.
func (r *Registry) Resolve(paymentMethodID uuid.UUID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[paymentMethodID]
	return entry, ok
}

// List returns all registered payment method ids.
func (r *Registry) List() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
