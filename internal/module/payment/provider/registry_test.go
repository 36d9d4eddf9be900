package provider

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payflow/server/internal/module/payment/domain"
)

// modernStub implements the unified Provider contract.
type modernStub struct{}

func (modernStub) Name() string { return "modern-stub" }
func (modernStub) Pay(context.Context, *Request, TransactionView, *domain.ChannelContext, map[string]any) (*RedirectResponse, error) {
	return nil, nil
}
func (modernStub) Finalize(context.Context, *Request, TransactionView, *domain.ChannelContext) error {
	return nil
}
func (modernStub) Validate(context.Context, *domain.CartSnapshot, map[string]any, *domain.ChannelContext) (map[string]any, error) {
	return nil, nil
}
func (modernStub) Recurring(context.Context, TransactionView, *domain.ChannelContext) error {
	return nil
}

// legacyStub implements only the deprecated synchronous contract.
type legacyStub struct{}

func (legacyStub) Name() string { return "legacy-stub" }
func (legacyStub) PaySync(context.Context, *Request, TransactionView, *domain.ChannelContext) error {
	return nil
}

// preparedStub implements only the deprecated prepared contract.
type preparedStub struct{}

func (preparedStub) Name() string { return "prepared-stub" }
func (preparedStub) Validate(context.Context, *domain.CartSnapshot, map[string]any, *domain.ChannelContext) (map[string]any, error) {
	return map[string]any{"prepared": true}, nil
}
func (preparedStub) Capture(context.Context, *Request, TransactionView, *domain.ChannelContext, map[string]any) error {
	return nil
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	methodID := uuid.New()
	registry.Register(methodID, modernStub{})

	entry, ok := registry.Resolve(methodID)
	require.True(t, ok)
	assert.True(t, entry.SupportsModern())
	assert.True(t, entry.SupportsValidation())
	assert.Equal(t, "modern-stub", entry.Name())
}

func TestRegistryResolveUnknown(t *testing.T) {
	registry := NewRegistry()

	entry, ok := registry.Resolve(uuid.New())
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestRegistryCapabilityDetection(t *testing.T) {
	registry := NewRegistry()
	legacyID := uuid.New()
	preparedID := uuid.New()
	registry.Register(legacyID, legacyStub{})
	registry.Register(preparedID, preparedStub{})

	legacy, ok := registry.Resolve(legacyID)
	require.True(t, ok)
	assert.False(t, legacy.SupportsModern())
	assert.False(t, legacy.SupportsValidation())
	assert.NotNil(t, legacy.Legacy)
	assert.Nil(t, legacy.Prepared)

	prepared, ok := registry.Resolve(preparedID)
	require.True(t, ok)
	assert.False(t, prepared.SupportsModern())
	assert.True(t, prepared.SupportsValidation())
	assert.Nil(t, prepared.Legacy)
	assert.NotNil(t, prepared.Prepared)
}

func TestRegistryReRegisterReplaces(t *testing.T) {
	registry := NewRegistry()
	methodID := uuid.New()
	registry.Register(methodID, legacyStub{})
	registry.Register(methodID, modernStub{})

	entry, ok := registry.Resolve(methodID)
	require.True(t, ok)
	assert.True(t, entry.SupportsModern())
	assert.Nil(t, entry.Legacy)
}

func TestRegistryList(t *testing.T) {
	registry := NewRegistry()
	a, b := uuid.New(), uuid.New()
	registry.Register(a, modernStub{})
	registry.Register(b, legacyStub{})

	ids := registry.List()
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)
}

func TestInvoiceProviderValidate(t *testing.T) {
	p := NewInvoiceProvider()
	data, err := p.Validate(context.Background(), &domain.CartSnapshot{Total: 1500}, nil, &domain.ChannelContext{})
	require.NoError(t, err)
	assert.Contains(t, data["invoice_number"], "INV-")

	_, err = p.Validate(context.Background(), &domain.CartSnapshot{Total: -1}, nil, &domain.ChannelContext{})
	assert.Error(t, err)
}
