package payment

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/payflow/server/internal/module/payment/domain"
	"github.com/payflow/server/internal/module/payment/token"
)

func newReturnURLCodec(t *testing.T) token.Codec {
	t.Helper()
	return token.NewJWTCodec(&token.Config{
		Secret:     "return-url-test-secret",
		Issuer:     "payflow",
		DefaultTTL: 30 * time.Minute,
	}, token.NewMemoryStore())
}

func decodeBuilt(t *testing.T, codec token.Codec, raw string) *token.Token {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	bearer := parsed.Query().Get("_token")
	require.NotEmpty(t, bearer)
	tok, err := codec.Decode(context.Background(), bearer)
	require.NoError(t, err)
	return tok
}

func TestReturnURLBuilderBuild(t *testing.T) {
	codec := newReturnURLCodec(t)
	builder := NewReturnURLBuilder(codec, &stubConfigStore{}, stubURLBuilder{}, zap.NewNop())

	tx := openTransaction(uuid.New())

	raw, err := builder.Build(context.Background(), tx, "https://shop/finish", "https://shop/error", &domain.ChannelContext{})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/payment/finalize-transaction", parsed.Path)

	tok := decodeBuilt(t, codec, raw)
	assert.Equal(t, tx.ID, tok.TransactionID)
	assert.Equal(t, tx.PaymentMethodID, tok.PaymentMethodID)
	assert.Equal(t, "https://shop/finish", tok.FinishURL)
	assert.Equal(t, "https://shop/error", tok.ErrorURL)
	assert.False(t, tok.Expired)
}

func TestReturnURLBuilderChannelWindow(t *testing.T) {
	codec := newReturnURLCodec(t)
	store := &stubConfigStore{values: map[string]string{
		ConfigKeyFinalizeWindow: "120",
	}}
	builder := NewReturnURLBuilder(codec, store, stubURLBuilder{}, zap.NewNop())

	raw, err := builder.Build(context.Background(), openTransaction(uuid.New()), "", "", &domain.ChannelContext{})
	require.NoError(t, err)

	tok := decodeBuilt(t, codec, raw)
	assert.False(t, tok.Expired)
}

func TestReturnURLBuilderInvalidWindowFallsBack(t *testing.T) {
	codec := newReturnURLCodec(t)
	store := &stubConfigStore{values: map[string]string{
		ConfigKeyFinalizeWindow: "soon",
	}}
	builder := NewReturnURLBuilder(codec, store, stubURLBuilder{}, zap.NewNop())

	raw, err := builder.Build(context.Background(), openTransaction(uuid.New()), "", "", &domain.ChannelContext{})
	require.NoError(t, err)

	tok := decodeBuilt(t, codec, raw)
	assert.False(t, tok.Expired)
}
