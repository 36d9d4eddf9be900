package token

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *JWTCodec {
	t.Helper()
	return NewJWTCodec(&Config{
		Secret:     "test-secret",
		Issuer:     "payflow-test",
		DefaultTTL: 30 * time.Minute,
	}, NewMemoryStore())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)

	payload := Payload{
		PaymentMethodID: uuid.New(),
		TransactionID:   uuid.New(),
		FinishURL:       "https://shop.example/checkout/finish",
		ErrorURL:        "https://shop.example/checkout/error",
		ExpiresIn:       10 * time.Minute,
	}

	bearer, err := codec.Encode(ctx, payload)
	require.NoError(t, err)
	require.NotEmpty(t, bearer)

	tok, err := codec.Decode(ctx, bearer)
	require.NoError(t, err)
	assert.Equal(t, payload.PaymentMethodID, tok.PaymentMethodID)
	assert.Equal(t, payload.TransactionID, tok.TransactionID)
	assert.Equal(t, payload.FinishURL, tok.FinishURL)
	assert.Equal(t, payload.ErrorURL, tok.ErrorURL)
	assert.NotEmpty(t, tok.TokenID)
	assert.Equal(t, bearer, tok.Bearer)
	assert.False(t, tok.Expired)
}

func TestDecodeMalformed(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)

	_, err := codec.Decode(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeWrongSecret(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)
	other := NewJWTCodec(&Config{Secret: "other-secret"}, NewMemoryStore())

	bearer, err := other.Encode(ctx, Payload{TransactionID: uuid.New()})
	require.NoError(t, err)

	_, err = codec.Decode(ctx, bearer)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeExpiredKeepsClaims(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)

	payload := Payload{
		PaymentMethodID: uuid.New(),
		TransactionID:   uuid.New(),
		ErrorURL:        "https://shop.example/error",
		ExpiresIn:       -time.Minute,
	}
	bearer, err := codec.Encode(ctx, payload)
	require.NoError(t, err)

	tok, err := codec.Decode(ctx, bearer)
	require.NoError(t, err)
	assert.True(t, tok.Expired)
	assert.Equal(t, payload.TransactionID, tok.TransactionID)
	assert.Equal(t, payload.ErrorURL, tok.ErrorURL)
}

func TestDecodeSingleUse(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)

	bearer, err := codec.Encode(ctx, Payload{TransactionID: uuid.New()})
	require.NoError(t, err)

	_, err = codec.Decode(ctx, bearer)
	require.NoError(t, err)

	// The second confirmation attempt observes the token consumed.
	_, err = codec.Decode(ctx, bearer)
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestInvalidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)

	bearer, err := codec.Encode(ctx, Payload{TransactionID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, codec.Invalidate(ctx, bearer))
	require.NoError(t, codec.Invalidate(ctx, bearer))

	_, err = codec.Decode(ctx, bearer)
	assert.ErrorIs(t, err, ErrConsumed)
}

func TestInvalidateExpiredBearer(t *testing.T) {
	ctx := context.Background()
	codec := newTestCodec(t)

	bearer, err := codec.Encode(ctx, Payload{ExpiresIn: -time.Minute})
	require.NoError(t, err)

	assert.NoError(t, codec.Invalidate(ctx, bearer))
}

func TestDefaultTTLApplied(t *testing.T) {
	codec := NewJWTCodec(&Config{Secret: "s"}, NewMemoryStore())
	assert.Equal(t, 30*time.Minute, codec.defaultTTL)
}
