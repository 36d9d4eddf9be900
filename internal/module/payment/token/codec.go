package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Codec errors.
var (
	ErrMalformed = errors.New("malformed payment token")
	ErrConsumed  = errors.New("payment token already consumed")
)

// Payload carries the identity and return targets of a confirmation token.
// TokenID is empty until Encode assigns one.
type Payload struct {
	TokenID         string
	PaymentMethodID uuid.UUID
	TransactionID   uuid.UUID
	FinishURL       string
	ErrorURL        string
	ExpiresIn       time.Duration // Zero means the codec default applies
}

// Token is a decoded confirmation token. Expired tokens are returned with
// their claims populated so the caller can still reach the error target.
type Token struct {
	Payload
	Bearer  string
	Expired bool
}

// Codec encodes and decodes opaque, single-use confirmation tokens.
type Codec interface {
	// Encode signs the payload into an opaque bearer value.
	Encode(ctx context.Context, payload Payload) (string, error)

	// Decode parses and verifies a bearer value. The first successful decode
	// of a bearer claims it; later decodes fail with ErrConsumed. An expired
	// bearer decodes into a Token with Expired set instead of failing.
	Decode(ctx context.Context, bearer string) (*Token, error)

	// Invalidate marks the bearer consumed. Safe to call repeatedly.
	Invalidate(ctx context.Context, bearer string) error
}

// Config holds codec configuration.
type Config struct {
	Secret     string
	Issuer     string
	DefaultTTL time.Duration
}

// JWTCodec implements Codec with HS256-signed JWTs and a consumption store
// that enforces single use across concurrent confirmations.
type JWTCodec struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	store      ConsumedStore
	parser     *jwt.Parser
}

type tokenClaims struct {
	jwt.RegisteredClaims
	PaymentMethodID string `json:"pmi,omitempty"`
	TransactionID   string `json:"txi,omitempty"`
	FinishURL       string `json:"fin,omitempty"`
	ErrorURL        string `json:"eru,omitempty"`
}

// NewJWTCodec creates a new JWT token codec.
func NewJWTCodec(cfg *Config, store ConsumedStore) *JWTCodec {
	defaultTTL := cfg.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &JWTCodec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		defaultTTL: defaultTTL,
		store:      store,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Encode signs the payload into an opaque bearer value.
func (c *JWTCodec) Encode(_ context.Context, payload Payload) (string, error) {
	ttl := payload.ExpiresIn
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := time.Now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		FinishURL: payload.FinishURL,
		ErrorURL:  payload.ErrorURL,
	}
	if payload.PaymentMethodID != uuid.Nil {
		claims.PaymentMethodID = payload.PaymentMethodID.String()
	}
	if payload.TransactionID != uuid.Nil {
		claims.TransactionID = payload.TransactionID.String()
	}

	bearer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign payment token: %w", err)
	}
	return bearer, nil
}

// Decode parses and verifies a bearer value, claiming it for the caller.
func (c *JWTCodec) Decode(ctx context.Context, bearer string) (*Token, error) {
	claims := &tokenClaims{}
	parsed, err := c.parser.ParseWithClaims(bearer, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})

	expired := false
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		expired = true
	default:
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if parsed == nil || claims.ID == "" {
		return nil, ErrMalformed
	}

	// Claim the token. The losing side of a concurrent confirmation race
	// observes it consumed here, before any handler is invoked.
	fresh, err := c.store.Consume(ctx, claims.ID, c.remainingTTL(claims))
	if err != nil {
		return nil, fmt.Errorf("consume payment token: %w", err)
	}
	if !fresh {
		return nil, ErrConsumed
	}

	tok := &Token{
		Payload: Payload{
			TokenID:   claims.ID,
			FinishURL: claims.FinishURL,
			ErrorURL:  claims.ErrorURL,
		},
		Bearer:  bearer,
		Expired: expired,
	}
	if claims.PaymentMethodID != "" {
		if id, err := uuid.Parse(claims.PaymentMethodID); err == nil {
			tok.PaymentMethodID = id
		}
	}
	if claims.TransactionID != "" {
		if id, err := uuid.Parse(claims.TransactionID); err == nil {
			tok.TransactionID = id
		}
	}
	return tok, nil
}

// Invalidate marks the bearer consumed without verifying its signature
// validity window. Repeated calls are no-ops.
func (c *JWTCodec) Invalidate(ctx context.Context, bearer string) error {
	claims := &tokenClaims{}
	parsed, err := c.parser.ParseWithClaims(bearer, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil && !errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if parsed == nil || claims.ID == "" {
		return ErrMalformed
	}

	if _, err := c.store.Consume(ctx, claims.ID, c.remainingTTL(claims)); err != nil {
		return fmt.Errorf("invalidate payment token: %w", err)
	}
	return nil
}

// remainingTTL returns how long the consumption record must be retained.
// Once the token itself is past its expiry the record may go away, so the
// remaining validity window bounds it.
func (c *JWTCodec) remainingTTL(claims *tokenClaims) time.Duration {
	const floor = time.Minute
	if claims.ExpiresAt == nil {
		return c.defaultTTL
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < floor {
		return floor
	}
	return remaining
}
