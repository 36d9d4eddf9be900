package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConsumedStore records which token ids have been consumed. Consume must be
// atomic: exactly one caller wins for a given id.
type ConsumedStore interface {
	// Consume marks the id consumed, keeping the record for ttl. It returns
	// true when this call was the first to consume the id.
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// MemoryStore is an in-memory ConsumedStore.
// Suitable for single-instance deployments and tests.
// For production multi-instance deployments, use the Redis-based store.
//
// Expired records are reclaimed lazily on Consume, so the store needs no
// background goroutine and no explicit shutdown.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	lastSweep time.Time
}

// NewMemoryStore creates a new in-memory consumed-token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]time.Time),
		lastSweep: time.Now(),
	}
}

// Consume marks the id consumed.
func (s *MemoryStore) Consume(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(time.Now())

	if expiresAt, ok := s.entries[id]; ok && time.Now().Before(expiresAt) {
		return false, nil
	}
	s.entries[id] = time.Now().Add(ttl)
	return true, nil
}

// sweep drops expired records. Throttled to once a minute so Consume stays
// cheap on busy stores. Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for id, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, id)
		}
	}
}

// RedisStore is a Redis-backed ConsumedStore shared across instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a new Redis-backed consumed-token store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "payment:token:consumed:",
	}
}

// Consume marks the id consumed via SETNX, so exactly one caller wins.
func (s *RedisStore) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+id, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set consumed token: %w", err)
	}
	return ok, nil
}
