package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheTTL = 5 * time.Minute

// Service reads and writes channel-scoped settings with a redis read-through
// cache. It satisfies the config store interface the payment module consumes.
type Service struct {
	repo   Repository
	cache  redis.UniversalClient
	logger *zap.Logger
}

func NewService(repo Repository, cache redis.UniversalClient, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Get returns the value for key scoped to the sales channel, falling back to
// the global value. The boolean reports whether any value is set.
func (s *Service) Get(ctx context.Context, key string, salesChannelID uuid.UUID) (string, bool) {
	cacheKey := s.cacheKey(key, salesChannelID)
	if s.cache != nil {
		if value, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			return value, true
		}
	}

	setting, err := s.repo.GetByKey(ctx, key, salesChannelID)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			s.logger.Warn("settings lookup failed",
				zap.String("key", key),
				zap.Error(err))
		}
		return "", false
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, setting.Value, cacheTTL).Err(); err != nil {
			s.logger.Warn("settings cache write failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}
	return setting.Value, true
}

// Set writes a value and drops the cached copy.
func (s *Service) Set(ctx context.Context, key, value string, salesChannelID *uuid.UUID) error {
	setting := &Setting{
		Key:            key,
		Value:          value,
		SalesChannelID: salesChannelID,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return err
	}

	if s.cache != nil {
		channelID := uuid.Nil
		if salesChannelID != nil {
			channelID = *salesChannelID
		}
		if err := s.cache.Del(ctx, s.cacheKey(key, channelID)).Err(); err != nil {
			s.logger.Warn("settings cache invalidation failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Service) cacheKey(key string, salesChannelID uuid.UUID) string {
	return fmt.Sprintf("settings:%s:%s", salesChannelID, key)
}

// MemoryStore is an in-memory config store for tests and single-instance
// deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the channel-scoped value, falling back to the global one.
func (m *MemoryStore) Get(_ context.Context, key string, salesChannelID uuid.UUID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[memoryKey(key, salesChannelID)]; ok {
		return v, true
	}
	v, ok := m.values[memoryKey(key, uuid.Nil)]
	return v, ok
}

// Set writes a value. A nil channel id writes the global value.
func (m *MemoryStore) Set(key, value string, salesChannelID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[memoryKey(key, salesChannelID)] = value
}

func memoryKey(key string, salesChannelID uuid.UUID) string {
	return salesChannelID.String() + ":" + key
}
