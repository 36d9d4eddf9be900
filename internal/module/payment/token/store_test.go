package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConsume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fresh, err := store.Consume(ctx, "tok-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.Consume(ctx, "tok-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)

	// A different id is unaffected.
	fresh, err = store.Consume(ctx, "tok-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryStoreExpiredRecordReclaimed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	fresh, err := store.Consume(ctx, "tok-1", -time.Second)
	require.NoError(t, err)
	assert.True(t, fresh)

	// The record is already past its ttl, so the id can be claimed again.
	fresh, err = store.Consume(ctx, "tok-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMemoryStoreSweepDropsExpiredRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"tok-1", "tok-2", "tok-3"} {
		_, err := store.Consume(ctx, id, -time.Second)
		require.NoError(t, err)
	}
	_, err := store.Consume(ctx, "tok-live", time.Hour)
	require.NoError(t, err)

	store.mu.Lock()
	store.lastSweep = time.Now().Add(-2 * time.Minute)
	store.sweep(time.Now())
	live := len(store.entries)
	store.mu.Unlock()

	assert.Equal(t, 1, live)
}

func TestMemoryStoreConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const racers = 32
	var wg sync.WaitGroup
	wins := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.Consume(ctx, "contested", time.Minute)
			require.NoError(t, err)
			wins <- fresh
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for fresh := range wins {
		if fresh {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}
