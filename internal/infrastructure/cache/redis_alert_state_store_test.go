package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedisStore connects to ERP_TEST_REDIS_ADDR and skips when it is unset
func newTestRedisStore(t *testing.T) *RedisAlertStateStore {
	t.Helper()
	addr := os.Getenv("ERP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ERP_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())

	key := "invengine:test:" + t.Name()
	t.Cleanup(func() {
		client.Del(context.Background(), key)
		_ = client.Close()
	})
	return NewRedisAlertStateStoreWithClient(client, key)
}

func TestRedisAlertStateStore(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "INV-1")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, store.Save(ctx, testState("INV-2", replenishment.AlertStatusActive)))
	require.NoError(t, store.Save(ctx, testState("INV-1", replenishment.AlertStatusAcknowledged)))

	state, err := store.Get(ctx, "INV-1")
	require.NoError(t, err)
	assert.Equal(t, replenishment.AlertStatusAcknowledged, state.Status)

	states, err := store.GetMany(ctx, []string{"INV-1", "INV-9"})
	require.NoError(t, err)
	assert.Len(t, states, 1)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "INV-1", all[0].InventoryItemID)

	require.NoError(t, store.Delete(ctx, "INV-1"))
	all, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNewRedisAlertStateStoreWithClient_DefaultKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	store := NewRedisAlertStateStoreWithClient(client, "")
	assert.Equal(t, defaultAlertStateKey, store.key)
	assert.Same(t, client, store.GetClient())
}

func TestRedisAlertStateStore_UpdateRetriesOnConflict(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testState("INV-1", replenishment.AlertStatusActive)))

	attempts := 0
	updated, err := store.Update(ctx, "INV-1", func(s *replenishment.AlertState) error {
		attempts++
		if attempts == 1 {
			// Another writer marks the alert read between our read and write
			other := *s
			other.IsRead = true
			require.NoError(t, store.Save(ctx, other))
		}
		s.Status = replenishment.AlertStatusAcknowledged
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, replenishment.AlertStatusAcknowledged, updated.Status)
	assert.True(t, updated.IsRead, "the concurrent write is not lost")

	_, err = store.Update(ctx, "INV-404", func(*replenishment.AlertState) error { return nil })
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
