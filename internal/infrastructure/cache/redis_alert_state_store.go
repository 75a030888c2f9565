package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultAlertStateKey = "invengine:alert_state"
	maxUpdateAttempts    = 5
)

// RedisAlertStateStore implements AlertStateStore on a single Redis hash.
// Each field is an inventory item ID and each value the JSON encoded state,
// so several planner instances can share workflow state.
type RedisAlertStateStore struct {
	client *redis.Client
	key    string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Key      string
}

// NewRedisAlertStateStore creates a new Redis-based alert state store
func NewRedisAlertStateStore(cfg RedisConfig) (*RedisAlertStateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAlertStateStoreWithClient(client, cfg.Key), nil
}

// NewRedisAlertStateStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisAlertStateStoreWithClient(client *redis.Client, key string) *RedisAlertStateStore {
	if key == "" {
		key = defaultAlertStateKey
	}
	return &RedisAlertStateStore{
		client: client,
		key:    key,
	}
}

// Get returns the state for an inventory item
func (s *RedisAlertStateStore) Get(ctx context.Context, inventoryItemID string) (*replenishment.AlertState, error) {
	raw, err := s.client.HGet(ctx, s.key, inventoryItemID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: alert state for '%s'", shared.ErrNotFound, inventoryItemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert state: %w", err)
	}

	state, err := decodeState(raw)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// GetMany returns the states present for the given items
func (s *RedisAlertStateStore) GetMany(ctx context.Context, inventoryItemIDs []string) (map[string]replenishment.AlertState, error) {
	out := make(map[string]replenishment.AlertState, len(inventoryItemIDs))
	if len(inventoryItemIDs) == 0 {
		return out, nil
	}

	values, err := s.client.HMGet(ctx, s.key, inventoryItemIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert states: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // Field not present
		}
		state, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		out[inventoryItemIDs[i]] = state
	}
	return out, nil
}

// Save upserts a state
func (s *RedisAlertStateStore) Save(ctx context.Context, state replenishment.AlertState) error {
	if state.InventoryItemID == "" {
		return fmt.Errorf("%w: alert state requires an inventory item id", shared.ErrInvalidInput)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode alert state: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, state.InventoryItemID, data).Err(); err != nil {
		return fmt.Errorf("failed to save alert state: %w", err)
	}
	return nil
}

// Update runs fn inside a WATCH on the hash and retries when another writer
// changed it before the write was committed
func (s *RedisAlertStateStore) Update(
	ctx context.Context,
	inventoryItemID string,
	fn func(state *replenishment.AlertState) error,
) (*replenishment.AlertState, error) {
	var updated replenishment.AlertState
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, s.key, inventoryItemID).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: alert state for '%s'", shared.ErrNotFound, inventoryItemID)
		}
		if err != nil {
			return fmt.Errorf("failed to get alert state: %w", err)
		}
		state, err := decodeState(raw)
		if err != nil {
			return err
		}
		if err := fn(&state); err != nil {
			return err
		}
		state.InventoryItemID = inventoryItemID

		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to encode alert state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, inventoryItemID, data)
			return nil
		})
		if err != nil {
			return err
		}
		updated = state
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, fmt.Errorf("%w: alert state for '%s' changed concurrently %d times",
		shared.ErrInvalidState, inventoryItemID, maxUpdateAttempts)
}

// Delete removes states; missing items are ignored
func (s *RedisAlertStateStore) Delete(ctx context.Context, inventoryItemIDs ...string) error {
	if len(inventoryItemIDs) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key, inventoryItemIDs...).Err(); err != nil {
		return fmt.Errorf("failed to delete alert states: %w", err)
	}
	return nil
}

// List returns every stored state ordered by inventory item ID
func (s *RedisAlertStateStore) List(ctx context.Context) ([]replenishment.AlertState, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list alert states: %w", err)
	}

	out := make([]replenishment.AlertState, 0, len(all))
	for _, raw := range all {
		state, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InventoryItemID < out[j].InventoryItemID
	})
	return out, nil
}

// Close closes the Redis client
func (s *RedisAlertStateStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisAlertStateStore) GetClient() *redis.Client {
	return s.client
}

func decodeState(raw string) (replenishment.AlertState, error) {
	var state replenishment.AlertState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return replenishment.AlertState{}, fmt.Errorf("failed to decode alert state: %w", err)
	}
	return state, nil
}

// Ensure RedisAlertStateStore implements AlertStateStore
var _ replenishment.AlertStateStore = (*RedisAlertStateStore)(nil)
