package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
)

// InMemoryAlertStateStore implements AlertStateStore using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryAlertStateStore struct {
	mu     sync.RWMutex
	states map[string]replenishment.AlertState
}

// NewInMemoryAlertStateStore creates a new in-memory alert state store
func NewInMemoryAlertStateStore() *InMemoryAlertStateStore {
	return &InMemoryAlertStateStore{
		states: make(map[string]replenishment.AlertState),
	}
}

// Get returns the state for an inventory item
func (s *InMemoryAlertStateStore) Get(ctx context.Context, inventoryItemID string) (*replenishment.AlertState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[inventoryItemID]
	if !ok {
		return nil, fmt.Errorf("%w: alert state for '%s'", shared.ErrNotFound, inventoryItemID)
	}
	return &state, nil
}

// GetMany returns the states present for the given items
func (s *InMemoryAlertStateStore) GetMany(ctx context.Context, inventoryItemIDs []string) (map[string]replenishment.AlertState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]replenishment.AlertState, len(inventoryItemIDs))
	for _, id := range inventoryItemIDs {
		if state, ok := s.states[id]; ok {
			out[id] = state
		}
	}
	return out, nil
}

// Save upserts a state
func (s *InMemoryAlertStateStore) Save(ctx context.Context, state replenishment.AlertState) error {
	if state.InventoryItemID == "" {
		return fmt.Errorf("%w: alert state requires an inventory item id", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.InventoryItemID] = state
	return nil
}

// Update applies fn to the stored state under the store lock
func (s *InMemoryAlertStateStore) Update(
	ctx context.Context,
	inventoryItemID string,
	fn func(state *replenishment.AlertState) error,
) (*replenishment.AlertState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[inventoryItemID]
	if !ok {
		return nil, fmt.Errorf("%w: alert state for '%s'", shared.ErrNotFound, inventoryItemID)
	}
	if err := fn(&state); err != nil {
		return nil, err
	}
	state.InventoryItemID = inventoryItemID
	s.states[inventoryItemID] = state
	return &state, nil
}

// Delete removes states; missing items are ignored
func (s *InMemoryAlertStateStore) Delete(ctx context.Context, inventoryItemIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range inventoryItemIDs {
		delete(s.states, id)
	}
	return nil
}

// List returns every stored state ordered by inventory item ID
func (s *InMemoryAlertStateStore) List(ctx context.Context) ([]replenishment.AlertState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]replenishment.AlertState, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InventoryItemID < out[j].InventoryItemID
	})
	return out, nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryAlertStateStore) Close() error {
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryAlertStateStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Ensure InMemoryAlertStateStore implements AlertStateStore
var _ replenishment.AlertStateStore = (*InMemoryAlertStateStore)(nil)
