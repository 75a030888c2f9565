package persistence

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/google/uuid"
)

// InMemoryCostLayerStore is an append-only arena of cost layers with a
// per-key index into it. Layers are never removed from the arena.
//
// The store guards its own structure; callers that need read-modify-write
// consistency for one key (plan a consumption, then apply it) must
// serialize on that key themselves.
type InMemoryCostLayerStore struct {
	mu      sync.RWMutex
	arena   []inventory.CostLayer
	index   map[inventory.LayerKey][]int // Arena positions in append order
	byID    map[uuid.UUID]int
	nextSeq map[inventory.LayerKey]int64
}

// NewInMemoryCostLayerStore creates an empty store
func NewInMemoryCostLayerStore() *InMemoryCostLayerStore {
	return &InMemoryCostLayerStore{
		arena:   make([]inventory.CostLayer, 0),
		index:   make(map[inventory.LayerKey][]int),
		byID:    make(map[uuid.UUID]int),
		nextSeq: make(map[inventory.LayerKey]int64),
	}
}

// Append stores a copy of layer and assigns the next sequence number for its key
func (s *InMemoryCostLayerStore) Append(layer inventory.CostLayer) (inventory.CostLayer, error) {
	layer.EnsureID()
	if err := layer.Validate(); err != nil {
		return inventory.CostLayer{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[layer.ID]; exists {
		return inventory.CostLayer{}, fmt.Errorf("%w: cost layer %s", shared.ErrAlreadyExists, layer.ID)
	}

	key := layer.Key()
	s.nextSeq[key]++
	layer.Sequence = s.nextSeq[key]

	stored := layer.Clone()
	pos := len(s.arena)
	s.arena = append(s.arena, stored)
	s.index[key] = append(s.index[key], pos)
	s.byID[layer.ID] = pos

	return stored.Clone(), nil
}

// Layers returns copies of all layers for key in append order
func (s *InMemoryCostLayerStore) Layers(key inventory.LayerKey) []inventory.CostLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.index[key]
	out := make([]inventory.CostLayer, len(positions))
	for i, pos := range positions {
		out[i] = s.arena[pos].Clone()
	}
	return out
}

// ProductLayers returns copies of the product's layers across warehouses,
// ordered by warehouse then append order
func (s *InMemoryCostLayerStore) ProductLayers(productID string) []inventory.CostLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]inventory.CostLayer, 0)
	for _, key := range s.sortedKeys() {
		if key.ProductID != productID {
			continue
		}
		for _, pos := range s.index[key] {
			out = append(out, s.arena[pos].Clone())
		}
	}
	return out
}

// ApplyDraws decrements the drawn layers. All draws are checked against the
// current arena before any layer is touched.
func (s *InMemoryCostLayerStore) ApplyDraws(key inventory.LayerKey, draws []strategy.LayerDraw, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[int]inventory.CostLayer, len(draws))
	for _, d := range draws {
		pos, ok := s.byID[d.LayerID]
		if !ok {
			return fmt.Errorf("%w: cost layer %s", shared.ErrNotFound, d.LayerID)
		}
		layer, seen := pending[pos]
		if !seen {
			layer = s.arena[pos].Clone()
		}
		if layer.Key() != key {
			return fmt.Errorf("%w: cost layer %s belongs to %s, not %s",
				shared.ErrInvalidInput, d.LayerID, layer.Key(), key)
		}
		if err := layer.Deduct(d.Quantity, at); err != nil {
			return err
		}
		pending[pos] = layer
	}

	for pos, layer := range pending {
		s.arena[pos] = layer
	}
	return nil
}

// Keys returns every key with at least one layer, sorted by product then warehouse
func (s *InMemoryCostLayerStore) Keys() []inventory.LayerKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedKeys()
}

// Len returns the number of layers in the arena
func (s *InMemoryCostLayerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.arena)
}

// sortedKeys must be called with mu held
func (s *InMemoryCostLayerStore) sortedKeys() []inventory.LayerKey {
	keys := make([]inventory.LayerKey, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].WarehouseID < keys[j].WarehouseID
	})
	return keys
}

var _ inventory.CostLayerStore = (*InMemoryCostLayerStore)(nil)
