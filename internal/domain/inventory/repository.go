package inventory

import (
	"time"

	"github.com/erp/invengine/internal/domain/shared/strategy"
)

// CostLayerStore is an append-only store of cost layers indexed by
// (product, warehouse). Layers are returned as copies in append order;
// callers never hold references into the store.
type CostLayerStore interface {
	// Append stores a new layer and assigns its per-key sequence number
	Append(layer CostLayer) (CostLayer, error)
	// Layers returns copies of all layers for key, depleted ones included
	Layers(key LayerKey) []CostLayer
	// ProductLayers returns copies of the layers for productID across all warehouses
	ProductLayers(productID string) []CostLayer
	// ApplyDraws decrements the drawn layers. Every draw is validated before
	// any layer changes, so a failed call leaves the store unchanged.
	ApplyDraws(key LayerKey, draws []strategy.LayerDraw, at time.Time) error
	// Keys returns every key with at least one layer, sorted
	Keys() []LayerKey
}
