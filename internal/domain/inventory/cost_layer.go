package inventory

import (
	"fmt"
	"time"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchInfo contains optional lot attributes for a receipt
type BatchInfo struct {
	BatchNumber string     `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

// CostLayer is a discrete lot of stock purchased at one unit cost on one date.
// Layers belong to exactly one (product, warehouse) pair and are never deleted;
// depleted layers stay in the ledger for COGS history.
type CostLayer struct {
	shared.BaseEntity
	ProductID         string          `json:"product_id"`
	WarehouseID       string          `json:"warehouse_id"`
	Sequence          int64           `json:"sequence"` // Append order within the key, breaks purchase date ties
	PurchaseDate      time.Time       `json:"purchase_date"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	BatchNumber       string          `json:"batch_number,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
}

// NewCostLayer creates a new, untouched cost layer
func NewCostLayer(
	productID, warehouseID string,
	quantity, unitCost decimal.Decimal,
	purchaseDate time.Time,
	batch *BatchInfo,
) (*CostLayer, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: receipt quantity %s", shared.ErrInvalidQuantity, quantity.String())
	}

	layer := &CostLayer{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		PurchaseDate:      purchaseDate,
		OriginalQuantity:  quantity,
		RemainingQuantity: quantity,
		UnitCost:          unitCost,
	}
	if batch != nil {
		layer.BatchNumber = batch.BatchNumber
		layer.ExpiryDate = batch.ExpiryDate
	}

	if err := layer.Validate(); err != nil {
		return nil, err
	}
	return layer, nil
}

// Validate checks the layer attributes and the 0 ≤ remaining ≤ original invariant
func (l *CostLayer) Validate() error {
	if l.ProductID == "" {
		return fmt.Errorf("%w: cost layer product id is required", shared.ErrInvalidInput)
	}
	if l.WarehouseID == "" {
		return fmt.Errorf("%w: cost layer warehouse id is required", shared.ErrInvalidInput)
	}
	if l.OriginalQuantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: original quantity %s", shared.ErrInvalidQuantity, l.OriginalQuantity.String())
	}
	if l.RemainingQuantity.IsNegative() || l.RemainingQuantity.GreaterThan(l.OriginalQuantity) {
		return fmt.Errorf("%w: remaining quantity %s outside [0, %s]",
			shared.ErrInvalidQuantity, l.RemainingQuantity.String(), l.OriginalQuantity.String())
	}
	if l.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unit cost cannot be negative", shared.ErrInvalidInput)
	}
	if l.PurchaseDate.IsZero() {
		return fmt.Errorf("%w: purchase date is required", shared.ErrInvalidInput)
	}
	return nil
}

// Key returns the (product, warehouse) key that owns this layer
func (l *CostLayer) Key() LayerKey {
	return NewLayerKey(l.ProductID, l.WarehouseID)
}

// Deduct reduces the remaining quantity. Unlike a partial pick, a deduction
// larger than the remaining quantity is rejected without changing the layer.
func (l *CostLayer) Deduct(quantity decimal.Decimal, at time.Time) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: deduct quantity %s", shared.ErrInvalidQuantity, quantity.String())
	}
	if quantity.GreaterThan(l.RemainingQuantity) {
		return fmt.Errorf("%w: layer %s has %s remaining, %s requested",
			shared.ErrInsufficientStock, l.ID, l.RemainingQuantity.String(), quantity.String())
	}
	l.RemainingQuantity = l.RemainingQuantity.Sub(quantity)
	l.UpdatedAt = at
	return nil
}

// HasStock returns true if the layer has remaining quantity
func (l *CostLayer) HasStock() bool {
	return l.RemainingQuantity.GreaterThan(decimal.Zero)
}

// IsDepleted returns true once every unit of the layer has been consumed
func (l *CostLayer) IsDepleted() bool {
	return !l.HasStock()
}

// ConsumedQuantity returns original minus remaining
func (l *CostLayer) ConsumedQuantity() decimal.Decimal {
	return l.OriginalQuantity.Sub(l.RemainingQuantity)
}

// Value returns remaining × unit cost
func (l *CostLayer) Value() decimal.Decimal {
	return l.RemainingQuantity.Mul(l.UnitCost)
}

// IsExpiredAt returns true if the layer has an expiry date at or before t
func (l *CostLayer) IsExpiredAt(t time.Time) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return !l.ExpiryDate.After(t)
}

// WillExpireWithin returns true if the layer expires before now + window
func (l *CostLayer) WillExpireWithin(now time.Time, window time.Duration) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(now.Add(window))
}

// DaysUntilExpiry returns whole days until expiry, -1 if no expiry date
func (l *CostLayer) DaysUntilExpiry(now time.Time) int {
	if l.ExpiryDate == nil {
		return -1
	}
	return int(l.ExpiryDate.Sub(now).Hours() / 24)
}

// ToEntry converts the layer into the cost strategy view
func (l *CostLayer) ToEntry() strategy.LayerEntry {
	return strategy.LayerEntry{
		LayerID:      l.ID,
		Sequence:     l.Sequence,
		PurchaseDate: l.PurchaseDate,
		Remaining:    l.RemainingQuantity,
		UnitCost:     l.UnitCost,
	}
}

// Clone returns a deep copy of the layer
func (l *CostLayer) Clone() CostLayer {
	c := *l
	if l.ExpiryDate != nil {
		expiry := *l.ExpiryDate
		c.ExpiryDate = &expiry
	}
	return c
}

// LayerEntries converts layers into cost strategy entries
func LayerEntries(layers []CostLayer) []strategy.LayerEntry {
	entries := make([]strategy.LayerEntry, len(layers))
	for i := range layers {
		entries[i] = layers[i].ToEntry()
	}
	return entries
}

// EnsureID assigns a fresh ID to a layer coming from seed data without one
func (l *CostLayer) EnsureID() {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.PurchaseDate
		l.UpdatedAt = l.PurchaseDate
	}
}
