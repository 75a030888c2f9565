package inventory

import (
	"github.com/shopspring/decimal"
)

// InventoryItem is a point-in-time snapshot of one product in one warehouse.
// The engine only derives status from it; stock movements are applied upstream.
type InventoryItem struct {
	ID               string          `json:"id" validate:"required"`
	ProductID        string          `json:"product_id" validate:"required"`
	WarehouseID      string          `json:"warehouse_id" validate:"required"`
	OnHandQuantity   decimal.Decimal `json:"on_hand_quantity" validate:"gte=0"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity" validate:"gte=0"`
	IncomingQuantity decimal.Decimal `json:"incoming_quantity" validate:"gte=0"`
	ReorderPoint     decimal.Decimal `json:"reorder_point" validate:"gte=0"`
	ReorderQuantity  decimal.Decimal `json:"reorder_quantity" validate:"gte=0"`
	SafetyStock      decimal.Decimal `json:"safety_stock" validate:"gte=0"`
	MaxStockLevel    decimal.Decimal `json:"max_stock_level" validate:"gte=0"`
	AvgDailyUsage    decimal.Decimal `json:"avg_daily_usage" validate:"gte=0"`
	TrackInventory   *bool           `json:"track_inventory,omitempty"` // Unset follows the product
}

// IsTracked reports the item-level tracking flag. Unset means tracked.
func (i *InventoryItem) IsTracked() bool {
	return i.TrackInventory == nil || *i.TrackInventory
}

// ResolveTracking fixes the item flag against its product. An untracked
// product untracks every item; otherwise an unset flag becomes tracked.
func (i *InventoryItem) ResolveTracking(productTracks bool) {
	tracked := productTracks && i.IsTracked()
	i.TrackInventory = &tracked
}

// Key returns the (product, warehouse) key of the item
func (i *InventoryItem) Key() LayerKey {
	return NewLayerKey(i.ProductID, i.WarehouseID)
}

// Available returns on-hand minus reserved, floored at zero
func (i *InventoryItem) Available() decimal.Decimal {
	available := i.OnHandQuantity.Sub(i.ReservedQuantity)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// IsOutOfStock returns true if nothing is available
func (i *InventoryItem) IsOutOfStock() bool {
	return i.Available().IsZero()
}

// DaysOfSupply returns available / average daily usage, Unbounded when usage is zero
func (i *InventoryItem) DaysOfSupply() Days {
	return DaysFromRatio(i.Available(), i.AvgDailyUsage)
}

// DaysUntilStockout returns the floor of days of supply
func (i *InventoryItem) DaysUntilStockout() Days {
	return i.DaysOfSupply().Floor()
}

// ShortageQuantity returns max(0, reorderPoint − available)
func (i *InventoryItem) ShortageQuantity() decimal.Decimal {
	shortage := i.ReorderPoint.Sub(i.Available())
	if shortage.IsNegative() {
		return decimal.Zero
	}
	return shortage
}

// SuggestedOrderQuantity returns max(reorderQty, shortage + safetyStock)
func (i *InventoryItem) SuggestedOrderQuantity() decimal.Decimal {
	return decimal.Max(i.ReorderQuantity, i.ShortageQuantity().Add(i.SafetyStock))
}
