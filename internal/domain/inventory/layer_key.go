package inventory

// LayerKey identifies the ledger of one product in one warehouse
type LayerKey struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
}

// NewLayerKey creates a new LayerKey
func NewLayerKey(productID, warehouseID string) LayerKey {
	return LayerKey{ProductID: productID, WarehouseID: warehouseID}
}

// String returns "product@warehouse"
func (k LayerKey) String() string {
	return k.ProductID + "@" + k.WarehouseID
}

// IsZero returns true if either half of the key is missing
func (k LayerKey) IsZero() bool {
	return k.ProductID == "" || k.WarehouseID == ""
}
