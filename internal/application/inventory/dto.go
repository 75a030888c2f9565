package inventory

import (
	"fmt"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// ReceiveRequest describes a stock receipt that creates one cost layer
type ReceiveRequest struct {
	ProductID    string          `json:"product_id"`
	WarehouseID  string          `json:"warehouse_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	PurchaseDate time.Time       `json:"purchase_date"` // Zero means now
	BatchNumber  string          `json:"batch_number,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
}

// Validate checks the request before a layer is built from it
func (r ReceiveRequest) Validate() error {
	if r.ProductID == "" || r.WarehouseID == "" {
		return fmt.Errorf("%w: product id and warehouse id are required", shared.ErrInvalidInput)
	}
	if r.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: receipt quantity %s", shared.ErrInvalidQuantity, r.Quantity.String())
	}
	if r.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unit cost cannot be negative", shared.ErrInvalidInput)
	}
	return nil
}

func (r ReceiveRequest) batchInfo() *inventory.BatchInfo {
	if r.BatchNumber == "" && r.ExpiryDate == nil {
		return nil
	}
	return &inventory.BatchInfo{BatchNumber: r.BatchNumber, ExpiryDate: r.ExpiryDate}
}

// ConsumptionResult is the outcome of a successful consumption
type ConsumptionResult struct {
	Method        strategy.CostMethod  `json:"method"`
	Quantity      decimal.Decimal      `json:"quantity"`
	TotalCost     decimal.Decimal      `json:"total_cost"`
	UnitCost      decimal.Decimal      `json:"unit_cost"` // TotalCost / Quantity
	LayersTouched []strategy.LayerDraw `json:"layers_touched"`
}

func newConsumptionResult(r strategy.CostResult) *ConsumptionResult {
	return &ConsumptionResult{
		Method:        r.Method,
		Quantity:      r.Quantity,
		TotalCost:     r.TotalCost,
		UnitCost:      r.UnitCost,
		LayersTouched: r.Draws,
	}
}

// LayerValue summarizes the layers of one key that still hold stock
type LayerValue struct {
	Quantity    decimal.Decimal `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
	AvgUnitCost decimal.Decimal `json:"avg_unit_cost"`
	LayerCount  int             `json:"layer_count"`
}
