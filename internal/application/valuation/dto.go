package valuation

import (
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/erp/invengine/internal/domain/shared/valueobject"
	"github.com/erp/invengine/internal/domain/valuation"
	"github.com/shopspring/decimal"
)

// ValuationRequest asks for the valuation of one product
type ValuationRequest struct {
	ProductID   string                   `json:"product_id" validate:"required"`
	WarehouseID string                   `json:"warehouse_id,omitempty"` // Empty means all warehouses
	Method      strategy.CostMethod      `json:"method,omitempty"`       // Empty means the configured default
	UnitsSold   decimal.Decimal          `json:"units_sold" validate:"gte=0"`
	Previous    *valuation.PriorSnapshot `json:"previous,omitempty"`
}

// ValuationFailure records a request that could not be valued
type ValuationFailure struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id,omitempty"`
	Code        string `json:"code"`
	Error       string `json:"error"`
}

// ValuationResponse is the rounded output form of a Valuation
type ValuationResponse struct {
	ProductID       string              `json:"product_id"`
	WarehouseID     string              `json:"warehouse_id,omitempty"`
	Method          strategy.CostMethod `json:"method"`
	TotalQuantity   decimal.Decimal     `json:"total_quantity"`
	TotalValue      valueobject.Money   `json:"total_value"`
	AvgUnitCost     valueobject.Money   `json:"avg_unit_cost"`
	LayerCount      int                 `json:"layer_count"`
	UnitsSold       decimal.Decimal     `json:"units_sold"`
	COGS            valueobject.Money   `json:"cogs"`
	COGSShortfall   decimal.Decimal     `json:"cogs_shortfall"`
	TurnoverRatio   decimal.Decimal     `json:"turnover_ratio"`
	DaysInInventory inventory.Days      `json:"days_in_inventory"`
	PreviousValue   *valueobject.Money  `json:"previous_value,omitempty"`
	Variance        valueobject.Money   `json:"variance"`
	VariancePercent decimal.Decimal     `json:"variance_percent"`
	ValuedAt        time.Time           `json:"valued_at"`
}

// ToValuationResponse rounds a valuation for output
func ToValuationResponse(v *valuation.Valuation, currency valueobject.Currency) ValuationResponse {
	resp := ValuationResponse{
		ProductID:       v.ProductID,
		WarehouseID:     v.WarehouseID,
		Method:          v.Method,
		TotalQuantity:   v.TotalQuantity,
		TotalValue:      valueobject.Rounded(v.TotalValue, currency),
		AvgUnitCost:     valueobject.Rounded(v.AvgUnitCost, currency),
		LayerCount:      v.LayerCount,
		UnitsSold:       v.UnitsSold,
		COGS:            valueobject.Rounded(v.COGS, currency),
		COGSShortfall:   v.COGSShortfall,
		TurnoverRatio:   v.TurnoverRatio.Round(4),
		DaysInInventory: v.DaysInInventory,
		Variance:        valueobject.Rounded(v.Variance, currency),
		VariancePercent: v.VariancePercent.Round(valueobject.OutputPlaces),
		ValuedAt:        v.ValuedAt,
	}
	if v.PreviousValue != nil {
		prev := valueobject.Rounded(*v.PreviousValue, currency)
		resp.PreviousValue = &prev
	}
	return resp
}
