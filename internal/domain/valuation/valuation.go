package valuation

import (
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// DaysPerYear is the period used for days-in-inventory
var DaysPerYear = decimal.NewFromInt(365)

var hundred = decimal.NewFromInt(100)

// PriorSnapshot is a caller-supplied earlier valuation used for variance
type PriorSnapshot struct {
	TotalValue decimal.Decimal `json:"total_value"`
	ValuedAt   time.Time       `json:"valued_at"`
}

// Valuation is the derived value of one product, optionally scoped to one
// warehouse. It is always recomputed from the current layer set.
type Valuation struct {
	ProductID       string              `json:"product_id"`
	WarehouseID     string              `json:"warehouse_id,omitempty"` // Empty means all warehouses
	Method          strategy.CostMethod `json:"method"`
	TotalQuantity   decimal.Decimal     `json:"total_quantity"`
	TotalValue      decimal.Decimal     `json:"total_value"`
	AvgUnitCost     decimal.Decimal     `json:"avg_unit_cost"`
	LayerCount      int                 `json:"layer_count"` // Layers with remaining stock
	UnitsSold       decimal.Decimal     `json:"units_sold"`
	COGS            decimal.Decimal     `json:"cogs"`
	COGSShortfall   decimal.Decimal     `json:"cogs_shortfall"` // Units sold not covered by remaining stock
	TurnoverRatio   decimal.Decimal     `json:"turnover_ratio"`
	DaysInInventory inventory.Days      `json:"days_in_inventory"`
	PreviousValue   *decimal.Decimal    `json:"previous_value,omitempty"`
	Variance        decimal.Decimal     `json:"variance"`
	VariancePercent decimal.Decimal     `json:"variance_percent"`
	ValuedAt        time.Time           `json:"valued_at"`
}

// Variance returns current − previous and the percentage change.
// The percentage is 0 when previous is zero.
func Variance(current, previous decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	variance := current.Sub(previous)
	if previous.IsZero() {
		return variance, decimal.Zero
	}
	return variance, variance.Div(previous).Mul(hundred)
}

// AverageInventoryValue returns (previous + current) / 2 when a prior snapshot
// is present, otherwise current
func AverageInventoryValue(current decimal.Decimal, prior *PriorSnapshot) decimal.Decimal {
	if prior == nil {
		return current
	}
	return prior.TotalValue.Add(current).Div(decimal.NewFromInt(2))
}

// TurnoverRatio returns cogs / average inventory value, 0 when the average is zero
func TurnoverRatio(cogs, avgInventoryValue decimal.Decimal) decimal.Decimal {
	if avgInventoryValue.IsZero() {
		return decimal.Zero
	}
	return cogs.Div(avgInventoryValue)
}

// DaysInInventory returns 365 / turnover, Unbounded when turnover is zero
func DaysInInventory(turnover decimal.Decimal) inventory.Days {
	return inventory.DaysFromRatio(DaysPerYear, turnover)
}
