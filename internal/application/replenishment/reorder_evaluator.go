package replenishment

import (
	"fmt"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExcessPolicy selects how overstock is detected
type ExcessPolicy string

const (
	// ExcessPolicyReorderMultiple flags onHand > reorderPoint × multiplier
	ExcessPolicyReorderMultiple ExcessPolicy = "reorder_multiple"
	// ExcessPolicyMaxStockLevel flags onHand > maxStockLevel when a max is set
	ExcessPolicyMaxStockLevel ExcessPolicy = "max_stock_level"
)

// IsValid returns true if the policy is known
func (p ExcessPolicy) IsValid() bool {
	return p == ExcessPolicyReorderMultiple || p == ExcessPolicyMaxStockLevel
}

// EvaluatorConfig holds the thresholds of the reorder evaluator
type EvaluatorConfig struct {
	LeadTimeBufferMultiplier decimal.Decimal
	ExcessPolicy             ExcessPolicy
	ExcessMultiplier         decimal.Decimal
}

// DefaultEvaluatorConfig returns a 1.5× lead time buffer and a 5× reorder point excess rule
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		LeadTimeBufferMultiplier: decimal.NewFromFloat(1.5),
		ExcessPolicy:             ExcessPolicyReorderMultiple,
		ExcessMultiplier:         decimal.NewFromInt(5),
	}
}

// Validate checks the configuration
func (c EvaluatorConfig) Validate() error {
	if c.LeadTimeBufferMultiplier.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: lead time buffer multiplier must be at least 1", shared.ErrInvalidInput)
	}
	if !c.ExcessPolicy.IsValid() {
		return fmt.Errorf("%w: unknown excess policy %q", shared.ErrInvalidInput, c.ExcessPolicy)
	}
	if c.ExcessMultiplier.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: excess multiplier must be positive", shared.ErrInvalidInput)
	}
	return nil
}

// Evaluation is the status derived for one inventory item
type Evaluation struct {
	Status       inventory.StockStatus `json:"status"`
	DaysOfSupply inventory.Days        `json:"days_of_supply"`
}

// ReorderEvaluator classifies inventory items. It is stateless.
type ReorderEvaluator struct {
	config EvaluatorConfig
}

// NewReorderEvaluator creates a new ReorderEvaluator
func NewReorderEvaluator(config EvaluatorConfig) (*ReorderEvaluator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ReorderEvaluator{config: config}, nil
}

// Config returns the evaluator configuration
func (e *ReorderEvaluator) Config() EvaluatorConfig {
	return e.config
}

// Evaluate applies the status rules in order; the first match wins.
// Stockout risk takes precedence over overstock.
func (e *ReorderEvaluator) Evaluate(item *inventory.InventoryItem, leadTimeDays decimal.Decimal) Evaluation {
	daysOfSupply := item.DaysOfSupply()
	result := Evaluation{DaysOfSupply: daysOfSupply}

	switch {
	case !item.IsTracked():
		result.Status = inventory.StockStatusUntracked
	case item.IsOutOfStock():
		result.Status = inventory.StockStatusCritical
	case daysOfSupply.LessThan(leadTimeDays):
		result.Status = inventory.StockStatusCritical
	case daysOfSupply.LessThan(leadTimeDays.Mul(e.config.LeadTimeBufferMultiplier)):
		result.Status = inventory.StockStatusLow
	case e.isExcess(item):
		result.Status = inventory.StockStatusExcess
	default:
		result.Status = inventory.StockStatusAdequate
	}
	return result
}

func (e *ReorderEvaluator) isExcess(item *inventory.InventoryItem) bool {
	switch e.config.ExcessPolicy {
	case ExcessPolicyMaxStockLevel:
		return item.MaxStockLevel.GreaterThan(decimal.Zero) && item.OnHandQuantity.GreaterThan(item.MaxStockLevel)
	default:
		return item.OnHandQuantity.GreaterThan(item.ReorderPoint.Mul(e.config.ExcessMultiplier))
	}
}
