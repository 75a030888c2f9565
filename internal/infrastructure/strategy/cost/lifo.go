package cost

import (
	"context"

	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// LIFOCostStrategy implements Last-In-First-Out cost calculation
type LIFOCostStrategy struct {
	strategy.BaseStrategy
}

// NewLIFOCostStrategy creates a new LIFO cost strategy
func NewLIFOCostStrategy() *LIFOCostStrategy {
	return &LIFOCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"lifo",
			strategy.StrategyTypeCost,
			"Last-In-First-Out cost calculation",
		),
	}
}

// Method returns the costing method
func (s *LIFOCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodLIFO
}

// CalculateCost calculates the cost using LIFO method (newest layers first)
func (s *LIFOCostStrategy) CalculateCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	entries []strategy.LayerEntry,
) (strategy.CostResult, error) {
	return layerWalkCost(strategy.CostMethodLIFO, newestFirst, costCtx, entries)
}

// CalculateAverageCost calculates the weighted average cost (for reporting)
func (s *LIFOCostStrategy) CalculateAverageCost(
	ctx context.Context,
	entries []strategy.LayerEntry,
) (decimal.Decimal, error) {
	return weightedAverage(entries), nil
}

var _ strategy.CostCalculationStrategy = (*LIFOCostStrategy)(nil)
