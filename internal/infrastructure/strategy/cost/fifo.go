package cost

import (
	"context"

	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// FIFOCostStrategy implements First-In-First-Out cost calculation
type FIFOCostStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOCostStrategy creates a new FIFO cost strategy
func NewFIFOCostStrategy() *FIFOCostStrategy {
	return &FIFOCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo",
			strategy.StrategyTypeCost,
			"First-In-First-Out cost calculation",
		),
	}
}

// Method returns the costing method
func (s *FIFOCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodFIFO
}

// CalculateCost calculates the cost using FIFO method (oldest layers first)
func (s *FIFOCostStrategy) CalculateCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	entries []strategy.LayerEntry,
) (strategy.CostResult, error) {
	return layerWalkCost(strategy.CostMethodFIFO, oldestFirst, costCtx, entries)
}

// CalculateAverageCost calculates the weighted average cost (for reporting)
func (s *FIFOCostStrategy) CalculateAverageCost(
	ctx context.Context,
	entries []strategy.LayerEntry,
) (decimal.Decimal, error) {
	return weightedAverage(entries), nil
}

var _ strategy.CostCalculationStrategy = (*FIFOCostStrategy)(nil)
