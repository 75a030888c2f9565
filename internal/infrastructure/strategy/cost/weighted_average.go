package cost

import (
	"context"

	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// WeightedAverageCostStrategy implements weighted average cost calculation
type WeightedAverageCostStrategy struct {
	strategy.BaseStrategy
}

// NewWeightedAverageCostStrategy creates a new weighted average cost strategy
func NewWeightedAverageCostStrategy() *WeightedAverageCostStrategy {
	return &WeightedAverageCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"weighted_average",
			strategy.StrategyTypeCost,
			"Weighted average cost calculation",
		),
	}
}

// Method returns the costing method
func (s *WeightedAverageCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodWeightedAverage
}

// CalculateCost calculates the cost as quantity × current average unit cost
func (s *WeightedAverageCostStrategy) CalculateCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	entries []strategy.LayerEntry,
) (strategy.CostResult, error) {
	return averageCost(strategy.CostMethodWeightedAverage, costCtx, entries)
}

// CalculateAverageCost calculates the weighted average cost
func (s *WeightedAverageCostStrategy) CalculateAverageCost(
	ctx context.Context,
	entries []strategy.LayerEntry,
) (decimal.Decimal, error) {
	return weightedAverage(entries), nil
}

var _ strategy.CostCalculationStrategy = (*WeightedAverageCostStrategy)(nil)

// SpecificIdentificationCostStrategy values consumption at the current average
// unit cost, like weighted average. It exists as its own strategy so callers
// can select and report the method by name.
type SpecificIdentificationCostStrategy struct {
	strategy.BaseStrategy
}

// NewSpecificIdentificationCostStrategy creates a new specific identification cost strategy
func NewSpecificIdentificationCostStrategy() *SpecificIdentificationCostStrategy {
	return &SpecificIdentificationCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"specific_identification",
			strategy.StrategyTypeCost,
			"Specific identification cost calculation (average-priced)",
		),
	}
}

// Method returns the costing method
func (s *SpecificIdentificationCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodSpecific
}

// CalculateCost calculates the cost as quantity × current average unit cost
func (s *SpecificIdentificationCostStrategy) CalculateCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	entries []strategy.LayerEntry,
) (strategy.CostResult, error) {
	return averageCost(strategy.CostMethodSpecific, costCtx, entries)
}

// CalculateAverageCost calculates the weighted average cost
func (s *SpecificIdentificationCostStrategy) CalculateAverageCost(
	ctx context.Context,
	entries []strategy.LayerEntry,
) (decimal.Decimal, error) {
	return weightedAverage(entries), nil
}

var _ strategy.CostCalculationStrategy = (*SpecificIdentificationCostStrategy)(nil)
