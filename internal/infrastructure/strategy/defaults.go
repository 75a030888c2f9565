package strategy

import (
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/erp/invengine/internal/infrastructure/strategy/cost"
)

// NewRegistryWithDefaults creates a registry with every costing method
// registered and FIFO as the default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	return NewRegistryWithDefault(strategy.CostMethodFIFO)
}

// NewRegistryWithDefault creates a registry with every costing method
// registered and defaultMethod selected as the default.
func NewRegistryWithDefault(defaultMethod strategy.CostMethod) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	strategies := []strategy.CostCalculationStrategy{
		cost.NewFIFOCostStrategy(),
		cost.NewLIFOCostStrategy(),
		cost.NewWeightedAverageCostStrategy(),
		cost.NewSpecificIdentificationCostStrategy(),
	}
	for _, s := range strategies {
		if err := r.RegisterCostStrategy(s); err != nil {
			return nil, err
		}
	}

	if err := r.SetDefault(defaultMethod); err != nil {
		return nil, err
	}
	return r, nil
}
