package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/erp/invengine/internal/domain/valuation"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LayerSource provides read-only copies of cost layers
type LayerSource interface {
	Layers(ctx context.Context, productID, warehouseID string) []inventory.CostLayer
	ProductLayers(ctx context.Context, productID string) []inventory.CostLayer
}

// CostStrategyProvider resolves the cost strategy for a costing method
type CostStrategyProvider interface {
	GetCostStrategy(method strategy.CostMethod) (strategy.CostCalculationStrategy, error)
}

// ValuationService derives valuations from the current layer set. It never
// mutates the ledger and is safe for concurrent use.
type ValuationService struct {
	layers           LayerSource
	strategyProvider CostStrategyProvider
	logger           *zap.Logger
	metrics          *telemetry.EngineMetrics
	now              func() time.Time
}

// NewValuationService creates a new ValuationService
func NewValuationService(layers LayerSource, strategyProvider CostStrategyProvider, logger *zap.Logger) *ValuationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationService{
		layers:           layers,
		strategyProvider: strategyProvider,
		logger:           logger,
		now:              time.Now,
	}
}

// SetEngineMetrics sets the metrics recorder (optional)
func (s *ValuationService) SetEngineMetrics(metrics *telemetry.EngineMetrics) {
	s.metrics = metrics
}

// SetClock overrides the time source used for ValuedAt
func (s *ValuationService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Valuate computes the valuation of one product
func (s *ValuationService) Valuate(ctx context.Context, req ValuationRequest) (v *valuation.Valuation, err error) {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "valuation", "valuate",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID),
		telemetry.WithAttribute(telemetry.SpanAttrWarehouseID, req.WarehouseID),
	)
	defer span.End()

	method := req.Method
	defer func() {
		s.metrics.RecordValuation(ctx, method.String(), time.Since(start), err)
		telemetry.RecordError(span, err)
	}()

	if req.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", shared.ErrInvalidInput)
	}
	if req.UnitsSold.IsNegative() {
		return nil, fmt.Errorf("%w: units sold %s", shared.ErrInvalidQuantity, req.UnitsSold.String())
	}

	costStrategy, err := s.strategyProvider.GetCostStrategy(req.Method)
	if err != nil {
		return nil, err
	}
	method = costStrategy.Method()

	var layers []inventory.CostLayer
	if req.WarehouseID == "" {
		layers = s.layers.ProductLayers(ctx, req.ProductID)
	} else {
		layers = s.layers.Layers(ctx, req.ProductID, req.WarehouseID)
	}

	v = &valuation.Valuation{
		ProductID:     req.ProductID,
		WarehouseID:   req.WarehouseID,
		Method:        method,
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
		AvgUnitCost:   decimal.Zero,
		UnitsSold:     req.UnitsSold,
		COGS:          decimal.Zero,
		COGSShortfall: decimal.Zero,
		ValuedAt:      s.now(),
	}
	for i := range layers {
		if !layers[i].HasStock() {
			continue
		}
		v.TotalQuantity = v.TotalQuantity.Add(layers[i].RemainingQuantity)
		v.TotalValue = v.TotalValue.Add(layers[i].Value())
		v.LayerCount++
	}
	if v.TotalQuantity.GreaterThan(decimal.Zero) {
		v.AvgUnitCost = v.TotalValue.Div(v.TotalQuantity)
	}

	if err := s.computeCOGS(ctx, costStrategy, req, layers, v); err != nil {
		return nil, err
	}

	avgInventory := valuation.AverageInventoryValue(v.TotalValue, req.Previous)
	v.TurnoverRatio = valuation.TurnoverRatio(v.COGS, avgInventory)
	v.DaysInInventory = valuation.DaysInInventory(v.TurnoverRatio)

	if req.Previous != nil {
		prev := req.Previous.TotalValue
		v.PreviousValue = &prev
		v.Variance, v.VariancePercent = valuation.Variance(v.TotalValue, prev)
	} else {
		v.Variance, v.VariancePercent = decimal.Zero, decimal.Zero
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCostMethod, method.String(),
		telemetry.SpanAttrLayerCount, v.LayerCount,
	)
	return v, nil
}

// computeCOGS runs the strategy over the copied layers for the covered part
// of units sold. Units beyond the remaining stock are reported as a shortfall.
func (s *ValuationService) computeCOGS(
	ctx context.Context,
	costStrategy strategy.CostCalculationStrategy,
	req ValuationRequest,
	layers []inventory.CostLayer,
	v *valuation.Valuation,
) error {
	if req.UnitsSold.IsZero() {
		return nil
	}
	covered := decimal.Min(req.UnitsSold, v.TotalQuantity)
	v.COGSShortfall = req.UnitsSold.Sub(covered)
	if v.COGSShortfall.GreaterThan(decimal.Zero) {
		s.logger.Debug("Units sold exceed remaining stock",
			zap.String("product_id", req.ProductID),
			zap.String("units_sold", req.UnitsSold.String()),
			zap.String("remaining", v.TotalQuantity.String()),
		)
	}
	if covered.IsZero() {
		return nil
	}

	result, err := costStrategy.CalculateCost(ctx, strategy.CostContext{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    covered,
	}, inventory.LayerEntries(layers))
	if err != nil {
		return err
	}
	v.COGS = result.TotalCost
	return nil
}

// ValuateAll values every request. Failed requests are reported, not fatal.
func (s *ValuationService) ValuateAll(ctx context.Context, reqs []ValuationRequest) ([]valuation.Valuation, []ValuationFailure) {
	valuations := make([]valuation.Valuation, 0, len(reqs))
	failures := make([]ValuationFailure, 0)
	for _, req := range reqs {
		v, err := s.Valuate(ctx, req)
		if err != nil {
			s.logger.Warn("Valuation failed",
				zap.String("product_id", req.ProductID),
				zap.String("warehouse_id", req.WarehouseID),
				zap.Error(err),
			)
			failures = append(failures, ValuationFailure{
				ProductID:   req.ProductID,
				WarehouseID: req.WarehouseID,
				Code:        shared.ErrorCode(err),
				Error:       err.Error(),
			})
			continue
		}
		valuations = append(valuations, *v)
	}
	return valuations, failures
}
