package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostStrategyProvider resolves the cost strategy for a costing method
type CostStrategyProvider interface {
	// GetCostStrategy returns the strategy for method; an empty method selects the default
	GetCostStrategy(method strategy.CostMethod) (strategy.CostCalculationStrategy, error)
}

// Ledger owns the cost layers of every (product, warehouse) pair.
// Mutations of one key are serialized; reads of a key share its read lock and
// receive copies.
type Ledger struct {
	store            inventory.CostLayerStore
	strategyProvider CostStrategyProvider
	logger           *zap.Logger
	eventPublisher   shared.EventPublisher
	metrics          *telemetry.EngineMetrics
	now              func() time.Time

	locksMu sync.Mutex
	locks   map[inventory.LayerKey]*sync.RWMutex
}

// NewLedger creates a new Ledger
func NewLedger(store inventory.CostLayerStore, strategyProvider CostStrategyProvider, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:            store,
		strategyProvider: strategyProvider,
		logger:           logger,
		now:              time.Now,
		locks:            make(map[inventory.LayerKey]*sync.RWMutex),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (l *Ledger) SetEventPublisher(publisher shared.EventPublisher) {
	l.eventPublisher = publisher
}

// SetEngineMetrics sets the metrics recorder (optional)
func (l *Ledger) SetEngineMetrics(metrics *telemetry.EngineMetrics) {
	l.metrics = metrics
}

// SetClock overrides the time source used for default purchase dates and deductions
func (l *Ledger) SetClock(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

func (l *Ledger) keyLock(key inventory.LayerKey) *sync.RWMutex {
	l.locksMu.Lock()
	defer l.locksMu.Unlock()
	mu, ok := l.locks[key]
	if !ok {
		mu = &sync.RWMutex{}
		l.locks[key] = mu
	}
	return mu
}

func (l *Ledger) publish(ctx context.Context, events ...shared.DomainEvent) {
	if l.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = l.eventPublisher.Publish(ctx, events...)
}

// Receive appends a new cost layer with remaining = quantity
func (l *Ledger) Receive(ctx context.Context, req ReceiveRequest) (*inventory.CostLayer, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "receive",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID),
		telemetry.WithAttribute(telemetry.SpanAttrWarehouseID, req.WarehouseID),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	purchaseDate := req.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = l.now()
	}

	layer, err := inventory.NewCostLayer(req.ProductID, req.WarehouseID, req.Quantity, req.UnitCost, purchaseDate, req.batchInfo())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	mu := l.keyLock(layer.Key())
	mu.Lock()
	stored, err := l.store.Append(*layer)
	mu.Unlock()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	l.logger.Debug("Cost layer received",
		zap.String("layer_id", stored.ID.String()),
		zap.String("product_id", stored.ProductID),
		zap.String("warehouse_id", stored.WarehouseID),
		zap.String("quantity", stored.OriginalQuantity.String()),
		zap.String("unit_cost", stored.UnitCost.String()),
	)

	l.metrics.RecordReceipt(ctx, stored.WarehouseID)
	l.publish(ctx, inventory.NewCostLayerReceivedEvent(&stored))
	return &stored, nil
}

// Consume removes quantity from the key's layers using method and returns the
// cost. The consumption is all-or-nothing: on ErrInsufficientStock the layers
// are unchanged.
func (l *Ledger) Consume(
	ctx context.Context,
	productID, warehouseID string,
	quantity decimal.Decimal,
	method strategy.CostMethod,
) (*ConsumptionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "consume",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID),
		telemetry.WithAttribute(telemetry.SpanAttrWarehouseID, warehouseID),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, quantity),
	)
	defer span.End()

	if quantity.LessThanOrEqual(decimal.Zero) {
		err := fmt.Errorf("%w: consume quantity %s", shared.ErrInvalidQuantity, quantity.String())
		telemetry.RecordError(span, err)
		return nil, err
	}

	costStrategy, err := l.strategyProvider.GetCostStrategy(method)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCostMethod, costStrategy.Method().String())

	key := inventory.NewLayerKey(productID, warehouseID)
	mu := l.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	layers := l.store.Layers(key)
	result, err := costStrategy.CalculateCost(ctx, strategy.CostContext{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
	}, inventory.LayerEntries(layers))
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			l.metrics.RecordInsufficientStock(ctx, warehouseID)
			l.logger.Info("Consumption rejected",
				zap.String("product_id", productID),
				zap.String("warehouse_id", warehouseID),
				zap.String("quantity", quantity.String()),
				zap.Error(err),
			)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := l.store.ApplyDraws(key, result.Draws, l.now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTotalCost, result.TotalCost,
		telemetry.SpanAttrLayerCount, len(result.Draws),
	)
	l.metrics.RecordConsumption(ctx, result.Method.String(), result.TotalCost)
	l.publish(ctx, inventory.NewCostLayerConsumedEvent(key, result))

	return newConsumptionResult(result), nil
}

// CurrentValue returns the remaining quantity and value of a key's layers
func (l *Ledger) CurrentValue(ctx context.Context, productID, warehouseID string) LayerValue {
	return summarize(l.Layers(ctx, productID, warehouseID))
}

// Layers returns a copy of the key's layers in append order, depleted layers included
func (l *Ledger) Layers(ctx context.Context, productID, warehouseID string) []inventory.CostLayer {
	key := inventory.NewLayerKey(productID, warehouseID)
	mu := l.keyLock(key)
	mu.RLock()
	defer mu.RUnlock()
	return l.store.Layers(key)
}

// ProductLayers returns a copy of the product's layers across all warehouses,
// ordered by purchase date then sequence
func (l *Ledger) ProductLayers(ctx context.Context, productID string) []inventory.CostLayer {
	out := make([]inventory.CostLayer, 0)
	for _, key := range l.store.Keys() {
		if key.ProductID != productID {
			continue
		}
		out = append(out, l.Layers(ctx, key.ProductID, key.WarehouseID)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchaseDate.Before(out[j].PurchaseDate)
	})
	return out
}

// Seed bulk-loads layers from inbound data. Every layer is validated before
// any is stored; layers are appended in purchase date order.
func (l *Ledger) Seed(ctx context.Context, layers []inventory.CostLayer) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "seed",
		telemetry.WithAttribute(telemetry.SpanAttrLayerCount, len(layers)),
	)
	defer span.End()

	pending := make([]inventory.CostLayer, len(layers))
	seen := make(map[string]bool, len(layers))
	for i := range layers {
		layer := layers[i].Clone()
		layer.EnsureID()
		if err := layer.Validate(); err != nil {
			err = fmt.Errorf("seed layer %d: %w", i, err)
			telemetry.RecordError(span, err)
			return 0, err
		}
		if seen[layer.ID.String()] {
			err := fmt.Errorf("seed layer %d: %w: duplicate id %s", i, shared.ErrAlreadyExists, layer.ID)
			telemetry.RecordError(span, err)
			return 0, err
		}
		seen[layer.ID.String()] = true
		pending[i] = layer
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].PurchaseDate.Before(pending[j].PurchaseDate)
	})

	for i, layer := range pending {
		mu := l.keyLock(layer.Key())
		mu.Lock()
		_, err := l.store.Append(layer)
		mu.Unlock()
		if err != nil {
			err = fmt.Errorf("seed layer %s: %w", layer.ID, err)
			telemetry.RecordError(span, err)
			return i, err
		}
	}

	l.logger.Info("Cost layers seeded", zap.Int("count", len(pending)))
	return len(pending), nil
}

// ExpiringLayers returns layers with remaining stock that expire within the window
func (l *Ledger) ExpiringLayers(ctx context.Context, productID, warehouseID string, within time.Duration) []inventory.CostLayer {
	now := l.now()
	out := make([]inventory.CostLayer, 0)
	for _, layer := range l.Layers(ctx, productID, warehouseID) {
		if layer.HasStock() && layer.WillExpireWithin(now, within) {
			out = append(out, layer)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
	})
	return out
}

func summarize(layers []inventory.CostLayer) LayerValue {
	v := LayerValue{Quantity: decimal.Zero, Value: decimal.Zero, AvgUnitCost: decimal.Zero}
	for i := range layers {
		if !layers[i].HasStock() {
			continue
		}
		v.Quantity = v.Quantity.Add(layers[i].RemainingQuantity)
		v.Value = v.Value.Add(layers[i].Value())
		v.LayerCount++
	}
	if v.Quantity.GreaterThan(decimal.Zero) {
		v.AvgUnitCost = v.Value.Div(v.Quantity)
	}
	return v
}
