package replenishment

import (
	"context"
	"sort"
	"time"

	"github.com/erp/invengine/internal/domain/partner"
	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ConsolidationResult holds the suggestions of one run and the alerts left out
type ConsolidationResult struct {
	Suggestions  []*replenishment.PurchaseOrderSuggestion `json:"suggestions"`
	Unassignable []replenishment.UnassignableAlert        `json:"unassignable"`
	// CrossWarehouseSuppliers lists suppliers whose open alerts span more than one warehouse
	CrossWarehouseSuppliers []string `json:"cross_warehouse_suppliers"`
}

// Consolidator groups open alerts into purchase order suggestions, one per
// (supplier, warehouse) pair
type Consolidator struct {
	suppliers partner.SupplierDirectory
	terms     replenishment.SuggestionTerms
	logger    *zap.Logger
	metrics   *telemetry.EngineMetrics
	now       func() time.Time
}

// NewConsolidator creates a new Consolidator
func NewConsolidator(suppliers partner.SupplierDirectory, terms replenishment.SuggestionTerms, logger *zap.Logger) *Consolidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consolidator{
		suppliers: suppliers,
		terms:     terms,
		logger:    logger,
		now:       time.Now,
	}
}

// SetEngineMetrics sets the metrics recorder (optional)
func (c *Consolidator) SetEngineMetrics(metrics *telemetry.EngineMetrics) {
	c.metrics = metrics
}

// SetClock overrides the time source used for delivery estimates
func (c *Consolidator) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

type groupKey struct {
	supplierID  string
	warehouseID string
}

// Consolidate builds suggestions from the active and acknowledged alerts.
// Resolved alerts are ignored. Alerts whose supplier cannot be resolved are
// reported as unassignable. Output is sorted by supplier then warehouse.
func (c *Consolidator) Consolidate(ctx context.Context, alerts []*replenishment.LowStockAlert) ConsolidationResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "suggestions", "consolidate",
		telemetry.WithAttribute(telemetry.SpanAttrAlertCount, len(alerts)),
	)
	defer span.End()

	now := c.now()
	result := ConsolidationResult{
		Suggestions:             make([]*replenishment.PurchaseOrderSuggestion, 0),
		Unassignable:            make([]replenishment.UnassignableAlert, 0),
		CrossWarehouseSuppliers: make([]string, 0),
	}

	resolved := make(map[string]*partner.Supplier)
	groups := make(map[groupKey][]replenishment.SuggestionLine)
	warehouses := make(map[string]map[string]bool)

	for _, a := range alerts {
		if !a.IsOpen() {
			continue
		}

		supplier, ok := resolved[a.SuggestedSupplierID]
		if !ok {
			s, err := partner.ResolveSupplier(c.suppliers, a.SuggestedSupplierID)
			if err != nil {
				result.Unassignable = append(result.Unassignable, replenishment.UnassignableAlert{
					AlertID:         a.ID,
					InventoryItemID: a.InventoryItemID,
					SupplierID:      a.SuggestedSupplierID,
					Reason:          err.Error(),
				})
				continue
			}
			supplier = s
			resolved[a.SuggestedSupplierID] = s
		}

		key := groupKey{supplierID: supplier.ID, warehouseID: a.WarehouseID}
		groups[key] = append(groups[key], replenishment.NewSuggestionLine(a, c.terms))
		if warehouses[supplier.ID] == nil {
			warehouses[supplier.ID] = make(map[string]bool)
		}
		warehouses[supplier.ID][a.WarehouseID] = true
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].supplierID != keys[j].supplierID {
			return keys[i].supplierID < keys[j].supplierID
		}
		return keys[i].warehouseID < keys[j].warehouseID
	})

	for _, k := range keys {
		suggestion := replenishment.NewPurchaseOrderSuggestion(resolved[k.supplierID], k.warehouseID, groups[k], c.terms, now)
		result.Suggestions = append(result.Suggestions, suggestion)
	}

	for supplierID, whs := range warehouses {
		if len(whs) > 1 {
			result.CrossWarehouseSuppliers = append(result.CrossWarehouseSuppliers, supplierID)
		}
	}
	sort.Strings(result.CrossWarehouseSuppliers)

	if len(result.Unassignable) > 0 {
		c.logger.Warn("Alerts could not be assigned to a supplier",
			zap.Int("count", len(result.Unassignable)),
		)
	}
	c.metrics.RecordSuggestions(ctx, len(result.Suggestions), len(result.Unassignable))
	telemetry.SetAttributes(span,
		"suggestion_count", len(result.Suggestions),
		"unassignable_count", len(result.Unassignable),
	)
	return result
}
