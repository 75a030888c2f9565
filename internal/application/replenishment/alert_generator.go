package replenishment

import (
	"context"
	"time"

	"github.com/erp/invengine/internal/domain/catalog"
	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/partner"
	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Diagnostic reasons for skipped items
const (
	DiagnosticInvalidItem    = "invalid_item"
	DiagnosticUnknownProduct = "unknown_product"
	DiagnosticDuplicateItem  = "duplicate_item"
)

// ItemValidator validates struct tags of snapshot records
type ItemValidator interface {
	Struct(s interface{}) error
}

// ItemDiagnostic explains why an inventory item produced no alert
type ItemDiagnostic struct {
	InventoryItemID string `json:"inventory_item_id"`
	ProductID       string `json:"product_id,omitempty"`
	WarehouseID     string `json:"warehouse_id,omitempty"`
	Reason          string `json:"reason"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message"`
}

// GenerationResult holds the alerts of one run and the items skipped along the way
type GenerationResult struct {
	Alerts      []*replenishment.LowStockAlert `json:"alerts"`
	Diagnostics []ItemDiagnostic               `json:"diagnostics"`
}

// SkippedItemIDs returns the distinct non-empty item IDs that were skipped with a diagnostic
func (r GenerationResult) SkippedItemIDs() []string {
	ids := make([]string, 0, len(r.Diagnostics))
	seen := make(map[string]bool, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.InventoryItemID == "" || seen[d.InventoryItemID] {
			continue
		}
		seen[d.InventoryItemID] = true
		ids = append(ids, d.InventoryItemID)
	}
	return ids
}

// AlertGenerator turns inventory snapshots into low stock alerts.
// Alerts are regenerated wholesale on every call.
type AlertGenerator struct {
	evaluator *ReorderEvaluator
	catalog   catalog.Catalog
	suppliers partner.SupplierDirectory
	validator ItemValidator
	logger    *zap.Logger
	metrics   *telemetry.EngineMetrics
	now       func() time.Time
}

// NewAlertGenerator creates a new AlertGenerator
func NewAlertGenerator(
	evaluator *ReorderEvaluator,
	products catalog.Catalog,
	suppliers partner.SupplierDirectory,
	logger *zap.Logger,
) *AlertGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertGenerator{
		evaluator: evaluator,
		catalog:   products,
		suppliers: suppliers,
		logger:    logger,
		now:       time.Now,
	}
}

// SetValidator sets the struct validator applied to every item (optional)
func (g *AlertGenerator) SetValidator(v ItemValidator) {
	g.validator = v
}

// SetEngineMetrics sets the metrics recorder (optional)
func (g *AlertGenerator) SetEngineMetrics(metrics *telemetry.EngineMetrics) {
	g.metrics = metrics
}

// SetClock overrides the time source used for alert timestamps
func (g *AlertGenerator) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// GenerateAlerts evaluates every item and emits one alert per critical or low
// item. Malformed items are skipped with a diagnostic.
func (g *AlertGenerator) GenerateAlerts(ctx context.Context, items []inventory.InventoryItem) GenerationResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "alerts", "generate",
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(items)),
	)
	defer span.End()

	now := g.now()
	result := GenerationResult{
		Alerts:      make([]*replenishment.LowStockAlert, 0),
		Diagnostics: make([]ItemDiagnostic, 0),
	}
	seen := make(map[string]bool, len(items))

	for i := range items {
		item := &items[i]

		if g.validator != nil {
			if err := g.validator.Struct(item); err != nil {
				result.Diagnostics = append(result.Diagnostics, diagnostic(item, DiagnosticInvalidItem, err))
				continue
			}
		}
		if seen[item.ID] {
			result.Diagnostics = append(result.Diagnostics, ItemDiagnostic{
				InventoryItemID: item.ID,
				ProductID:       item.ProductID,
				WarehouseID:     item.WarehouseID,
				Reason:          DiagnosticDuplicateItem,
				Message:         "inventory item appears more than once in the snapshot",
			})
			continue
		}
		seen[item.ID] = true

		product, ok := g.catalog.Product(item.ProductID)
		if !ok {
			result.Diagnostics = append(result.Diagnostics, ItemDiagnostic{
				InventoryItemID: item.ID,
				ProductID:       item.ProductID,
				WarehouseID:     item.WarehouseID,
				Reason:          DiagnosticUnknownProduct,
				Code:            shared.ErrNotFound.Code,
				Message:         "product not in catalog",
			})
			continue
		}

		resolved := *item
		resolved.ResolveTracking(product.TrackInventory)

		supplierID := product.PreferredSupplier()
		evaluation := g.evaluator.Evaluate(&resolved, g.leadTime(supplierID))
		if !evaluation.Status.NeedsReplenishment() {
			continue
		}

		result.Alerts = append(result.Alerts, newAlert(&resolved, product, supplierID, evaluation, now))
	}

	for _, d := range result.Diagnostics {
		g.logger.Warn("Inventory item skipped",
			zap.String("inventory_item_id", d.InventoryItemID),
			zap.String("reason", d.Reason),
			zap.String("message", d.Message),
		)
		g.metrics.RecordDiagnostics(ctx, d.Reason, 1)
	}
	g.recordSeverities(ctx, result.Alerts)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAlertCount, len(result.Alerts),
		"diagnostic_count", len(result.Diagnostics),
	)
	return result
}

// leadTime returns the supplier lead time, zero when the supplier cannot be resolved
func (g *AlertGenerator) leadTime(supplierID string) decimal.Decimal {
	supplier, err := partner.ResolveSupplier(g.suppliers, supplierID)
	if err != nil {
		g.logger.Debug("Lead time unavailable", zap.String("supplier_id", supplierID), zap.Error(err))
		return decimal.Zero
	}
	return supplier.LeadTime()
}

func (g *AlertGenerator) recordSeverities(ctx context.Context, alerts []*replenishment.LowStockAlert) {
	counts := make(map[replenishment.AlertSeverity]int)
	for _, a := range alerts {
		counts[a.Severity]++
	}
	for severity, n := range counts {
		g.metrics.RecordAlertsGenerated(ctx, severity.String(), n)
	}
}

func newAlert(
	item *inventory.InventoryItem,
	product *catalog.Product,
	supplierID string,
	evaluation Evaluation,
	now time.Time,
) *replenishment.LowStockAlert {
	a := replenishment.NewLowStockAlert(item.ID, now)
	a.ProductID = item.ProductID
	a.ProductSKU = product.SKU
	a.WarehouseID = item.WarehouseID
	a.Severity = replenishment.SeverityFor(evaluation.Status)
	a.StockStatus = evaluation.Status
	a.CurrentStock = item.Available()
	a.ReorderPoint = item.ReorderPoint
	a.ShortageQuantity = item.ShortageQuantity()
	a.DaysOfSupply = evaluation.DaysOfSupply
	a.DaysUntilStockout = item.DaysUntilStockout()
	a.SuggestedOrderQuantity = item.SuggestedOrderQuantity()
	a.SuggestedSupplierID = supplierID
	a.UnitCost = product.UnitCost
	a.EstimatedCost = a.SuggestedOrderQuantity.Mul(product.UnitCost)
	return a
}

func diagnostic(item *inventory.InventoryItem, reason string, err error) ItemDiagnostic {
	return ItemDiagnostic{
		InventoryItemID: item.ID,
		ProductID:       item.ProductID,
		WarehouseID:     item.WarehouseID,
		Reason:          reason,
		Code:            shared.ErrorCode(err),
		Message:         err.Error(),
	}
}
