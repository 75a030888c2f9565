package replenishment

import (
	"time"

	"github.com/erp/invengine/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// suggestionNamespace scopes the name-based suggestion IDs
var suggestionNamespace = uuid.MustParse("0b7d9e42-18a3-5c6f-8e21-9d4a6b3c7e58")

// SuggestionID returns the deterministic ID of the suggestion for a (supplier, warehouse) group
func SuggestionID(supplierID, warehouseID string) uuid.UUID {
	return uuid.NewSHA1(suggestionNamespace, []byte(supplierID+"|"+warehouseID))
}

// SuggestionTerms are the pricing rules applied to every suggestion
type SuggestionTerms struct {
	TaxRate            decimal.Decimal
	ShippingSurcharge  decimal.Decimal
	UrgentStockoutDays decimal.Decimal // Lines at or under this many days get the urgent note
}

// DefaultSuggestionTerms returns 8% tax, 25 flat shipping and a 2-day urgent threshold
func DefaultSuggestionTerms() SuggestionTerms {
	return SuggestionTerms{
		TaxRate:            decimal.NewFromFloat(0.08),
		ShippingSurcharge:  decimal.NewFromInt(25),
		UrgentStockoutDays: decimal.NewFromInt(2),
	}
}

// SuggestionLine is one alert's contribution to a purchase-order suggestion
type SuggestionLine struct {
	AlertID         uuid.UUID       `json:"alert_id"`
	InventoryItemID string          `json:"inventory_item_id"`
	ProductID       string          `json:"product_id"`
	ProductSKU      string          `json:"product_sku"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LineTotal       decimal.Decimal `json:"line_total"`
	Urgency         AlertSeverity   `json:"urgency"`
	Urgent          bool            `json:"urgent"`
	Note            string          `json:"note,omitempty"`
}

// NewSuggestionLine builds a line from an alert
func NewSuggestionLine(a *LowStockAlert, terms SuggestionTerms) SuggestionLine {
	line := SuggestionLine{
		AlertID:         a.ID,
		InventoryItemID: a.InventoryItemID,
		ProductID:       a.ProductID,
		ProductSKU:      a.ProductSKU,
		Quantity:        a.SuggestedOrderQuantity,
		UnitCost:        a.UnitCost,
		LineTotal:       a.SuggestedOrderQuantity.Mul(a.UnitCost),
		Urgency:         a.Severity,
	}
	if a.DaysUntilStockout.LessThanOrEqual(terms.UrgentStockoutDays) {
		line.Urgent = true
		line.Note = "Urgent: stockout expected within " + terms.UrgentStockoutDays.String() + " days"
	}
	return line
}

// PurchaseOrderSuggestion is an ephemeral order proposal for one supplier and
// warehouse. It is recomputed whenever the alert set changes.
type PurchaseOrderSuggestion struct {
	ID                         uuid.UUID        `json:"id"`
	SupplierID                 string           `json:"supplier_id"`
	SupplierName               string           `json:"supplier_name"`
	WarehouseID                string           `json:"warehouse_id"`
	Lines                      []SuggestionLine `json:"lines"`
	Subtotal                   decimal.Decimal  `json:"subtotal"`
	Tax                        decimal.Decimal  `json:"tax"`
	Shipping                   decimal.Decimal  `json:"shipping"`
	Total                      decimal.Decimal  `json:"total"`
	EstimatedDeliveryDate      time.Time        `json:"estimated_delivery_date"`
	ConsolidationOpportunities int              `json:"consolidation_opportunities"`
	HasUrgentLines             bool             `json:"has_urgent_lines"`
	GeneratedAt                time.Time        `json:"generated_at"`
}

// NewPurchaseOrderSuggestion prices the lines for supplier and warehouse
func NewPurchaseOrderSuggestion(
	supplier *partner.Supplier,
	warehouseID string,
	lines []SuggestionLine,
	terms SuggestionTerms,
	now time.Time,
) *PurchaseOrderSuggestion {
	subtotal := decimal.Zero
	urgent := false
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
		urgent = urgent || l.Urgent
	}

	shipping := terms.ShippingSurcharge
	if supplier.QualifiesForFreeShipping(subtotal) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(terms.TaxRate)

	opportunities := len(lines) - 1
	if opportunities < 0 {
		opportunities = 0
	}

	return &PurchaseOrderSuggestion{
		ID:                         SuggestionID(supplier.ID, warehouseID),
		SupplierID:                 supplier.ID,
		SupplierName:               supplier.Name,
		WarehouseID:                warehouseID,
		Lines:                      lines,
		Subtotal:                   subtotal,
		Tax:                        tax,
		Shipping:                   shipping,
		Total:                      subtotal.Add(tax).Add(shipping),
		EstimatedDeliveryDate:      now.AddDate(0, 0, supplier.LeadTimeDays),
		ConsolidationOpportunities: opportunities,
		HasUrgentLines:             urgent,
		GeneratedAt:                now,
	}
}

// UnassignableAlert is an open alert that could not be placed in any suggestion
type UnassignableAlert struct {
	AlertID         uuid.UUID `json:"alert_id"`
	InventoryItemID string    `json:"inventory_item_id"`
	SupplierID      string    `json:"supplier_id,omitempty"`
	Reason          string    `json:"reason"`
}
