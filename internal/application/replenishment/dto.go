package replenishment

import (
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertResponse is the rounded output form of a LowStockAlert
type AlertResponse struct {
	ID                     uuid.UUID                   `json:"id"`
	InventoryItemID        string                      `json:"inventory_item_id"`
	ProductID              string                      `json:"product_id"`
	ProductSKU             string                      `json:"product_sku"`
	WarehouseID            string                      `json:"warehouse_id"`
	Severity               replenishment.AlertSeverity `json:"severity"`
	StockStatus            inventory.StockStatus       `json:"stock_status"`
	CurrentStock           decimal.Decimal             `json:"current_stock"`
	ReorderPoint           decimal.Decimal             `json:"reorder_point"`
	ShortageQuantity       decimal.Decimal             `json:"shortage_quantity"`
	DaysOfSupply           inventory.Days              `json:"days_of_supply"`
	DaysUntilStockout      inventory.Days              `json:"days_until_stockout"`
	SuggestedOrderQuantity decimal.Decimal             `json:"suggested_order_quantity"`
	SuggestedSupplierID    string                      `json:"suggested_supplier_id,omitempty"`
	UnitCost               valueobject.Money           `json:"unit_cost"`
	EstimatedCost          valueobject.Money           `json:"estimated_cost"`
	Status                 replenishment.AlertStatus   `json:"status"`
	IsRead                 bool                        `json:"is_read"`
	AcknowledgedAt         *time.Time                  `json:"acknowledged_at,omitempty"`
	ResolvedAt             *time.Time                  `json:"resolved_at,omitempty"`
	CreatedAt              time.Time                   `json:"created_at"`
}

// ToAlertResponse rounds an alert for output
func ToAlertResponse(a *replenishment.LowStockAlert, currency valueobject.Currency) AlertResponse {
	return AlertResponse{
		ID:                     a.ID,
		InventoryItemID:        a.InventoryItemID,
		ProductID:              a.ProductID,
		ProductSKU:             a.ProductSKU,
		WarehouseID:            a.WarehouseID,
		Severity:               a.Severity,
		StockStatus:            a.StockStatus,
		CurrentStock:           a.CurrentStock,
		ReorderPoint:           a.ReorderPoint,
		ShortageQuantity:       a.ShortageQuantity,
		DaysOfSupply:           a.DaysOfSupply,
		DaysUntilStockout:      a.DaysUntilStockout,
		SuggestedOrderQuantity: a.SuggestedOrderQuantity,
		SuggestedSupplierID:    a.SuggestedSupplierID,
		UnitCost:               valueobject.Rounded(a.UnitCost, currency),
		EstimatedCost:          valueobject.Rounded(a.EstimatedCost, currency),
		Status:                 a.Status,
		IsRead:                 a.IsRead,
		AcknowledgedAt:         a.AcknowledgedAt,
		ResolvedAt:             a.ResolvedAt,
		CreatedAt:              a.CreatedAt,
	}
}

// ToAlertResponses rounds every alert
func ToAlertResponses(alerts []*replenishment.LowStockAlert, currency valueobject.Currency) []AlertResponse {
	out := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = ToAlertResponse(a, currency)
	}
	return out
}

// SuggestionLineResponse is the rounded output form of a SuggestionLine
type SuggestionLineResponse struct {
	AlertID         uuid.UUID                   `json:"alert_id"`
	InventoryItemID string                      `json:"inventory_item_id"`
	ProductID       string                      `json:"product_id"`
	ProductSKU      string                      `json:"product_sku"`
	Quantity        decimal.Decimal             `json:"quantity"`
	UnitCost        valueobject.Money           `json:"unit_cost"`
	LineTotal       valueobject.Money           `json:"line_total"`
	Urgency         replenishment.AlertSeverity `json:"urgency"`
	Urgent          bool                        `json:"urgent"`
	Note            string                      `json:"note,omitempty"`
}

// SuggestionResponse is the rounded output form of a PurchaseOrderSuggestion.
// Totals are rounded independently of the lines.
type SuggestionResponse struct {
	ID                         uuid.UUID                `json:"id"`
	SupplierID                 string                   `json:"supplier_id"`
	SupplierName               string                   `json:"supplier_name"`
	WarehouseID                string                   `json:"warehouse_id"`
	Lines                      []SuggestionLineResponse `json:"lines"`
	Subtotal                   valueobject.Money        `json:"subtotal"`
	Tax                        valueobject.Money        `json:"tax"`
	Shipping                   valueobject.Money        `json:"shipping"`
	Total                      valueobject.Money        `json:"total"`
	EstimatedDeliveryDate      time.Time                `json:"estimated_delivery_date"`
	ConsolidationOpportunities int                      `json:"consolidation_opportunities"`
	HasUrgentLines             bool                     `json:"has_urgent_lines"`
	GeneratedAt                time.Time                `json:"generated_at"`
}

// ToSuggestionResponse rounds a suggestion for output
func ToSuggestionResponse(s *replenishment.PurchaseOrderSuggestion, currency valueobject.Currency) SuggestionResponse {
	lines := make([]SuggestionLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SuggestionLineResponse{
			AlertID:         l.AlertID,
			InventoryItemID: l.InventoryItemID,
			ProductID:       l.ProductID,
			ProductSKU:      l.ProductSKU,
			Quantity:        l.Quantity,
			UnitCost:        valueobject.Rounded(l.UnitCost, currency),
			LineTotal:       valueobject.Rounded(l.LineTotal, currency),
			Urgency:         l.Urgency,
			Urgent:          l.Urgent,
			Note:            l.Note,
		}
	}
	return SuggestionResponse{
		ID:                         s.ID,
		SupplierID:                 s.SupplierID,
		SupplierName:               s.SupplierName,
		WarehouseID:                s.WarehouseID,
		Lines:                      lines,
		Subtotal:                   valueobject.Rounded(s.Subtotal, currency),
		Tax:                        valueobject.Rounded(s.Tax, currency),
		Shipping:                   valueobject.Rounded(s.Shipping, currency),
		Total:                      valueobject.Rounded(s.Total, currency),
		EstimatedDeliveryDate:      s.EstimatedDeliveryDate,
		ConsolidationOpportunities: s.ConsolidationOpportunities,
		HasUrgentLines:             s.HasUrgentLines,
		GeneratedAt:                s.GeneratedAt,
	}
}

// ToSuggestionResponses rounds every suggestion
func ToSuggestionResponses(suggestions []*replenishment.PurchaseOrderSuggestion, currency valueobject.Currency) []SuggestionResponse {
	out := make([]SuggestionResponse, len(suggestions))
	for i, s := range suggestions {
		out[i] = ToSuggestionResponse(s, currency)
	}
	return out
}
