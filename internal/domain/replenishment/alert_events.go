package replenishment

import (
	"time"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeAlertRaised       = "replenishment.alert_raised"
	EventTypeAlertAcknowledged = "replenishment.alert_acknowledged"
	EventTypeAlertResolved     = "replenishment.alert_resolved"
)

// AlertRaisedEvent is raised when an item starts alerting with no prior workflow state
type AlertRaisedEvent struct {
	shared.BaseDomainEvent
	AlertID                uuid.UUID       `json:"alert_id"`
	InventoryItemID        string          `json:"inventory_item_id"`
	ProductID              string          `json:"product_id"`
	WarehouseID            string          `json:"warehouse_id"`
	Severity               AlertSeverity   `json:"severity"`
	CurrentStock           decimal.Decimal `json:"current_stock"`
	ReorderPoint           decimal.Decimal `json:"reorder_point"`
	SuggestedOrderQuantity decimal.Decimal `json:"suggested_order_quantity"`
	SuggestedSupplierID    string          `json:"suggested_supplier_id,omitempty"`
}

// NewAlertRaisedEvent creates a new AlertRaisedEvent
func NewAlertRaisedEvent(a *LowStockAlert) *AlertRaisedEvent {
	return &AlertRaisedEvent{
		BaseDomainEvent:        shared.NewBaseDomainEvent(EventTypeAlertRaised, AggregateTypeLowStockAlert, a.ID.String()),
		AlertID:                a.ID,
		InventoryItemID:        a.InventoryItemID,
		ProductID:              a.ProductID,
		WarehouseID:            a.WarehouseID,
		Severity:               a.Severity,
		CurrentStock:           a.CurrentStock,
		ReorderPoint:           a.ReorderPoint,
		SuggestedOrderQuantity: a.SuggestedOrderQuantity,
		SuggestedSupplierID:    a.SuggestedSupplierID,
	}
}

// AlertAcknowledgedEvent is raised when an alert is acknowledged
type AlertAcknowledgedEvent struct {
	shared.BaseDomainEvent
	AlertID         uuid.UUID `json:"alert_id"`
	InventoryItemID string    `json:"inventory_item_id"`
	AcknowledgedAt  time.Time `json:"acknowledged_at"`
}

// NewAlertAcknowledgedEvent creates a new AlertAcknowledgedEvent
func NewAlertAcknowledgedEvent(a *LowStockAlert) *AlertAcknowledgedEvent {
	e := &AlertAcknowledgedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAlertAcknowledged, AggregateTypeLowStockAlert, a.ID.String()),
		AlertID:         a.ID,
		InventoryItemID: a.InventoryItemID,
	}
	if a.AcknowledgedAt != nil {
		e.AcknowledgedAt = *a.AcknowledgedAt
	}
	return e
}

// AlertResolvedEvent is raised when an alert is resolved
type AlertResolvedEvent struct {
	shared.BaseDomainEvent
	AlertID         uuid.UUID `json:"alert_id"`
	InventoryItemID string    `json:"inventory_item_id"`
	ResolvedAt      time.Time `json:"resolved_at"`
}

// NewAlertResolvedEvent creates a new AlertResolvedEvent
func NewAlertResolvedEvent(a *LowStockAlert) *AlertResolvedEvent {
	e := &AlertResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAlertResolved, AggregateTypeLowStockAlert, a.ID.String()),
		AlertID:         a.ID,
		InventoryItemID: a.InventoryItemID,
	}
	if a.ResolvedAt != nil {
		e.ResolvedAt = *a.ResolvedAt
	}
	return e
}
