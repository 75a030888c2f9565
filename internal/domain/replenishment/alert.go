package replenishment

import (
	"fmt"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeLowStockAlert is the aggregate type of alert events
const AggregateTypeLowStockAlert = "LowStockAlert"

// alertNamespace scopes the name-based alert IDs
var alertNamespace = uuid.MustParse("6f1c2a7e-4b0d-5e39-9a61-3c8e2d7b5f10")

// AlertID returns the deterministic ID of the alert for an inventory item
func AlertID(inventoryItemID string) uuid.UUID {
	return uuid.NewSHA1(alertNamespace, []byte(inventoryItemID))
}

// AlertSeverity classifies how urgent an alert is
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityWarning  AlertSeverity = "warning"
)

// String returns the string representation of the severity
func (s AlertSeverity) String() string {
	return string(s)
}

// SeverityFor maps an evaluator status to an alert severity
func SeverityFor(status inventory.StockStatus) AlertSeverity {
	if status == inventory.StockStatusCritical {
		return AlertSeverityCritical
	}
	return AlertSeverityWarning
}

// AlertStatus is the workflow state of an alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// String returns the string representation of the status
func (s AlertStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is known
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a transition to the target status is allowed.
// Resolved is terminal.
func (s AlertStatus) CanTransitionTo(target AlertStatus) bool {
	switch s {
	case AlertStatusActive:
		return target == AlertStatusAcknowledged || target == AlertStatusResolved
	case AlertStatusAcknowledged:
		return target == AlertStatusResolved
	default:
		return false
	}
}

// IsOpen returns true for active and acknowledged alerts
func (s AlertStatus) IsOpen() bool {
	return s == AlertStatusActive || s == AlertStatusAcknowledged
}

// LowStockAlert is a derived replenishment alert for one inventory item.
// Alert bodies are regenerated on every run; only the workflow fields
// (status, timestamps, read flag) persist through AlertState.
type LowStockAlert struct {
	shared.BaseAggregateRoot
	InventoryItemID        string                `json:"inventory_item_id"`
	ProductID              string                `json:"product_id"`
	ProductSKU             string                `json:"product_sku"`
	WarehouseID            string                `json:"warehouse_id"`
	Severity               AlertSeverity         `json:"severity"`
	StockStatus            inventory.StockStatus `json:"stock_status"`
	CurrentStock           decimal.Decimal       `json:"current_stock"`
	ReorderPoint           decimal.Decimal       `json:"reorder_point"`
	ShortageQuantity       decimal.Decimal       `json:"shortage_quantity"`
	DaysOfSupply           inventory.Days        `json:"days_of_supply"`
	DaysUntilStockout      inventory.Days        `json:"days_until_stockout"`
	SuggestedOrderQuantity decimal.Decimal       `json:"suggested_order_quantity"`
	SuggestedSupplierID    string                `json:"suggested_supplier_id,omitempty"`
	UnitCost               decimal.Decimal       `json:"unit_cost"`
	EstimatedCost          decimal.Decimal       `json:"estimated_cost"`
	Status                 AlertStatus           `json:"status"`
	IsRead                 bool                  `json:"is_read"`
	AcknowledgedAt         *time.Time            `json:"acknowledged_at,omitempty"`
	ResolvedAt             *time.Time            `json:"resolved_at,omitempty"`
}

// NewLowStockAlert creates an active alert with an ID derived from the inventory item
func NewLowStockAlert(inventoryItemID string, at time.Time) *LowStockAlert {
	return &LowStockAlert{
		BaseAggregateRoot: shared.NewBaseAggregateRootFrom(shared.BaseEntity{
			ID:        AlertID(inventoryItemID),
			CreatedAt: at,
			UpdatedAt: at,
		}),
		InventoryItemID: inventoryItemID,
		Status:          AlertStatusActive,
	}
}

// IsOpen returns true if the alert is not resolved
func (a *LowStockAlert) IsOpen() bool {
	return a.Status.IsOpen()
}

// Acknowledge moves an active alert to acknowledged. Acknowledging an
// acknowledged alert is a no-op; acknowledging a resolved alert fails.
func (a *LowStockAlert) Acknowledge(at time.Time) error {
	if a.Status == AlertStatusAcknowledged {
		return nil
	}
	if !a.Status.CanTransitionTo(AlertStatusAcknowledged) {
		return fmt.Errorf("%w: cannot acknowledge alert in %s status", shared.ErrInvalidState, a.Status)
	}

	a.Status = AlertStatusAcknowledged
	if a.AcknowledgedAt == nil {
		a.AcknowledgedAt = &at
	}
	a.UpdatedAt = at
	a.IncrementVersion()

	a.AddDomainEvent(NewAlertAcknowledgedEvent(a))
	return nil
}

// Resolve moves an open alert to resolved. Resolving a resolved alert is a no-op.
func (a *LowStockAlert) Resolve(at time.Time) error {
	if a.Status == AlertStatusResolved {
		return nil
	}
	if !a.Status.CanTransitionTo(AlertStatusResolved) {
		return fmt.Errorf("%w: cannot resolve alert in %s status", shared.ErrInvalidState, a.Status)
	}

	a.Status = AlertStatusResolved
	if a.ResolvedAt == nil {
		a.ResolvedAt = &at
	}
	a.UpdatedAt = at
	a.IncrementVersion()

	a.AddDomainEvent(NewAlertResolvedEvent(a))
	return nil
}

// MarkRead flags the alert as read. Independent of the workflow status.
func (a *LowStockAlert) MarkRead() {
	a.IsRead = true
}

// State returns the persistable workflow state of the alert
func (a *LowStockAlert) State() AlertState {
	return AlertState{
		InventoryItemID: a.InventoryItemID,
		AlertID:         a.ID,
		Status:          a.Status,
		IsRead:          a.IsRead,
		AcknowledgedAt:  copyTime(a.AcknowledgedAt),
		ResolvedAt:      copyTime(a.ResolvedAt),
		UpdatedAt:       a.UpdatedAt,
	}
}

// ApplyState carries persisted workflow state onto a freshly generated alert
func (a *LowStockAlert) ApplyState(state AlertState) {
	if state.Status.IsValid() {
		a.Status = state.Status
	}
	a.IsRead = state.IsRead
	a.AcknowledgedAt = copyTime(state.AcknowledgedAt)
	a.ResolvedAt = copyTime(state.ResolvedAt)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
