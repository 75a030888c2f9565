package inventory

import (
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeCostLedger = "CostLedger"

// Event type constants
const (
	EventTypeCostLayerReceived = "inventory.cost_layer_received"
	EventTypeCostLayerConsumed = "inventory.cost_layer_consumed"
)

// CostLayerReceivedEvent is raised when a receipt appends a new cost layer
type CostLayerReceivedEvent struct {
	shared.BaseDomainEvent
	LayerID     uuid.UUID       `json:"layer_id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	BatchNumber string          `json:"batch_number,omitempty"`
}

// NewCostLayerReceivedEvent creates a new CostLayerReceivedEvent
func NewCostLayerReceivedEvent(layer *CostLayer) *CostLayerReceivedEvent {
	return &CostLayerReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostLayerReceived, AggregateTypeCostLedger, layer.Key().String()),
		LayerID:         layer.ID,
		ProductID:       layer.ProductID,
		WarehouseID:     layer.WarehouseID,
		Quantity:        layer.OriginalQuantity,
		UnitCost:        layer.UnitCost,
		BatchNumber:     layer.BatchNumber,
	}
}

// CostLayerConsumedEvent is raised when a consumption draws down one or more layers
type CostLayerConsumedEvent struct {
	shared.BaseDomainEvent
	ProductID   string               `json:"product_id"`
	WarehouseID string               `json:"warehouse_id"`
	Method      strategy.CostMethod  `json:"method"`
	Quantity    decimal.Decimal      `json:"quantity"`
	TotalCost   decimal.Decimal      `json:"total_cost"`
	Draws       []strategy.LayerDraw `json:"draws"`
}

// NewCostLayerConsumedEvent creates a new CostLayerConsumedEvent
func NewCostLayerConsumedEvent(key LayerKey, result strategy.CostResult) *CostLayerConsumedEvent {
	return &CostLayerConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostLayerConsumed, AggregateTypeCostLedger, key.String()),
		ProductID:       key.ProductID,
		WarehouseID:     key.WarehouseID,
		Method:          result.Method,
		Quantity:        result.Quantity,
		TotalCost:       result.TotalCost,
		Draws:           result.Draws,
	}
}
