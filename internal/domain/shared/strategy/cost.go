package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostMethod represents the inventory costing method
type CostMethod string

const (
	CostMethodFIFO            CostMethod = "fifo"
	CostMethodLIFO            CostMethod = "lifo"
	CostMethodWeightedAverage CostMethod = "weighted_average"
	CostMethodSpecific        CostMethod = "specific_identification"
)

// String returns the string representation of the cost method
func (m CostMethod) String() string {
	return string(m)
}

// IsValid returns true if the cost method is known
func (m CostMethod) IsValid() bool {
	switch m {
	case CostMethodFIFO, CostMethodLIFO, CostMethodWeightedAverage, CostMethodSpecific:
		return true
	default:
		return false
	}
}

// UsesLayerWalk returns true if cost is taken from individual layers in order
// (FIFO/LIFO) instead of the current average
func (m CostMethod) UsesLayerWalk() bool {
	return m == CostMethodFIFO || m == CostMethodLIFO
}

// ParseCostMethod parses a method name. Accepts the aliases used by
// upstream configuration ("average", "moving_average", "specific").
func ParseCostMethod(s string) (CostMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fifo":
		return CostMethodFIFO, nil
	case "lifo":
		return CostMethodLIFO, nil
	case "weighted_average", "average", "moving_average":
		return CostMethodWeightedAverage, nil
	case "specific_identification", "specific":
		return CostMethodSpecific, nil
	default:
		return "", fmt.Errorf("%w: unknown cost method %q", shared.ErrInvalidInput, s)
	}
}

// AllCostMethods returns all valid cost methods
func AllCostMethods() []CostMethod {
	return []CostMethod{
		CostMethodFIFO,
		CostMethodLIFO,
		CostMethodWeightedAverage,
		CostMethodSpecific,
	}
}

// LayerEntry is the read-only view of a cost layer handed to a strategy
type LayerEntry struct {
	LayerID      uuid.UUID
	Sequence     int64 // append order, breaks purchase date ties
	PurchaseDate time.Time
	Remaining    decimal.Decimal
	UnitCost     decimal.Decimal
}

// CostContext provides context for cost calculation
type CostContext struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
}

// LayerDraw is the quantity a calculation takes from a single layer
type LayerDraw struct {
	LayerID        uuid.UUID       `json:"layer_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Cost           decimal.Decimal `json:"cost"`
	RemainingAfter decimal.Decimal `json:"remaining_after"`
}

// CostResult contains the result of cost calculation. Draws describe the
// quantity taken per layer; applying them is the caller's job.
type CostResult struct {
	Method    CostMethod
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
	Draws     []LayerDraw
}

// CostCalculationStrategy defines the interface for inventory cost calculation.
// Implementations never mutate the entries they receive.
type CostCalculationStrategy interface {
	Strategy
	// Method returns the costing method used by this strategy
	Method() CostMethod
	// CalculateCost plans the consumption of costCtx.Quantity from the entries.
	// Returns ErrInsufficientStock when the entries cannot cover the quantity.
	CalculateCost(ctx context.Context, costCtx CostContext, entries []LayerEntry) (CostResult, error)
	// CalculateAverageCost returns Σ(remaining×unitCost)/Σremaining over
	// entries with remaining stock, zero when there is none
	CalculateAverageCost(ctx context.Context, entries []LayerEntry) (decimal.Decimal, error)
}
