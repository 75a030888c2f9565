package cost

import (
	"fmt"
	"sort"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// layerOrder is the direction of a layer walk
type layerOrder int

const (
	oldestFirst layerOrder = iota
	newestFirst
)

// orderedEntries returns a sorted copy of the entries that still hold stock.
// Ordering is by purchase date, ties broken by append sequence.
func orderedEntries(entries []strategy.LayerEntry, order layerOrder) []strategy.LayerEntry {
	sorted := make([]strategy.LayerEntry, 0, len(entries))
	for _, e := range entries {
		if e.Remaining.GreaterThan(decimal.Zero) {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.PurchaseDate.Equal(b.PurchaseDate) {
			if order == newestFirst {
				return a.PurchaseDate.After(b.PurchaseDate)
			}
			return a.PurchaseDate.Before(b.PurchaseDate)
		}
		if order == newestFirst {
			return a.Sequence > b.Sequence
		}
		return a.Sequence < b.Sequence
	})
	return sorted
}

// totalRemaining sums the remaining quantity of every entry
func totalRemaining(entries []strategy.LayerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Remaining.GreaterThan(decimal.Zero) {
			total = total.Add(e.Remaining)
		}
	}
	return total
}

// weightedAverage computes Σ(remaining×unitCost)/Σremaining over entries with stock
func weightedAverage(entries []strategy.LayerEntry) decimal.Decimal {
	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, e := range entries {
		if e.Remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}
		totalQty = totalQty.Add(e.Remaining)
		totalValue = totalValue.Add(e.Remaining.Mul(e.UnitCost))
	}
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return totalValue.Div(totalQty)
}

// checkRequest validates the requested quantity against the available layers.
// The check runs before any draw is planned so a failure never yields a partial plan.
func checkRequest(costCtx strategy.CostContext, entries []strategy.LayerEntry) error {
	if costCtx.Quantity.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: requested %s", shared.ErrInvalidQuantity, costCtx.Quantity.String())
	}
	available := totalRemaining(entries)
	if available.LessThan(costCtx.Quantity) {
		return fmt.Errorf("%w: requested %s, remaining %s for product %s in warehouse %s",
			shared.ErrInsufficientStock,
			costCtx.Quantity.String(),
			available.String(),
			costCtx.ProductID,
			costCtx.WarehouseID,
		)
	}
	return nil
}

// walkLayers takes min(remaining, stillNeeded) from each layer in order until
// the quantity is covered. Each draw is priced at its own layer's cost.
func walkLayers(quantity decimal.Decimal, ordered []strategy.LayerEntry) ([]strategy.LayerDraw, decimal.Decimal) {
	stillNeeded := quantity
	totalCost := decimal.Zero
	draws := make([]strategy.LayerDraw, 0)

	for _, entry := range ordered {
		if stillNeeded.IsZero() {
			break
		}

		usedQty := decimal.Min(stillNeeded, entry.Remaining)
		drawCost := usedQty.Mul(entry.UnitCost)
		totalCost = totalCost.Add(drawCost)
		stillNeeded = stillNeeded.Sub(usedQty)

		draws = append(draws, strategy.LayerDraw{
			LayerID:        entry.LayerID,
			Quantity:       usedQty,
			UnitCost:       entry.UnitCost,
			Cost:           drawCost,
			RemainingAfter: entry.Remaining.Sub(usedQty),
		})
	}

	return draws, totalCost
}

// layerWalkCost is the body shared by the FIFO and LIFO strategies
func layerWalkCost(
	method strategy.CostMethod,
	order layerOrder,
	costCtx strategy.CostContext,
	entries []strategy.LayerEntry,
) (strategy.CostResult, error) {
	if err := checkRequest(costCtx, entries); err != nil {
		return strategy.CostResult{}, err
	}

	draws, totalCost := walkLayers(costCtx.Quantity, orderedEntries(entries, order))

	return strategy.CostResult{
		Method:    method,
		Quantity:  costCtx.Quantity,
		UnitCost:  totalCost.Div(costCtx.Quantity),
		TotalCost: totalCost,
		Draws:     draws,
	}, nil
}

// averageCost is the body shared by the weighted average and specific
// identification strategies. Quantity leaves the layers oldest-first while the
// cost is the current average over all layers with stock.
func averageCost(
	method strategy.CostMethod,
	costCtx strategy.CostContext,
	entries []strategy.LayerEntry,
) (strategy.CostResult, error) {
	if err := checkRequest(costCtx, entries); err != nil {
		return strategy.CostResult{}, err
	}

	avg := weightedAverage(entries)
	draws, _ := walkLayers(costCtx.Quantity, orderedEntries(entries, oldestFirst))
	for i := range draws {
		draws[i].UnitCost = avg
		draws[i].Cost = draws[i].Quantity.Mul(avg)
	}

	return strategy.CostResult{
		Method:    method,
		Quantity:  costCtx.Quantity,
		UnitCost:  avg,
		TotalCost: costCtx.Quantity.Mul(avg),
		Draws:     draws,
	}, nil
}
