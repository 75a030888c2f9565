package replenishment

import (
	"testing"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func flag(b bool) *bool { return &b }

func item(onHand, reserved, usage, reorderPoint int64) *inventory.InventoryItem {
	return &inventory.InventoryItem{
		ID:               "INV-1",
		ProductID:        "P-1",
		WarehouseID:      "WH-1",
		OnHandQuantity:   dec(onHand),
		ReservedQuantity: dec(reserved),
		AvgDailyUsage:    dec(usage),
		ReorderPoint:     dec(reorderPoint),
		TrackInventory:   flag(true),
	}
}

func TestReorderEvaluator_Evaluate(t *testing.T) {
	evaluator, err := NewReorderEvaluator(DefaultEvaluatorConfig())
	require.NoError(t, err)
	leadTime := dec(10)

	tests := []struct {
		name string
		item *inventory.InventoryItem
		want inventory.StockStatus
	}{
		{"nothing available is critical regardless of reorder point", item(5, 5, 0, 0), inventory.StockStatusCritical},
		{"supply shorter than lead time", item(50, 0, 10, 20), inventory.StockStatusCritical},
		{"supply inside the buffer", item(120, 0, 10, 20), inventory.StockStatusLow},
		{"supply at exactly the buffer is not low", item(150, 0, 10, 40), inventory.StockStatusAdequate},
		{"overstocked", item(200, 0, 1, 20), inventory.StockStatusExcess},
		{"zero usage never stocks out", item(50, 0, 0, 20), inventory.StockStatusAdequate},
		{"zero usage can still be excess", item(101, 0, 0, 20), inventory.StockStatusExcess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluator.Evaluate(tt.item, leadTime)
			assert.Equal(t, tt.want, got.Status)
		})
	}

	t.Run("untracked short-circuits", func(t *testing.T) {
		it := item(0, 0, 10, 20)
		it.TrackInventory = flag(false)
		assert.Equal(t, inventory.StockStatusUntracked, evaluator.Evaluate(it, leadTime).Status)
	})

	t.Run("unset flag is tracked", func(t *testing.T) {
		it := item(0, 0, 10, 20)
		it.TrackInventory = nil
		assert.Equal(t, inventory.StockStatusCritical, evaluator.Evaluate(it, leadTime).Status)
	})

	t.Run("stockout beats overstock", func(t *testing.T) {
		// 200 on hand is 10× the reorder point but covers only 2 days
		assert.Equal(t, inventory.StockStatusCritical, evaluator.Evaluate(item(200, 0, 100, 20), leadTime).Status)
	})

	t.Run("days of supply is reported", func(t *testing.T) {
		got := evaluator.Evaluate(item(50, 10, 8, 0), leadTime)
		days, ok := got.DaysOfSupply.Value()
		require.True(t, ok)
		assert.True(t, dec(5).Equal(days))
	})
}

func TestReorderEvaluator_MaxStockLevelPolicy(t *testing.T) {
	cfg := DefaultEvaluatorConfig()
	cfg.ExcessPolicy = ExcessPolicyMaxStockLevel
	evaluator, err := NewReorderEvaluator(cfg)
	require.NoError(t, err)

	it := item(300, 0, 0, 20)
	assert.Equal(t, inventory.StockStatusAdequate, evaluator.Evaluate(it, dec(5)).Status, "no max configured")

	it.MaxStockLevel = dec(250)
	assert.Equal(t, inventory.StockStatusExcess, evaluator.Evaluate(it, dec(5)).Status)

	it.MaxStockLevel = dec(300)
	assert.Equal(t, inventory.StockStatusAdequate, evaluator.Evaluate(it, dec(5)).Status)
}

func TestEvaluatorConfig_Validate(t *testing.T) {
	cfg := DefaultEvaluatorConfig()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.LeadTimeBufferMultiplier = decimal.NewFromFloat(0.5)
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.ExcessPolicy = "never"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.ExcessMultiplier = decimal.Zero
	_, err := NewReorderEvaluator(bad)
	assert.Error(t, err)
}
