package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	inventoryapp "github.com/erp/invengine/internal/application/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/erp/invengine/internal/domain/shared/valueobject"
	"github.com/erp/invengine/internal/domain/valuation"
	"github.com/erp/invengine/internal/infrastructure/persistence"
	strategyinfra "github.com/erp/invengine/internal/infrastructure/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	jan1  = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb1  = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	mar1  = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fixed = func() time.Time { return mar1 }
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func setup(t *testing.T) (*ValuationService, *inventoryapp.Ledger) {
	t.Helper()
	registry, err := strategyinfra.NewRegistryWithDefaults()
	require.NoError(t, err)

	ledger := inventoryapp.NewLedger(persistence.NewInMemoryCostLayerStore(), registry, zaptest.NewLogger(t))
	svc := NewValuationService(ledger, registry, zaptest.NewLogger(t))
	svc.SetClock(fixed)
	return svc, ledger
}

func receive(t *testing.T, l *inventoryapp.Ledger, warehouseID string, qty, cost int64, date time.Time) {
	t.Helper()
	_, err := l.Receive(context.Background(), inventoryapp.ReceiveRequest{
		ProductID: "P", WarehouseID: warehouseID, Quantity: dec(qty), UnitCost: dec(cost), PurchaseDate: date,
	})
	require.NoError(t, err)
}

func TestValuationService_Valuate(t *testing.T) {
	ctx := context.Background()
	svc, ledger := setup(t)
	receive(t, ledger, "WH", 50, 10, jan1)
	receive(t, ledger, "WH", 50, 12, feb1)

	tests := []struct {
		name     string
		method   strategy.CostMethod
		wantCOGS int64
	}{
		{"fifo", strategy.CostMethodFIFO, 620},
		{"lifo", strategy.CostMethodLIFO, 50*12 + 10*10},
		{"weighted average", strategy.CostMethodWeightedAverage, 660},
		{"specific identification", strategy.CostMethodSpecific, 660},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := svc.Valuate(ctx, ValuationRequest{
				ProductID:   "P",
				WarehouseID: "WH",
				Method:      tt.method,
				UnitsSold:   dec(60),
			})
			require.NoError(t, err)

			assert.Equal(t, tt.method, v.Method)
			assert.True(t, dec(100).Equal(v.TotalQuantity))
			assert.True(t, dec(1100).Equal(v.TotalValue))
			assert.True(t, dec(11).Equal(v.AvgUnitCost))
			assert.Equal(t, 2, v.LayerCount)
			assert.True(t, dec(tt.wantCOGS).Equal(v.COGS), "got %s", v.COGS)
			assert.True(t, v.COGSShortfall.IsZero())
			assert.Equal(t, mar1, v.ValuedAt)
		})
	}

	// Valuation reads a copy; the ledger is unchanged
	assert.True(t, dec(100).Equal(ledger.CurrentValue(ctx, "P", "WH").Quantity))
}

func TestValuationService_TurnoverAndVariance(t *testing.T) {
	ctx := context.Background()
	svc, ledger := setup(t)
	receive(t, ledger, "WH", 50, 10, jan1)
	receive(t, ledger, "WH", 50, 12, feb1)

	v, err := svc.Valuate(ctx, ValuationRequest{
		ProductID:   "P",
		WarehouseID: "WH",
		Method:      strategy.CostMethodFIFO,
		UnitsSold:   dec(60),
		Previous:    &valuation.PriorSnapshot{TotalValue: dec(900), ValuedAt: feb1},
	})
	require.NoError(t, err)

	// average inventory = (900 + 1100) / 2 = 1000; turnover = 620 / 1000
	assert.True(t, decimal.RequireFromString("0.62").Equal(v.TurnoverRatio))
	days, ok := v.DaysInInventory.Value()
	require.True(t, ok)
	assert.True(t, dec(365).Div(decimal.RequireFromString("0.62")).Equal(days))

	require.NotNil(t, v.PreviousValue)
	assert.True(t, dec(200).Equal(v.Variance))
	assert.Equal(t, "22.22", v.VariancePercent.StringFixed(2))
}

func TestValuationService_EdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("no units sold gives unbounded days", func(t *testing.T) {
		svc, ledger := setup(t)
		receive(t, ledger, "WH", 10, 1, jan1)

		v, err := svc.Valuate(ctx, ValuationRequest{ProductID: "P", WarehouseID: "WH"})
		require.NoError(t, err)
		assert.Equal(t, strategy.CostMethodFIFO, v.Method, "default method")
		assert.True(t, v.COGS.IsZero())
		assert.True(t, v.TurnoverRatio.IsZero())
		assert.True(t, v.DaysInInventory.IsUnbounded())
		assert.Nil(t, v.PreviousValue)
	})

	t.Run("previous value zero gives zero percent", func(t *testing.T) {
		svc, ledger := setup(t)
		receive(t, ledger, "WH", 10, 1, jan1)

		v, err := svc.Valuate(ctx, ValuationRequest{
			ProductID: "P", WarehouseID: "WH",
			Previous: &valuation.PriorSnapshot{TotalValue: decimal.Zero},
		})
		require.NoError(t, err)
		assert.True(t, dec(10).Equal(v.Variance))
		assert.True(t, v.VariancePercent.IsZero())
	})

	t.Run("units sold beyond stock report a shortfall", func(t *testing.T) {
		svc, ledger := setup(t)
		receive(t, ledger, "WH", 10, 3, jan1)

		v, err := svc.Valuate(ctx, ValuationRequest{ProductID: "P", WarehouseID: "WH", UnitsSold: dec(15)})
		require.NoError(t, err)
		assert.True(t, dec(30).Equal(v.COGS))
		assert.True(t, dec(5).Equal(v.COGSShortfall))
	})

	t.Run("empty product", func(t *testing.T) {
		svc, _ := setup(t)
		v, err := svc.Valuate(ctx, ValuationRequest{ProductID: "P", UnitsSold: dec(5)})
		require.NoError(t, err)
		assert.True(t, v.TotalValue.IsZero())
		assert.True(t, v.AvgUnitCost.IsZero())
		assert.True(t, dec(5).Equal(v.COGSShortfall))
	})

	t.Run("invalid requests", func(t *testing.T) {
		svc, _ := setup(t)
		_, err := svc.Valuate(ctx, ValuationRequest{})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))

		_, err = svc.Valuate(ctx, ValuationRequest{ProductID: "P", UnitsSold: dec(-1)})
		assert.True(t, errors.Is(err, shared.ErrInvalidQuantity))

		_, err = svc.Valuate(ctx, ValuationRequest{ProductID: "P", Method: "bogus"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestValuationService_AllWarehouses(t *testing.T) {
	ctx := context.Background()
	svc, ledger := setup(t)
	receive(t, ledger, "WH-2", 10, 20, feb1)
	receive(t, ledger, "WH-1", 10, 10, jan1)

	v, err := svc.Valuate(ctx, ValuationRequest{ProductID: "P", Method: strategy.CostMethodFIFO, UnitsSold: dec(12)})
	require.NoError(t, err)

	assert.Empty(t, v.WarehouseID)
	assert.True(t, dec(20).Equal(v.TotalQuantity))
	assert.True(t, dec(300).Equal(v.TotalValue))
	assert.True(t, dec(140).Equal(v.COGS), "10×10 from the January layer, 2×20 from February")
}

func TestValuationService_ValuateAll(t *testing.T) {
	svc, ledger := setup(t)
	receive(t, ledger, "WH", 10, 1, jan1)

	valuations, failures := svc.ValuateAll(context.Background(), []ValuationRequest{
		{ProductID: "P", WarehouseID: "WH"},
		{ProductID: "P", UnitsSold: dec(-2)},
	})
	require.Len(t, valuations, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, shared.ErrInvalidQuantity.Code, failures[0].Code)
}

func TestToValuationResponse(t *testing.T) {
	prev := decimal.RequireFromString("99.999")
	v := &valuation.Valuation{
		ProductID:       "P",
		TotalValue:      decimal.RequireFromString("1234.5678"),
		AvgUnitCost:     decimal.RequireFromString("3.333333"),
		COGS:            decimal.RequireFromString("10.005"),
		PreviousValue:   &prev,
		VariancePercent: decimal.RequireFromString("12.3456"),
	}
	resp := ToValuationResponse(v, valueobject.USD)

	assert.Equal(t, "1234.57", resp.TotalValue.StringFixed(2))
	assert.Equal(t, "3.33", resp.AvgUnitCost.StringFixed(2))
	assert.Equal(t, "10.01", resp.COGS.StringFixed(2))
	require.NotNil(t, resp.PreviousValue)
	assert.Equal(t, "100.00", resp.PreviousValue.StringFixed(2))
	assert.Equal(t, "12.35", resp.VariancePercent.StringFixed(2))
	assert.Equal(t, "3.333333", v.AvgUnitCost.String(), "source keeps full precision")
}
