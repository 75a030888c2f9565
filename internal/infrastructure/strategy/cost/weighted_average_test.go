package cost

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedAverageCostStrategy_CalculateCost(t *testing.T) {
	s := NewWeightedAverageCostStrategy()
	ctx := context.Background()

	assert.Equal(t, "weighted_average", s.Name())
	assert.Equal(t, strategy.CostMethodWeightedAverage, s.Method())

	t.Run("cost is quantity times current average", func(t *testing.T) {
		l1 := entry(1, jan1, 50, 10)
		l2 := entry(2, feb1, 50, 12)

		result, err := s.CalculateCost(ctx, costCtx(60), []strategy.LayerEntry{l1, l2})
		require.NoError(t, err)

		assert.True(t, decimal.NewFromInt(11).Equal(result.UnitCost), result.UnitCost.String())
		assert.True(t, decimal.NewFromInt(660).Equal(result.TotalCost), result.TotalCost.String())

		// Physical quantity leaves oldest first
		require.Len(t, result.Draws, 2)
		assert.Equal(t, l1.LayerID, result.Draws[0].LayerID)
		assert.True(t, decimal.NewFromInt(50).Equal(result.Draws[0].Quantity))
		assert.True(t, decimal.NewFromInt(10).Equal(result.Draws[1].Quantity))

		drawTotal := decimal.Zero
		for _, d := range result.Draws {
			assert.True(t, result.UnitCost.Equal(d.UnitCost))
			drawTotal = drawTotal.Add(d.Cost)
		}
		assert.True(t, result.TotalCost.Equal(drawTotal))
	})

	t.Run("insufficient stock", func(t *testing.T) {
		_, err := s.CalculateCost(ctx, costCtx(101), []strategy.LayerEntry{entry(1, jan1, 50, 10), entry(2, feb1, 50, 12)})
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	})
}

func TestSpecificIdentificationCostStrategy_CalculateCost(t *testing.T) {
	s := NewSpecificIdentificationCostStrategy()
	ctx := context.Background()

	assert.Equal(t, "specific_identification", s.Name())
	assert.Equal(t, strategy.CostMethodSpecific, s.Method())

	result, err := s.CalculateCost(ctx, costCtx(10), []strategy.LayerEntry{entry(1, jan1, 30, 2), entry(2, feb1, 10, 6)})
	require.NoError(t, err)

	// avg = (60 + 60) / 40 = 3
	assert.True(t, decimal.NewFromInt(3).Equal(result.UnitCost))
	assert.True(t, decimal.NewFromInt(30).Equal(result.TotalCost))
	assert.Equal(t, strategy.CostMethodSpecific, result.Method)
}
