package replenishment

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
	t2 = t0.Add(2 * time.Hour)
)

func TestAlertID_Deterministic(t *testing.T) {
	assert.Equal(t, AlertID("INV-1"), AlertID("INV-1"))
	assert.NotEqual(t, AlertID("INV-1"), AlertID("INV-2"))
	assert.Equal(t, AlertID("INV-1"), NewLowStockAlert("INV-1", t0).ID)
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, AlertSeverityCritical, SeverityFor(inventory.StockStatusCritical))
	assert.Equal(t, AlertSeverityWarning, SeverityFor(inventory.StockStatusLow))
}

func TestAlertStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to AlertStatus
		allowed  bool
	}{
		{AlertStatusActive, AlertStatusAcknowledged, true},
		{AlertStatusActive, AlertStatusResolved, true},
		{AlertStatusAcknowledged, AlertStatusResolved, true},
		{AlertStatusAcknowledged, AlertStatusActive, false},
		{AlertStatusResolved, AlertStatusActive, false},
		{AlertStatusResolved, AlertStatusAcknowledged, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLowStockAlert_Lifecycle(t *testing.T) {
	t.Run("active to acknowledged to resolved", func(t *testing.T) {
		a := NewLowStockAlert("INV-1", t0)

		require.NoError(t, a.Acknowledge(t1))
		assert.Equal(t, AlertStatusAcknowledged, a.Status)
		assert.Equal(t, t1, *a.AcknowledgedAt)

		require.NoError(t, a.Resolve(t2))
		assert.Equal(t, AlertStatusResolved, a.Status)
		assert.Equal(t, t2, *a.ResolvedAt)
		assert.False(t, a.IsOpen())

		events := a.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeAlertAcknowledged, events[0].EventType())
		assert.Equal(t, EventTypeAlertResolved, events[1].EventType())
	})

	t.Run("active to resolved directly", func(t *testing.T) {
		a := NewLowStockAlert("INV-1", t0)
		require.NoError(t, a.Resolve(t1))
		assert.Nil(t, a.AcknowledgedAt)
		assert.Equal(t, AlertStatusResolved, a.Status)
	})

	t.Run("resolve twice is a no-op", func(t *testing.T) {
		a := NewLowStockAlert("INV-1", t0)
		require.NoError(t, a.Resolve(t1))
		a.ClearDomainEvents()

		require.NoError(t, a.Resolve(t2))
		assert.Equal(t, t1, *a.ResolvedAt)
		assert.Empty(t, a.GetDomainEvents())
	})

	t.Run("acknowledge twice keeps first timestamp", func(t *testing.T) {
		a := NewLowStockAlert("INV-1", t0)
		require.NoError(t, a.Acknowledge(t1))
		require.NoError(t, a.Acknowledge(t2))
		assert.Equal(t, t1, *a.AcknowledgedAt)
	})

	t.Run("acknowledge resolved fails", func(t *testing.T) {
		a := NewLowStockAlert("INV-1", t0)
		require.NoError(t, a.Resolve(t1))

		err := a.Acknowledge(t2)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, AlertStatusResolved, a.Status)
	})

	t.Run("read flag independent of status", func(t *testing.T) {
		a := NewLowStockAlert("INV-1", t0)
		a.MarkRead()
		assert.True(t, a.IsRead)
		assert.Equal(t, AlertStatusActive, a.Status)
	})
}

func TestLowStockAlert_StateRoundTrip(t *testing.T) {
	a := NewLowStockAlert("INV-1", t0)
	require.NoError(t, a.Acknowledge(t1))
	a.MarkRead()

	state := a.State()
	assert.Equal(t, "INV-1", state.InventoryItemID)
	assert.Equal(t, a.ID, state.AlertID)

	fresh := NewLowStockAlert("INV-1", t2)
	fresh.ApplyState(state)

	assert.Equal(t, AlertStatusAcknowledged, fresh.Status)
	assert.True(t, fresh.IsRead)
	assert.Equal(t, t1, *fresh.AcknowledgedAt)

	// state copies are detached from the alert
	*state.AcknowledgedAt = t2
	assert.Equal(t, t1, *fresh.AcknowledgedAt)
}
