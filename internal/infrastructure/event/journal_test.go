package event

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var journalTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func TestJournalHandler_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	journal := NewJournalHandler(&buf, nil)

	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	bus.Subscribe(journal)

	alert := replenishment.NewLowStockAlert("ITEM-1", journalTime)
	alert.ProductID = "P-1"
	alert.WarehouseID = "WH-1"
	alert.Severity = replenishment.AlertSeverityCritical
	alert.SuggestedOrderQuantity = decimal.NewFromInt(35)
	raised := replenishment.NewAlertRaisedEvent(alert)

	layer, err := inventory.NewCostLayer("P-1", "WH-1", decimal.NewFromInt(10), decimal.NewFromInt(12), journalTime, nil)
	require.NoError(t, err)
	received := inventory.NewCostLayerReceivedEvent(layer)

	require.NoError(t, bus.Publish(context.Background(), raised, received))
	assert.Equal(t, 2, journal.Written())
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	events, err := ReadJournal(&buf, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	gotRaised, ok := events[0].(*replenishment.AlertRaisedEvent)
	require.True(t, ok)
	assert.Equal(t, raised.EventID(), gotRaised.EventID())
	assert.Equal(t, alert.ID, gotRaised.AlertID)
	assert.Equal(t, "ITEM-1", gotRaised.InventoryItemID)
	assert.True(t, decimal.NewFromInt(35).Equal(gotRaised.SuggestedOrderQuantity))

	gotReceived, ok := events[1].(*inventory.CostLayerReceivedEvent)
	require.True(t, ok)
	assert.Equal(t, "P-1@WH-1", gotReceived.AggregateID())
}

func TestReadJournal_UnknownEventType(t *testing.T) {
	var buf bytes.Buffer
	journal := NewJournalHandler(&buf, nil)
	require.NoError(t, journal.Handle(context.Background(), newTestEvent("TestEvent")))

	_, err := ReadJournal(&buf, nil)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Contains(t, err.Error(), "journal line 1")
}

func TestReadJournal_SkipsBlankLines(t *testing.T) {
	events, err := ReadJournal(strings.NewReader("\n\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestJournalHandler_WriteFailure(t *testing.T) {
	journal := NewJournalHandler(failingWriter{}, nil)

	err := journal.Handle(context.Background(), newTestEvent("TestEvent"))
	assert.Error(t, err)
	assert.Equal(t, 0, journal.Written())
}
