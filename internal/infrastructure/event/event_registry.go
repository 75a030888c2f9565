package event

import (
	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/replenishment"
)

// RegisterEngineEvents registers every engine event type with the serializer.
// Journals written by JournalHandler can only be read back for registered types.
func RegisterEngineEvents(serializer *EventSerializer) {
	// Cost ledger events
	serializer.Register(inventory.EventTypeCostLayerReceived, &inventory.CostLayerReceivedEvent{})
	serializer.Register(inventory.EventTypeCostLayerConsumed, &inventory.CostLayerConsumedEvent{})

	// Alert workflow events
	serializer.Register(replenishment.EventTypeAlertRaised, &replenishment.AlertRaisedEvent{})
	serializer.Register(replenishment.EventTypeAlertAcknowledged, &replenishment.AlertAcknowledgedEvent{})
	serializer.Register(replenishment.EventTypeAlertResolved, &replenishment.AlertResolvedEvent{})
}

// NewEngineSerializer returns a serializer with all engine events registered
func NewEngineSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterEngineEvents(s)
	return s
}
