package replenishment

import (
	"context"
	"fmt"

	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"go.uber.org/zap"
)

// AlertNotifier is the interface for sending alert notifications.
// Implementations can support different channels (in-app, email, etc.)
type AlertNotifier interface {
	SendAlert(ctx context.Context, notification AlertNotification) error
}

// AlertNotification is the payload handed to a notifier
type AlertNotification struct {
	AlertID                string   `json:"alert_id"`
	InventoryItemID        string   `json:"inventory_item_id"`
	ProductID              string   `json:"product_id"`
	WarehouseID            string   `json:"warehouse_id"`
	Severity               string   `json:"severity"`
	CurrentStock           string   `json:"current_stock"`
	ReorderPoint           string   `json:"reorder_point"`
	SuggestedOrderQuantity string   `json:"suggested_order_quantity"`
	SupplierID             string   `json:"supplier_id,omitempty"`
	Channels               []string `json:"channels"`
}

// AlertRaisedHandler handles AlertRaised events and forwards them to a notifier
type AlertRaisedHandler struct {
	logger   *zap.Logger
	notifier AlertNotifier
	channels []string
}

// NewAlertRaisedHandler creates a new handler for alert raised events
func NewAlertRaisedHandler(logger *zap.Logger) *AlertRaisedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertRaisedHandler{
		logger:   logger,
		channels: []string{"in_app"},
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *AlertRaisedHandler) WithNotifier(notifier AlertNotifier) *AlertRaisedHandler {
	h.notifier = notifier
	return h
}

// WithChannels sets the notification channels
func (h *AlertRaisedHandler) WithChannels(channels ...string) *AlertRaisedHandler {
	if len(channels) > 0 {
		h.channels = channels
	}
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *AlertRaisedHandler) EventTypes() []string {
	return []string{replenishment.EventTypeAlertRaised}
}

// Handle processes an AlertRaisedEvent
func (h *AlertRaisedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	raised, ok := event.(*replenishment.AlertRaisedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", replenishment.EventTypeAlertRaised),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			replenishment.EventTypeAlertRaised, event.EventType())
	}

	h.logger.Warn("low stock alert raised",
		zap.String("alert_id", raised.AlertID.String()),
		zap.String("inventory_item_id", raised.InventoryItemID),
		zap.String("product_id", raised.ProductID),
		zap.String("warehouse_id", raised.WarehouseID),
		zap.String("severity", raised.Severity.String()),
		zap.String("current_stock", raised.CurrentStock.String()),
		zap.String("reorder_point", raised.ReorderPoint.String()),
	)

	if h.notifier == nil {
		return nil
	}

	notification := AlertNotification{
		AlertID:                raised.AlertID.String(),
		InventoryItemID:        raised.InventoryItemID,
		ProductID:              raised.ProductID,
		WarehouseID:            raised.WarehouseID,
		Severity:               raised.Severity.String(),
		CurrentStock:           raised.CurrentStock.String(),
		ReorderPoint:           raised.ReorderPoint.String(),
		SuggestedOrderQuantity: raised.SuggestedOrderQuantity.String(),
		SupplierID:             raised.SuggestedSupplierID,
		Channels:               h.channels,
	}
	if err := h.notifier.SendAlert(ctx, notification); err != nil {
		// Notification failure shouldn't fail the event handling
		h.logger.Error("failed to send alert notification",
			zap.String("inventory_item_id", notification.InventoryItemID),
			zap.Error(err),
		)
		return nil
	}

	h.logger.Info("alert notification sent",
		zap.String("inventory_item_id", notification.InventoryItemID),
		zap.Strings("channels", notification.Channels),
	)
	return nil
}

var _ shared.EventHandler = (*AlertRaisedHandler)(nil)

// LoggingAlertNotifier is a notifier that only logs alerts
type LoggingAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingAlertNotifier creates a new logging notifier
func NewLoggingAlertNotifier(logger *zap.Logger) *LoggingAlertNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingAlertNotifier{logger: logger}
}

// SendAlert logs the notification
func (n *LoggingAlertNotifier) SendAlert(ctx context.Context, notification AlertNotification) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("severity", notification.Severity),
		zap.String("product_id", notification.ProductID),
		zap.String("warehouse_id", notification.WarehouseID),
		zap.String("current_stock", notification.CurrentStock),
		zap.String("suggested_qty", notification.SuggestedOrderQuantity),
		zap.Strings("channels", notification.Channels),
	)
	return nil
}
