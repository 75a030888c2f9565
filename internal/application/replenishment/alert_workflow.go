package replenishment

import (
	"context"
	"time"

	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AlertWorkflow applies human workflow actions to stored alert state
type AlertWorkflow struct {
	store          replenishment.AlertStateStore
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewAlertWorkflow creates a new AlertWorkflow
func NewAlertWorkflow(store replenishment.AlertStateStore, logger *zap.Logger) *AlertWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertWorkflow{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (w *AlertWorkflow) SetEventPublisher(publisher shared.EventPublisher) {
	w.eventPublisher = publisher
}

// SetClock overrides the time source used for workflow timestamps
func (w *AlertWorkflow) SetClock(now func() time.Time) {
	if now != nil {
		w.now = now
	}
}

// Acknowledge moves the item's alert to acknowledged
func (w *AlertWorkflow) Acknowledge(ctx context.Context, inventoryItemID string) (*replenishment.AlertState, error) {
	return w.apply(ctx, "acknowledge", inventoryItemID, func(a *replenishment.LowStockAlert, at time.Time) error {
		return a.Acknowledge(at)
	})
}

// Resolve moves the item's alert to resolved. Resolving twice is a no-op.
func (w *AlertWorkflow) Resolve(ctx context.Context, inventoryItemID string) (*replenishment.AlertState, error) {
	return w.apply(ctx, "resolve", inventoryItemID, func(a *replenishment.LowStockAlert, at time.Time) error {
		return a.Resolve(at)
	})
}

// MarkRead flags the item's alert as read
func (w *AlertWorkflow) MarkRead(ctx context.Context, inventoryItemID string) (*replenishment.AlertState, error) {
	return w.apply(ctx, "mark_read", inventoryItemID, func(a *replenishment.LowStockAlert, at time.Time) error {
		a.MarkRead()
		return nil
	})
}

func (w *AlertWorkflow) apply(
	ctx context.Context,
	action, inventoryItemID string,
	fn func(a *replenishment.LowStockAlert, at time.Time) error,
) (*replenishment.AlertState, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "alerts", action,
		telemetry.WithAttribute("inventory_item_id", inventoryItemID),
	)
	defer span.End()

	now := w.now()
	var alert *replenishment.LowStockAlert
	updated, err := w.store.Update(ctx, inventoryItemID, func(state *replenishment.AlertState) error {
		alert = replenishment.NewLowStockAlert(inventoryItemID, state.UpdatedAt)
		alert.ApplyState(*state)
		if err := fn(alert, now); err != nil {
			return err
		}
		*state = alert.State()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if events := alert.GetDomainEvents(); len(events) > 0 && w.eventPublisher != nil {
		_ = w.eventPublisher.Publish(ctx, events...)
	}
	alert.ClearDomainEvents()

	w.logger.Info("Alert workflow updated",
		zap.String("action", action),
		zap.String("inventory_item_id", inventoryItemID),
		zap.String("status", updated.Status.String()),
	)
	return updated, nil
}
