package replenishment

import (
	"context"
	"fmt"

	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MergeResult summarizes one merge of generated alerts with stored state
type MergeResult struct {
	Alerts  []*replenishment.LowStockAlert `json:"alerts"`
	Carried int                            `json:"carried"` // Alerts that picked up stored workflow state
	Raised  int                            `json:"raised"`  // Alerts seen for the first time
	Pruned  int                            `json:"pruned"`  // Stored states with no alert in this run
}

// AlertStateMerger carries human workflow state onto freshly generated alerts.
// Matching is by inventory item ID.
type AlertStateMerger struct {
	store          replenishment.AlertStateStore
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	pruneStale     bool
}

// NewAlertStateMerger creates a new AlertStateMerger that prunes stale state
func NewAlertStateMerger(store replenishment.AlertStateStore, logger *zap.Logger) *AlertStateMerger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertStateMerger{
		store:      store,
		logger:     logger,
		pruneStale: true,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (m *AlertStateMerger) SetEventPublisher(publisher shared.EventPublisher) {
	m.eventPublisher = publisher
}

// SetPruneStale controls whether states of items that stopped alerting are deleted.
// Pruning assumes the merged alerts come from a full snapshot.
func (m *AlertStateMerger) SetPruneStale(prune bool) {
	m.pruneStale = prune
}

// Merge applies stored state to the alerts in place. Alerts without stored
// state are new: their state is saved and an alert raised event is published.
// States of the retained item IDs are never pruned; pass the items that were
// skipped rather than evaluated.
func (m *AlertStateMerger) Merge(
	ctx context.Context,
	alerts []*replenishment.LowStockAlert,
	retain ...string,
) (*MergeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "alerts", "merge",
		telemetry.WithAttribute(telemetry.SpanAttrAlertCount, len(alerts)),
	)
	defer span.End()

	ids := make([]string, len(alerts))
	keep := make(map[string]bool, len(alerts)+len(retain))
	for i, a := range alerts {
		ids[i] = a.InventoryItemID
		keep[a.InventoryItemID] = true
	}
	for _, id := range retain {
		keep[id] = true
	}

	states, err := m.store.GetMany(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load alert states: %w", err)
	}

	result := &MergeResult{Alerts: alerts}
	for _, a := range alerts {
		if state, ok := states[a.InventoryItemID]; ok {
			a.ApplyState(state)
			result.Carried++
			continue
		}

		if err := m.store.Save(ctx, a.State()); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to save alert state for %s: %w", a.InventoryItemID, err)
		}
		a.AddDomainEvent(replenishment.NewAlertRaisedEvent(a))
		result.Raised++
	}

	if m.pruneStale {
		pruned, err := m.prune(ctx, keep)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.Pruned = pruned
	}

	m.publishDomainEvents(ctx, alerts)

	m.logger.Info("Alert states merged",
		zap.Int("alerts", len(alerts)),
		zap.Int("carried", result.Carried),
		zap.Int("raised", result.Raised),
		zap.Int("pruned", result.Pruned),
		zap.Int("retained", len(retain)),
	)
	return result, nil
}

func (m *AlertStateMerger) prune(ctx context.Context, keep map[string]bool) (int, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list alert states: %w", err)
	}
	stale := make([]string, 0)
	for _, s := range stored {
		if !keep[s.InventoryItemID] {
			stale = append(stale, s.InventoryItemID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := m.store.Delete(ctx, stale...); err != nil {
		return 0, fmt.Errorf("failed to prune alert states: %w", err)
	}
	return len(stale), nil
}

// publishDomainEvents publishes and clears the events collected on each alert
func (m *AlertStateMerger) publishDomainEvents(ctx context.Context, alerts []*replenishment.LowStockAlert) {
	for _, a := range alerts {
		events := a.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if m.eventPublisher != nil {
			// Publish errors are logged by the event bus, not propagated
			_ = m.eventPublisher.Publish(ctx, events...)
		}
		a.ClearDomainEvents()
	}
}
