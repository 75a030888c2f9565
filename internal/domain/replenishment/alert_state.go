package replenishment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AlertState is the human workflow state of an alert, keyed by inventory item.
// It outlives the regenerated alert bodies.
type AlertState struct {
	InventoryItemID string      `json:"inventory_item_id"`
	AlertID         uuid.UUID   `json:"alert_id"`
	Status          AlertStatus `json:"status"`
	IsRead          bool        `json:"is_read"`
	AcknowledgedAt  *time.Time  `json:"acknowledged_at,omitempty"`
	ResolvedAt      *time.Time  `json:"resolved_at,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// AlertStateStore persists alert workflow state
type AlertStateStore interface {
	// Get returns the state for an inventory item, shared.ErrNotFound if absent
	Get(ctx context.Context, inventoryItemID string) (*AlertState, error)
	// GetMany returns the states present for the given items
	GetMany(ctx context.Context, inventoryItemIDs []string) (map[string]AlertState, error)
	// Save upserts a state
	Save(ctx context.Context, state AlertState) error
	// Update applies fn to the stored state and saves the result atomically.
	// It returns shared.ErrNotFound if absent; an error from fn aborts the
	// update. fn may run more than once when the state changes concurrently.
	Update(ctx context.Context, inventoryItemID string, fn func(state *AlertState) error) (*AlertState, error)
	// Delete removes states; missing items are ignored
	Delete(ctx context.Context, inventoryItemIDs ...string) error
	// List returns every stored state
	List(ctx context.Context) ([]AlertState, error)
}
