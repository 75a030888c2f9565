package replenishment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/invengine/internal/domain/catalog"
	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/partner"
	"github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/infrastructure/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func testCatalog(t *testing.T) *catalog.ProductCatalog {
	t.Helper()
	c, err := catalog.NewProductCatalog([]catalog.Product{
		{ID: "P-1", SKU: "SKU-1", UnitCost: dec(12), SupplierIDs: []string{"S-1"}, TrackInventory: true},
		{ID: "P-2", SKU: "SKU-2", UnitCost: dec(5), PreferredSupplierID: "S-2", TrackInventory: true},
		{ID: "P-3", SKU: "SKU-3", UnitCost: dec(3), TrackInventory: true},
		{ID: "P-4", SKU: "SKU-4", UnitCost: dec(1), SupplierIDs: []string{"S-1"}, TrackInventory: false},
	})
	require.NoError(t, err)
	return c
}

func testSuppliers(t *testing.T) *partner.InMemorySupplierDirectory {
	t.Helper()
	dir, err := partner.NewSupplierDirectory([]partner.Supplier{
		{ID: "S-1", Name: "Acme", LeadTimeDays: 10, MinOrderValue: dec(500), Active: true},
		{ID: "S-2", Name: "Globex", LeadTimeDays: 3, MinOrderValue: dec(1000), Active: true},
		{ID: "S-9", Name: "Defunct", LeadTimeDays: 1, Active: false},
	})
	require.NoError(t, err)
	return dir
}

func newTestGenerator(t *testing.T) *AlertGenerator {
	t.Helper()
	evaluator, err := NewReorderEvaluator(DefaultEvaluatorConfig())
	require.NoError(t, err)

	g := NewAlertGenerator(evaluator, testCatalog(t), testSuppliers(t), zaptest.NewLogger(t))
	g.SetValidator(validation.New())
	g.SetClock(func() time.Time { return fixedNow })
	return g
}

func TestAlertGenerator_GenerateAlerts(t *testing.T) {
	g := newTestGenerator(t)

	critical := item(50, 0, 10, 20)
	critical.ReorderQuantity = dec(100)
	critical.SafetyStock = dec(10)

	adequate := item(500, 0, 10, 200)
	adequate.ID = "INV-2"

	result := g.GenerateAlerts(context.Background(), []inventory.InventoryItem{*critical, *adequate})

	assert.Empty(t, result.Diagnostics)
	require.Len(t, result.Alerts, 1)

	a := result.Alerts[0]
	assert.Equal(t, replenishment.AlertID("INV-1"), a.ID)
	assert.Equal(t, "SKU-1", a.ProductSKU)
	assert.Equal(t, replenishment.AlertSeverityCritical, a.Severity)
	assert.Equal(t, inventory.StockStatusCritical, a.StockStatus)
	assert.Equal(t, replenishment.AlertStatusActive, a.Status)
	assert.True(t, dec(50).Equal(a.CurrentStock))
	assert.True(t, a.ShortageQuantity.IsZero())
	assert.True(t, dec(100).Equal(a.SuggestedOrderQuantity))
	assert.Equal(t, "S-1", a.SuggestedSupplierID)
	assert.True(t, dec(12).Equal(a.UnitCost))
	assert.True(t, dec(1200).Equal(a.EstimatedCost))
	assert.True(t, a.DaysUntilStockout.Equal(inventory.BoundedDays(dec(5))))
	assert.Equal(t, fixedNow, a.CreatedAt)
}

func TestAlertGenerator_ShortageDrivesSuggestedQuantity(t *testing.T) {
	g := newTestGenerator(t)

	low := item(12, 2, 1, 40)
	low.ReorderQuantity = dec(20)
	low.SafetyStock = dec(5)

	result := g.GenerateAlerts(context.Background(), []inventory.InventoryItem{*low})
	require.Len(t, result.Alerts, 1)

	a := result.Alerts[0]
	assert.True(t, dec(10).Equal(a.CurrentStock), "current stock is the available quantity")
	assert.True(t, dec(30).Equal(a.ShortageQuantity))
	assert.True(t, dec(35).Equal(a.SuggestedOrderQuantity))
}

func TestAlertGenerator_UntrackedAndUnresolvedSupplier(t *testing.T) {
	g := newTestGenerator(t)

	untracked := item(0, 0, 10, 20)
	untracked.TrackInventory = flag(false)

	// P-3 has no supplier, so lead time is zero and only an empty item alerts
	noSupplier := item(0, 0, 1, 10)
	noSupplier.ID = "INV-3"
	noSupplier.ProductID = "P-3"

	result := g.GenerateAlerts(context.Background(), []inventory.InventoryItem{*untracked, *noSupplier})
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, "INV-3", result.Alerts[0].InventoryItemID)
	assert.Empty(t, result.Alerts[0].SuggestedSupplierID)
}

func TestAlertGenerator_TrackingFollowsProduct(t *testing.T) {
	g := newTestGenerator(t)

	tests := []struct {
		name      string
		productID string
		itemFlag  *bool
		wantAlert bool
	}{
		{"tracked product, unset item flag", "P-1", nil, true},
		{"tracked product, tracked item", "P-1", flag(true), true},
		{"tracked product, untracked item", "P-1", flag(false), false},
		{"untracked product, unset item flag", "P-4", nil, false},
		{"untracked product, tracked item", "P-4", flag(true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := item(0, 0, 10, 20)
			out.ProductID = tt.productID
			out.TrackInventory = tt.itemFlag

			result := g.GenerateAlerts(context.Background(), []inventory.InventoryItem{*out})
			assert.Empty(t, result.Diagnostics)
			if tt.wantAlert {
				require.Len(t, result.Alerts, 1)
				assert.Equal(t, replenishment.AlertSeverityCritical, result.Alerts[0].Severity)
			} else {
				assert.Empty(t, result.Alerts)
			}
			assert.Equal(t, tt.itemFlag, out.TrackInventory, "caller's item is not modified")
		})
	}
}

func TestGenerationResult_SkippedItemIDs(t *testing.T) {
	r := GenerationResult{Diagnostics: []ItemDiagnostic{
		{InventoryItemID: "INV-2"}, {InventoryItemID: ""}, {InventoryItemID: "INV-1"}, {InventoryItemID: "INV-2"},
	}}
	assert.Equal(t, []string{"INV-2", "INV-1"}, r.SkippedItemIDs())
	assert.Empty(t, GenerationResult{}.SkippedItemIDs())
}

func TestAlertGenerator_Diagnostics(t *testing.T) {
	g := newTestGenerator(t)

	valid := item(0, 0, 10, 20)

	negative := item(0, 0, 10, 20)
	negative.ID = "INV-NEG"
	negative.OnHandQuantity = dec(-5)

	unknown := item(0, 0, 10, 20)
	unknown.ID = "INV-UNK"
	unknown.ProductID = "P-404"

	missingID := item(0, 0, 10, 20)
	missingID.ID = ""

	result := g.GenerateAlerts(context.Background(), []inventory.InventoryItem{
		*valid, *negative, *unknown, *valid, *missingID,
	})

	require.Len(t, result.Alerts, 1)
	require.Len(t, result.Diagnostics, 4)

	reasons := make(map[string]string)
	for _, d := range result.Diagnostics {
		reasons[d.InventoryItemID] = d.Reason
	}
	assert.Equal(t, DiagnosticInvalidItem, reasons["INV-NEG"])
	assert.Equal(t, DiagnosticUnknownProduct, reasons["INV-UNK"])
	assert.Equal(t, DiagnosticDuplicateItem, reasons["INV-1"])
	assert.Equal(t, DiagnosticInvalidItem, reasons[""])
	assert.Equal(t, shared.ErrInvalidInput.Code, result.Diagnostics[0].Code)
}

func TestAlertGenerator_Idempotent(t *testing.T) {
	g := newTestGenerator(t)
	items := []inventory.InventoryItem{*item(0, 0, 10, 20)}

	first := g.GenerateAlerts(context.Background(), items)
	second := g.GenerateAlerts(context.Background(), items)

	require.Len(t, first.Alerts, 1)
	require.Len(t, second.Alerts, 1)
	assert.Equal(t, first.Alerts[0].ID, second.Alerts[0].ID)
	assert.True(t, first.Alerts[0].SuggestedOrderQuantity.Equal(second.Alerts[0].SuggestedOrderQuantity))
}
