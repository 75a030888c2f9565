// Package snapshot decodes the JSON input of a planning run: the catalog,
// suppliers, warehouses, cost layers and inventory items as of one moment.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/erp/invengine/internal/application/planning"
	"github.com/erp/invengine/internal/application/valuation"
	"github.com/erp/invengine/internal/domain/catalog"
	"github.com/erp/invengine/internal/domain/inventory"
	"github.com/erp/invengine/internal/domain/partner"
	"github.com/erp/invengine/internal/domain/shared"
	"github.com/erp/invengine/internal/infrastructure/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot is the inbound document of one planning run.
// Inventory items are not validated here; the alert generator reports bad
// items as diagnostics and keeps going.
type Snapshot struct {
	TakenAt    time.Time                    `json:"taken_at"`
	Products   []catalog.Product            `json:"products" validate:"dive"`
	Warehouses []partner.Warehouse          `json:"warehouses" validate:"dive"`
	Suppliers  []partner.Supplier           `json:"suppliers" validate:"dive"`
	CostLayers []LayerRecord                `json:"cost_layers" validate:"dive"`
	Items      []inventory.InventoryItem    `json:"inventory_items"`
	Valuations []valuation.ValuationRequest `json:"valuations"`
}

// LayerRecord is the inbound form of a cost layer
type LayerRecord struct {
	ID                string           `json:"id,omitempty" validate:"omitempty,uuid"`
	ProductID         string           `json:"product_id" validate:"required"`
	WarehouseID       string           `json:"warehouse_id" validate:"required"`
	PurchaseDate      time.Time        `json:"purchase_date" validate:"required"`
	Quantity          decimal.Decimal  `json:"quantity" validate:"gt=0"`
	RemainingQuantity *decimal.Decimal `json:"remaining_quantity,omitempty"` // Nil means untouched
	UnitCost          decimal.Decimal  `json:"unit_cost" validate:"gte=0"`
	BatchNumber       string           `json:"batch_number,omitempty"`
	ExpiryDate        *time.Time       `json:"expiry_date,omitempty"`
}

// CostLayer converts the record into a validated cost layer
func (r LayerRecord) CostLayer() (inventory.CostLayer, error) {
	var batch *inventory.BatchInfo
	if r.BatchNumber != "" || r.ExpiryDate != nil {
		batch = &inventory.BatchInfo{BatchNumber: r.BatchNumber, ExpiryDate: r.ExpiryDate}
	}
	layer, err := inventory.NewCostLayer(r.ProductID, r.WarehouseID, r.Quantity, r.UnitCost, r.PurchaseDate, batch)
	if err != nil {
		return inventory.CostLayer{}, err
	}
	if r.ID != "" {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return inventory.CostLayer{}, fmt.Errorf("%w: cost layer id %q", shared.ErrInvalidInput, r.ID)
		}
		layer.ID = id
	}
	if r.RemainingQuantity != nil {
		layer.RemainingQuantity = *r.RemainingQuantity
		if err := layer.Validate(); err != nil {
			return inventory.CostLayer{}, err
		}
	}
	return *layer, nil
}

// Decode reads and validates a snapshot
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty snapshot", shared.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: decode snapshot: %v", shared.ErrInvalidInput, err)
	}
	if err := s.Validate(validation.New()); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and validates the snapshot at path
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks struct tags and that every cost layer references a known
// warehouse when warehouses are listed
func (s *Snapshot) Validate(v *validation.Validator) error {
	if err := v.Struct(s); err != nil {
		return err
	}
	if len(s.Warehouses) == 0 {
		return nil
	}
	known := make(map[string]bool, len(s.Warehouses))
	for _, w := range s.Warehouses {
		known[w.ID] = true
	}
	for i, l := range s.CostLayers {
		if !known[l.WarehouseID] {
			return fmt.Errorf("%w: cost_layers[%d]: unknown warehouse '%s'", shared.ErrInvalidInput, i, l.WarehouseID)
		}
	}
	return nil
}

// Catalog builds the product catalog
func (s *Snapshot) Catalog() (*catalog.ProductCatalog, error) {
	return catalog.NewProductCatalog(s.Products)
}

// SupplierDirectory builds the supplier directory
func (s *Snapshot) SupplierDirectory() (*partner.InMemorySupplierDirectory, error) {
	return partner.NewSupplierDirectory(s.Suppliers)
}

// Layers converts every layer record. The first bad record fails the call.
func (s *Snapshot) Layers() ([]inventory.CostLayer, error) {
	out := make([]inventory.CostLayer, 0, len(s.CostLayers))
	for i, r := range s.CostLayers {
		layer, err := r.CostLayer()
		if err != nil {
			return nil, fmt.Errorf("cost_layers[%d]: %w", i, err)
		}
		out = append(out, layer)
	}
	return out, nil
}

// PlanRequest returns the planner input of the snapshot
func (s *Snapshot) PlanRequest() planning.PlanRequest {
	return planning.PlanRequest{
		Items:      s.Items,
		Valuations: s.Valuations,
	}
}
