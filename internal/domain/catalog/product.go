package catalog

import (
	"fmt"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Dimensions holds package dimensions. Used by downstream shipping only.
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
}

// Product is the catalog view of a sellable item. Immutable within a valuation run.
type Product struct {
	ID                  string          `json:"id" validate:"required"`
	SKU                 string          `json:"sku" validate:"required"`
	Name                string          `json:"name"`
	Category            string          `json:"category"`
	UnitCost            decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	Weight              decimal.Decimal `json:"weight"`
	Dimensions          Dimensions      `json:"dimensions"`
	SupplierIDs         []string        `json:"supplier_ids"`
	PreferredSupplierID string          `json:"preferred_supplier_id"`
	TrackInventory      bool            `json:"track_inventory"`
}

// HasSupplier returns true if supplierID is in the product's supplier list
func (p *Product) HasSupplier(supplierID string) bool {
	for _, id := range p.SupplierIDs {
		if id == supplierID {
			return true
		}
	}
	return false
}

// PreferredSupplier returns the designated preferred supplier, falling back to
// the first listed supplier. Empty when the product has no suppliers.
func (p *Product) PreferredSupplier() string {
	if p.PreferredSupplierID != "" {
		return p.PreferredSupplierID
	}
	if len(p.SupplierIDs) > 0 {
		return p.SupplierIDs[0]
	}
	return ""
}

// Catalog is a read-only lookup of products by ID
type Catalog interface {
	Product(id string) (*Product, bool)
}

// ProductCatalog is an in-memory Catalog
type ProductCatalog struct {
	products map[string]Product
}

// NewProductCatalog builds a catalog from products. Duplicate IDs are rejected.
func NewProductCatalog(products []Product) (*ProductCatalog, error) {
	c := &ProductCatalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: product id is required", shared.ErrInvalidInput)
		}
		if _, exists := c.products[p.ID]; exists {
			return nil, fmt.Errorf("%w: product '%s'", shared.ErrAlreadyExists, p.ID)
		}
		c.products[p.ID] = p
	}
	return c, nil
}

// Product returns a copy of the product with the given ID
func (c *ProductCatalog) Product(id string) (*Product, bool) {
	p, ok := c.products[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

// Len returns the number of products
func (c *ProductCatalog) Len() int {
	return len(c.products)
}

var _ Catalog = (*ProductCatalog)(nil)
