package partner

import (
	"fmt"
	"sort"

	"github.com/erp/invengine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Supplier holds the replenishment terms of a supplier
type Supplier struct {
	ID            string          `json:"id" validate:"required"`
	Name          string          `json:"name"`
	LeadTimeDays  int             `json:"lead_time_days" validate:"gte=0"`
	MinOrderValue decimal.Decimal `json:"min_order_value" validate:"gte=0"`
	Rating        int             `json:"rating" validate:"gte=0,lte=5"` // Supplier rating (0-5)
	Active        bool            `json:"active"`
}

// LeadTime returns the lead time in days as a decimal
func (s *Supplier) LeadTime() decimal.Decimal {
	return decimal.NewFromInt(int64(s.LeadTimeDays))
}

// QualifiesForFreeShipping returns true if subtotal exceeds the minimum order value
func (s *Supplier) QualifiesForFreeShipping(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThan(s.MinOrderValue)
}

// SupplierDirectory is a read-only supplier lookup
type SupplierDirectory interface {
	Supplier(id string) (*Supplier, bool)
}

// InMemorySupplierDirectory is a map-backed SupplierDirectory
type InMemorySupplierDirectory struct {
	suppliers map[string]Supplier
}

// NewSupplierDirectory builds a directory from suppliers. Duplicate IDs are rejected.
func NewSupplierDirectory(suppliers []Supplier) (*InMemorySupplierDirectory, error) {
	dir := &InMemorySupplierDirectory{suppliers: make(map[string]Supplier, len(suppliers))}
	for _, s := range suppliers {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: supplier id is required", shared.ErrInvalidInput)
		}
		if _, exists := dir.suppliers[s.ID]; exists {
			return nil, fmt.Errorf("%w: supplier '%s'", shared.ErrAlreadyExists, s.ID)
		}
		dir.suppliers[s.ID] = s
	}
	return dir, nil
}

// Supplier returns a copy of the supplier with the given ID
func (d *InMemorySupplierDirectory) Supplier(id string) (*Supplier, bool) {
	s, ok := d.suppliers[id]
	if !ok {
		return nil, false
	}
	return &s, true
}

// IDs returns all supplier IDs, sorted
func (d *InMemorySupplierDirectory) IDs() []string {
	ids := make([]string, 0, len(d.suppliers))
	for id := range d.suppliers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveSupplier looks up an active supplier. The error wraps ErrUnknownSupplier
// when the id is empty, missing from the directory, or the supplier is inactive.
func ResolveSupplier(dir SupplierDirectory, id string) (*Supplier, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: no supplier assigned", shared.ErrUnknownSupplier)
	}
	s, ok := dir.Supplier(id)
	if !ok {
		return nil, fmt.Errorf("%w: supplier '%s' not in directory", shared.ErrUnknownSupplier, id)
	}
	if !s.Active {
		return nil, fmt.Errorf("%w: supplier '%s' is inactive", shared.ErrUnknownSupplier, id)
	}
	return s, nil
}

var _ SupplierDirectory = (*InMemorySupplierDirectory)(nil)
