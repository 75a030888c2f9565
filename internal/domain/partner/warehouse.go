package partner

// Warehouse is the scoping unit for inventory and cost layers
type Warehouse struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Active   bool   `json:"active"`
}
