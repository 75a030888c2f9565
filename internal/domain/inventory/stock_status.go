package inventory

// StockStatus is the derived replenishment status of an inventory item
type StockStatus string

const (
	StockStatusCritical  StockStatus = "critical"
	StockStatusLow       StockStatus = "low"
	StockStatusAdequate  StockStatus = "adequate"
	StockStatusExcess    StockStatus = "excess"
	StockStatusUntracked StockStatus = "untracked"
)

// String returns the string representation of the status
func (s StockStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is known
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusCritical, StockStatusLow, StockStatusAdequate, StockStatusExcess, StockStatusUntracked:
		return true
	default:
		return false
	}
}

// NeedsReplenishment returns true for critical and low
func (s StockStatus) NeedsReplenishment() bool {
	return s == StockStatusCritical || s == StockStatusLow
}
