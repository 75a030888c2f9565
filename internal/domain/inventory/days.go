package inventory

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Days is a count of days that may be unbounded. An unbounded value comes from
// a ratio with a zero denominator (e.g. zero average daily usage) and never
// compares as less than any bounded value.
type Days struct {
	value     decimal.Decimal
	unbounded bool
}

// BoundedDays returns a finite day count
func BoundedDays(d decimal.Decimal) Days {
	return Days{value: d}
}

// UnboundedDays returns the unbounded sentinel
func UnboundedDays() Days {
	return Days{unbounded: true}
}

// DaysFromRatio returns numerator / denominator, or Unbounded when denominator is zero
func DaysFromRatio(numerator, denominator decimal.Decimal) Days {
	if denominator.IsZero() {
		return UnboundedDays()
	}
	return BoundedDays(numerator.Div(denominator))
}

// IsUnbounded returns true for the unbounded sentinel
func (d Days) IsUnbounded() bool {
	return d.unbounded
}

// Value returns the day count and whether it is bounded
func (d Days) Value() (decimal.Decimal, bool) {
	if d.unbounded {
		return decimal.Zero, false
	}
	return d.value, true
}

// LessThan reports d < x. Unbounded is never less than anything.
func (d Days) LessThan(x decimal.Decimal) bool {
	if d.unbounded {
		return false
	}
	return d.value.LessThan(x)
}

// LessThanOrEqual reports d ≤ x. Unbounded is never less than or equal to anything.
func (d Days) LessThanOrEqual(x decimal.Decimal) bool {
	if d.unbounded {
		return false
	}
	return d.value.LessThanOrEqual(x)
}

// Floor rounds a bounded value down to whole days
func (d Days) Floor() Days {
	if d.unbounded {
		return d
	}
	return BoundedDays(d.value.Floor())
}

// Equal compares two Days values
func (d Days) Equal(o Days) bool {
	if d.unbounded || o.unbounded {
		return d.unbounded == o.unbounded
	}
	return d.value.Equal(o.value)
}

// String returns the day count with 2 decimals, or "unbounded"
func (d Days) String() string {
	if d.unbounded {
		return "unbounded"
	}
	return d.value.StringFixed(2)
}

// MarshalJSON renders unbounded as null and bounded values as a number
func (d Days) MarshalJSON() ([]byte, error) {
	if d.unbounded {
		return []byte("null"), nil
	}
	return []byte(d.value.Round(2).String()), nil
}

// UnmarshalJSON accepts null (unbounded) or a number
func (d *Days) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = UnboundedDays()
		return nil
	}
	var v decimal.Decimal
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = BoundedDays(v)
	return nil
}
