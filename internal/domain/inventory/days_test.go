package inventory

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysFromRatio(t *testing.T) {
	d := DaysFromRatio(decimal.NewFromInt(30), decimal.NewFromInt(4))
	v, ok := d.Value()
	require.True(t, ok)
	assert.True(t, decimal.NewFromFloat(7.5).Equal(v))
	assert.Equal(t, "7.50", d.String())

	u := DaysFromRatio(decimal.NewFromInt(30), decimal.Zero)
	assert.True(t, u.IsUnbounded())
	_, ok = u.Value()
	assert.False(t, ok)
	assert.Equal(t, "unbounded", u.String())
}

func TestDays_Comparisons(t *testing.T) {
	five := decimal.NewFromInt(5)

	tests := []struct {
		name   string
		days   Days
		less   bool
		lessEq bool
	}{
		{"below", BoundedDays(decimal.NewFromInt(3)), true, true},
		{"equal", BoundedDays(five), false, true},
		{"above", BoundedDays(decimal.NewFromInt(8)), false, false},
		{"unbounded", UnboundedDays(), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.less, tt.days.LessThan(five))
			assert.Equal(t, tt.lessEq, tt.days.LessThanOrEqual(five))
		})
	}
}

func TestDays_Floor(t *testing.T) {
	assert.True(t, BoundedDays(decimal.NewFromFloat(2.9)).Floor().Equal(BoundedDays(decimal.NewFromInt(2))))
	assert.True(t, UnboundedDays().Floor().IsUnbounded())
	assert.False(t, UnboundedDays().Equal(BoundedDays(decimal.Zero)))
}

func TestDays_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Days `json:"a"`
		B Days `json:"b"`
	}{BoundedDays(decimal.NewFromFloat(7.456)), UnboundedDays()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":7.46,"b":null}`, string(data))

	var out struct {
		A Days `json:"a"`
		B Days `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":3,"b":null}`), &out))
	assert.True(t, out.A.Equal(BoundedDays(decimal.NewFromInt(3))))
	assert.True(t, out.B.IsUnbounded())
}
