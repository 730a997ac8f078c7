package services_test

import (
	"math"
	"testing"

	"bunga/internal/services"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 {
	return &v
}

func TestAdjustPrice(t *testing.T) {
	// A market price is never multiplied
	assert.Nil(t, services.AdjustPrice(nil, 1.0))
	assert.Nil(t, services.AdjustPrice(nil, 2.5))

	tests := []struct {
		name       string
		base       float64
		multiplier float64
		want       float64
	}{
		{"identity multiplier", 10.00, 1.0, 10.00},
		{"wholesale markup", 10.00, 1.5, 15.00},
		{"discount", 10.00, 0.5, 5.00},
		{"max multiplier", 1.00, 20.0, 20.00},
		{"rounds to two decimals", 3.33, 1.1, 3.66}, // 3.663 → 3.66
		{"no float drift", 21.15, 1.0, 21.15},
		{"two decimal result", 33.33, 1.1, 36.66}, // 36.663 → 36.66
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.AdjustPrice(fptr(tt.base), tt.multiplier)
			if assert.NotNil(t, got) {
				assert.InDelta(t, tt.want, *got, 1e-9)
			}
		})
	}
}

func TestIsValidPriceMultiplier(t *testing.T) {
	assert.True(t, services.IsValidPriceMultiplier(0.5))
	assert.True(t, services.IsValidPriceMultiplier(1.0))
	assert.True(t, services.IsValidPriceMultiplier(20.0))

	assert.False(t, services.IsValidPriceMultiplier(0.49))
	assert.False(t, services.IsValidPriceMultiplier(20.01))
	assert.False(t, services.IsValidPriceMultiplier(0))
	assert.False(t, services.IsValidPriceMultiplier(-1))
	assert.False(t, services.IsValidPriceMultiplier(math.NaN()))
	assert.False(t, services.IsValidPriceMultiplier(math.Inf(1)))
	assert.False(t, services.IsValidPriceMultiplier(math.Inf(-1)))
}

func TestCalculateCartTotal(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		assert.Equal(t, 0.0, services.CalculateCartTotal(nil))
	})

	t.Run("sums price times quantity", func(t *testing.T) {
		lines := []services.CartLine{
			{UnitPrice: fptr(15.00), Quantity: 3},
		}
		assert.InDelta(t, 45.00, services.CalculateCartTotal(lines), 1e-9)
	})

	t.Run("skips market-priced lines", func(t *testing.T) {
		lines := []services.CartLine{
			{UnitPrice: fptr(20.00), Quantity: 2},
			{UnitPrice: nil, Quantity: 1},
			{UnitPrice: fptr(0), Quantity: 4},
		}
		assert.InDelta(t, 40.00, services.CalculateCartTotal(lines), 1e-9)
	})

	t.Run("adding a market-priced line never changes the total", func(t *testing.T) {
		lines := []services.CartLine{{UnitPrice: fptr(12.50), Quantity: 2}}
		before := services.CalculateCartTotal(lines)
		lines = append(lines, services.CartLine{UnitPrice: nil, Quantity: 5})
		assert.Equal(t, before, services.CalculateCartTotal(lines))
	})

	t.Run("total is non-decreasing as quantities grow", func(t *testing.T) {
		previous := 0.0
		for quantity := 1; quantity <= 10; quantity++ {
			total := services.CalculateCartTotal([]services.CartLine{
				{UnitPrice: fptr(3.33), Quantity: quantity},
			})
			assert.GreaterOrEqual(t, total, previous)
			previous = total
		}
	})

	t.Run("rounds the final sum to two decimals", func(t *testing.T) {
		lines := []services.CartLine{
			{UnitPrice: fptr(0.10), Quantity: 3},
			{UnitPrice: fptr(0.035), Quantity: 1}, // contrived sub-cent price
		}
		assert.InDelta(t, 0.34, services.CalculateCartTotal(lines), 1e-9) // 0.335 → 0.34
	})
}

func TestRoundMoney(t *testing.T) {
	assert.InDelta(t, 1.49, services.RoundMoney(1.485), 1e-9)
	assert.InDelta(t, 2.00, services.RoundMoney(1.995), 1e-9)
	assert.InDelta(t, 10.00, services.RoundMoney(10.004), 1e-9)
	assert.InDelta(t, 0.00, services.RoundMoney(0), 1e-9)
}
