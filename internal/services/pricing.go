package services

import "math"

// Price multiplier bounds. A user's multiplier scales base catalog prices to
// that user's displayed/billed prices.
const (
	MinPriceMultiplier = 0.5
	MaxPriceMultiplier = 20.0
)

// RoundMoney rounds a monetary amount to 2 decimals, half-up on the scaled
// integer, so repeated adjustments do not accumulate visible float drift.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// AdjustPrice applies a per-user multiplier to a base catalog price. A nil
// base means the product is market-priced; a market price is never
// multiplied, the result stays nil.
func AdjustPrice(basePrice *float64, multiplier float64) *float64 {
	if basePrice == nil {
		return nil
	}
	adjusted := RoundMoney(*basePrice * multiplier)
	return &adjusted
}

// IsValidPriceMultiplier reports whether m is a finite value within
// [MinPriceMultiplier, MaxPriceMultiplier].
func IsValidPriceMultiplier(m float64) bool {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return false
	}
	return m >= MinPriceMultiplier && m <= MaxPriceMultiplier
}

// CartLine is one priced line of a cart as seen by the total calculator.
type CartLine struct {
	UnitPrice *float64
	Quantity  int
}

// CalculateCartTotal sums cart lines into a subtotal. Lines with a nil or
// zero unit price are market-priced and not yet determined; they contribute
// nothing to the displayed subtotal.
func CalculateCartTotal(lines []CartLine) float64 {
	var total float64
	for _, line := range lines {
		if line.UnitPrice == nil || *line.UnitPrice == 0 {
			continue
		}
		total += *line.UnitPrice * float64(line.Quantity)
	}
	return RoundMoney(total)
}
