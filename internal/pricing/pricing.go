package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// EffectivePrice returns the lower of the listed and discounted price.
// Upstream data sometimes carries a "discount" above the listed price, so
// the listed price acts as a ceiling.
func EffectivePrice(price, discounted float64) float64 {
	return math.Min(discounted, price)
}

// DiscountPercent returns the whole-number discount relative to price, or 0
// when there is no meaningful discount.
func DiscountPercent(price, discounted float64) int {
	if price <= 0 || discounted >= price {
		return 0
	}
	return int(math.Round((price - discounted) / price * 100))
}

// LineTotal multiplies a unit price by a quantity without float drift.
func LineTotal(unit float64, qty int) float64 {
	return decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(qty))).InexactFloat64()
}

// Sum adds a series of amounts.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}
