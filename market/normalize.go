package market

import "github.com/shopspring/decimal"

// maxPrecision bounds the search in Precision; exchanges publish at most 8
// decimals but some quote 1e-10 ticks on dust pairs.
const maxPrecision = 18

// RoundQuantity truncates q down to a multiple of step. The result never
// exceeds q, so an order sized from it can never over-spend the allocation.
// Negative input normalizes to zero; a non-positive step leaves q untouched.
func RoundQuantity(q, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return q
	}
	if !q.IsPositive() {
		return decimal.Zero
	}
	quo, _ := q.QuoRem(step, 0)
	return quo.Mul(step)
}

// RoundPrice truncates p to tick's decimal precision, always downward, and
// then onto a tick multiple. For decimal ticks (0.01, 0.001) the two steps
// agree; the second only matters for ticks such as 0.05.
func RoundPrice(p, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return p
	}
	prec := Precision(tick)
	t := p.RoundFloor(prec)
	if !t.IsPositive() {
		return decimal.Zero
	}
	quo, _ := t.QuoRem(tick, 0)
	return quo.Mul(tick).Truncate(prec)
}

// Precision is the number of significant decimal places in inc, ignoring
// trailing zeros: "0.01000000" -> 2, "1.00000000" -> 0.
func Precision(inc decimal.Decimal) int32 {
	for p := int32(0); p <= maxPrecision; p++ {
		if inc.Shift(p).IsInteger() {
			return p
		}
	}
	return maxPrecision
}

// FormatPrice renders p with exactly tick's decimal places, the form
// exchanges expect for limit prices.
func FormatPrice(p, tick decimal.Decimal) string {
	return p.StringFixed(Precision(tick))
}

// FormatQty renders q with exactly step's decimal places.
func FormatQty(q, step decimal.Decimal) string {
	return q.StringFixed(Precision(step))
}
