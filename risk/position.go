package risk

import (
	"github.com/rustyeddy/spottrader/market"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Inputs struct {
	FreeQuote      decimal.Decimal
	AllocationPct  decimal.Decimal // 50 = half the free balance
	ReferencePrice decimal.Decimal
	Constraints    market.SymbolConstraints
}

type Result struct {
	Allocation decimal.Decimal
	RawQty     decimal.Decimal
	Qty        decimal.Decimal
	Notional   decimal.Decimal
	Capped     bool
}

// Allocation is the share of free quote balance committed to one entry.
func Allocation(free, pct decimal.Decimal) decimal.Decimal {
	return free.Mul(pct).Div(hundred)
}

// Calculate turns a free quote balance into an exchange-legal order quantity:
// allocation = free × pct/100, qty = floor(allocation/price) capped at maxQty.
func Calculate(in Inputs) Result {
	res := Result{Allocation: Allocation(in.FreeQuote, in.AllocationPct)}
	if !in.ReferencePrice.IsPositive() {
		return res
	}

	res.RawQty = res.Allocation.Div(in.ReferencePrice)
	res.Qty = market.RoundQuantity(res.RawQty, in.Constraints.StepSize)

	if maxQty := in.Constraints.MaxQty; maxQty.IsPositive() && res.Qty.GreaterThan(maxQty) {
		res.Qty = market.RoundQuantity(maxQty, in.Constraints.StepSize)
		res.Capped = true
	}
	res.Notional = market.Notional(res.Qty, in.ReferencePrice)
	return res
}
