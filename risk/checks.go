package risk

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/market"
	"github.com/shopspring/decimal"
)

const (
	CodeQtyNotPositive   = "QTY_NOT_POSITIVE"
	CodeQtyStep          = "QTY_NOT_STEP_MULTIPLE"
	CodeQtyBelowMin      = "QTY_BELOW_MIN"
	CodeQtyAboveMax      = "QTY_ABOVE_MAX"
	CodePriceTick        = "PRICE_NOT_TICK_MULTIPLE"
	CodePriceBelowMin    = "PRICE_BELOW_MIN"
	CodeNotionalTooLow   = "NOTIONAL_TOO_LOW"
	CodeReferenceNoPrice = "NO_REFERENCE_PRICE"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	Notional decimal.Decimal
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Has reports whether the decision carries a violation with code.
func (d Decision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Without drops the violations carrying code.
func (d Decision) Without(code string) Decision {
	out := Decision{Allowed: true, Notional: d.Notional}
	for _, v := range d.Violations {
		if v.Code != code {
			out.add(v.Code, v.Msg)
		}
	}
	return out
}

// Err is nil for an allowed decision.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	msgs := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		msgs = append(msgs, v.Code+": "+v.Msg)
	}
	return errors.New("order rejected locally: " + strings.Join(msgs, "; "))
}

// CheckOrder validates an already normalized order against the symbol's
// filters. price is the limit price, or the reference price for a market
// order; the notional check uses it either way. isLimit adds the tick check.
func CheckOrder(c market.SymbolConstraints, qty, price decimal.Decimal, isLimit bool) Decision {
	d := Decision{Allowed: true}

	if !qty.IsPositive() {
		d.add(CodeQtyNotPositive, fmt.Sprintf("quantity %s must be positive", qty))
		return d
	}
	if c.StepSize.IsPositive() && !qty.Mod(c.StepSize).IsZero() {
		d.add(CodeQtyStep, fmt.Sprintf("quantity %s is not a multiple of step %s", qty, c.StepSize))
	}
	if qty.LessThan(c.MinQty) {
		d.add(CodeQtyBelowMin, fmt.Sprintf("quantity %s below min %s", qty, c.MinQty))
	}
	if c.MaxQty.IsPositive() && qty.GreaterThan(c.MaxQty) {
		d.add(CodeQtyAboveMax, fmt.Sprintf("quantity %s above max %s", qty, c.MaxQty))
	}

	if !price.IsPositive() {
		d.add(CodeReferenceNoPrice, "no price to value the order")
		return d
	}
	if isLimit {
		if c.TickSize.IsPositive() && !price.Mod(c.TickSize).IsZero() {
			d.add(CodePriceTick, fmt.Sprintf("price %s is not a multiple of tick %s", price, c.TickSize))
		}
		if price.LessThan(c.MinPrice) {
			d.add(CodePriceBelowMin, fmt.Sprintf("price %s below min %s", price, c.MinPrice))
		}
	}

	d.Notional = market.Notional(qty, price)
	if d.Notional.LessThan(c.MinNotional) {
		d.add(CodeNotionalTooLow, fmt.Sprintf("notional %s below min %s", d.Notional, c.MinNotional))
	}
	return d
}
