package risk

import "github.com/shopspring/decimal"

// RealizedPnL is the quote-currency result of buying qty at entry and
// selling it at exit. Commissions are not deducted.
func RealizedPnL(entry, exit, qty decimal.Decimal) decimal.Decimal {
	return exit.Sub(entry).Mul(qty)
}

// ReturnPct is the move from entry to exit in percent units.
func ReturnPct(entry, exit decimal.Decimal) decimal.Decimal {
	if entry.IsZero() {
		return decimal.Zero
	}
	return exit.Sub(entry).Div(entry).Mul(hundred)
}

// RR is the reward-to-risk ratio of the configured thresholds.
func RR(entry decimal.Decimal, th Thresholds) decimal.Decimal {
	risk := entry.Sub(th.StopLoss).Abs()
	if risk.IsZero() {
		return decimal.Zero
	}
	return th.TakeProfit.Sub(entry).Abs().Div(risk)
}
