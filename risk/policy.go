package risk

import (
	"github.com/rustyeddy/spottrader/market"
	"github.com/shopspring/decimal"
)

const DefaultMaxLossCount = 5

var (
	// ProfitReentryFactor places the next buy 0.3% under the last sale.
	ProfitReentryFactor = decimal.RequireFromString("0.997")
	// LossReentryFactor places the next buy 2% under the last sale.
	LossReentryFactor = decimal.RequireFromString("0.98")
)

type Policy struct {
	ProfitPct    decimal.Decimal // 0.3 = +0.3% take-profit
	LossPct      decimal.Decimal // 1 = -1% stop-loss
	MaxLossCount int
}

// Thresholds are derived from the normalized entry price and always
// rounded down to the tick.
type Thresholds struct {
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

func (p Policy) Thresholds(entry, tick decimal.Decimal) Thresholds {
	return Thresholds{
		TakeProfit: TakeProfit(entry, p.ProfitPct, tick),
		StopLoss:   StopLoss(entry, p.LossPct, tick),
	}
}

func TakeProfit(entry, pct, tick decimal.Decimal) decimal.Decimal {
	return market.RoundPrice(entry.Mul(decimal.NewFromInt(1).Add(pct.Div(hundred))), tick)
}

func StopLoss(entry, pct, tick decimal.Decimal) decimal.Decimal {
	return market.RoundPrice(entry.Mul(decimal.NewFromInt(1).Sub(pct.Div(hundred))), tick)
}

// ReentryTarget is the limit price for the buy following an exit at sell.
func ReentryTarget(sell decimal.Decimal, profit bool, tick decimal.Decimal) decimal.Decimal {
	f := LossReentryFactor
	if profit {
		f = ProfitReentryFactor
	}
	return market.RoundPrice(sell.Mul(f), tick)
}

// LossBreaker counts consecutive loss exits. A profit exit resets it; the
// breaker trips exactly when the count reaches Max.
type LossBreaker struct {
	Max   int
	count int
}

func NewLossBreaker(limit int) *LossBreaker {
	if limit <= 0 {
		limit = DefaultMaxLossCount
	}
	return &LossBreaker{Max: limit}
}

// Record registers one exit and reports whether the breaker tripped.
func (b *LossBreaker) Record(profit bool) bool {
	if profit {
		b.count = 0
		return false
	}
	b.count++
	return b.Tripped()
}

func (b *LossBreaker) Tripped() bool { return b.count >= b.Max }

func (b *LossBreaker) Count() int { return b.count }
