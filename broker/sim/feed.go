package sim

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultStep = 2 * time.Second

// Feed is a scripted price series. Price i is current from Start+i*Step
// until the next step; the last price holds once the script runs out.
type Feed struct {
	Prices []decimal.Decimal
	Step   time.Duration
	Start  time.Time

	// idx is the last index the engine matched resting orders against.
	idx int
}

func NewFeed(start time.Time, step time.Duration, prices ...decimal.Decimal) *Feed {
	if step <= 0 {
		step = DefaultStep
	}
	return &Feed{Prices: prices, Step: step, Start: start}
}

// ParsePrices is a convenience for scripts held as strings in config files.
func ParsePrices(ss []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(ss))
	for _, s := range ss {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *Feed) indexAt(now time.Time) int {
	if len(f.Prices) == 0 {
		return -1
	}
	if now.Before(f.Start) {
		return 0
	}
	i := int(now.Sub(f.Start) / f.Step)
	if i >= len(f.Prices) {
		i = len(f.Prices) - 1
	}
	return i
}

// PriceAt returns the price current at now.
func (f *Feed) PriceAt(now time.Time) (decimal.Decimal, bool) {
	i := f.indexAt(now)
	if i < 0 {
		return decimal.Zero, false
	}
	return f.Prices[i], true
}

// Exhausted reports whether the final scripted price is current.
func (f *Feed) Exhausted(now time.Time) bool {
	return f.indexAt(now) == len(f.Prices)-1
}
