package position

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/executor"
	"github.com/rustyeddy/spottrader/journal"
	"github.com/rustyeddy/spottrader/market"
	"github.com/rustyeddy/spottrader/pkg/clock"
	"github.com/rustyeddy/spottrader/risk"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultInterval = 2 * time.Second

// Session holds the operator's trading parameters. Percentages are in
// percent units.
type Session struct {
	Symbol        string
	AllocationPct decimal.Decimal
	ProfitPct     decimal.Decimal
	LossPct       decimal.Decimal
	MaxLossCount  int
	OrderType     broker.OrderType
	// LimitPrice is the first entry price for limit sessions.
	LimitPrice decimal.Decimal
	Interval   time.Duration
	// RetryReentry re-attempts a failed re-entry on every later tick
	// instead of waiting flat.
	RetryReentry bool
}

func (s Session) policy() risk.Policy {
	return risk.Policy{ProfitPct: s.ProfitPct, LossPct: s.LossPct, MaxLossCount: s.MaxLossCount}
}

// Orders is the executor surface the manager drives.
type Orders interface {
	PlaceEntry(ctx context.Context, typ broker.OrderType, qty, price decimal.Decimal) executor.Result
	PlaceExit(ctx context.Context, qty, price decimal.Decimal) executor.Result
}

type Balances interface {
	Available(ctx context.Context, asset string) (decimal.Decimal, error)
}

type Prices interface {
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Deps is built once at startup and shared by every call of the session.
type Deps struct {
	Prices      Prices
	Orders      Orders
	Balances    Balances
	Constraints market.SymbolConstraints
	Clock       clock.Clock
	Log         *logrus.Entry
	Journal     journal.Journal
}

func (d *Deps) validate() error {
	switch {
	case d.Prices == nil:
		return errors.New("position: prices source is required")
	case d.Orders == nil:
		return errors.New("position: order executor is required")
	case d.Balances == nil:
		return errors.New("position: balance accessor is required")
	case d.Constraints.Symbol == "":
		return errors.New("position: symbol constraints are required")
	}
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if d.Journal == nil {
		d.Journal = journal.Discard{}
	}
	return nil
}
