// Package account reads spendable balances from the exchange.
package account

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type BalanceSource interface {
	Balance(ctx context.Context, asset string) (broker.Balance, error)
}

type Accessor struct {
	src BalanceSource
	log *logrus.Entry
}

func NewAccessor(src BalanceSource, log *logrus.Entry) *Accessor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Accessor{src: src, log: log.WithField("component", "account")}
}

// Available returns the free balance of asset. Locked funds are never
// spendable. An asset the account does not hold is a zero balance.
func (a *Accessor) Available(ctx context.Context, asset string) (decimal.Decimal, error) {
	b, err := a.src.Balance(ctx, asset)
	if errors.Is(err, broker.ErrNotFound) {
		a.log.WithField("asset", asset).Error("asset not held by account, treating balance as zero")
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "balance %s", asset)
	}

	a.log.WithFields(logrus.Fields{
		"asset":  asset,
		"free":   b.Free.String(),
		"locked": b.Locked.String(),
		"total":  b.Total().String(),
	}).Info("balance")
	return b.Free, nil
}
