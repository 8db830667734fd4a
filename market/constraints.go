package market

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultMinNotional is used when the exchange publishes no notional filter.
var DefaultMinNotional = decimal.NewFromInt(10)

var ErrMissingFilter = errors.New("required filter missing")

// SymbolConstraints are the exchange trading rules for one symbol. They are
// fetched once per session and never change afterwards.
type SymbolConstraints struct {
	Symbol      string
	BaseAsset   string
	QuoteAsset  string
	MinQty      decimal.Decimal
	MaxQty      decimal.Decimal
	StepSize    decimal.Decimal
	MinPrice    decimal.Decimal
	TickSize    decimal.Decimal
	MinNotional decimal.Decimal

	// NotionalDefaulted is true when MinNotional is DefaultMinNotional
	// because the exchange omitted the filter.
	NotionalDefaulted bool
}

// Notional is price × quantity.
func Notional(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price)
}

// InfoSource is the part of broker.Gateway the resolver needs.
type InfoSource interface {
	SymbolInfo(ctx context.Context, symbol string) (broker.SymbolInfo, error)
}

// Resolve fetches symbol's filters and converts them. Any error is fatal to
// session startup.
func Resolve(ctx context.Context, src InfoSource, symbol string, log *logrus.Entry) (SymbolConstraints, error) {
	info, err := src.SymbolInfo(ctx, symbol)
	if err != nil {
		return SymbolConstraints{}, errors.Wrapf(err, "fetch symbol info %s", symbol)
	}
	if info.Symbol == "" {
		return SymbolConstraints{}, errors.Wrap(broker.ErrUnknownSymbol, symbol)
	}

	c, err := FromSymbolInfo(info)
	if err != nil {
		return SymbolConstraints{}, err
	}

	fields := logrus.Fields{
		"min_qty":      c.MinQty.String(),
		"max_qty":      c.MaxQty.String(),
		"step_size":    c.StepSize.String(),
		"min_price":    c.MinPrice.String(),
		"tick_size":    c.TickSize.String(),
		"min_notional": c.MinNotional.String(),
	}
	if log != nil {
		if c.NotionalDefaulted {
			log.WithFields(fields).Warnf("no min notional filter for %s, using default %s", symbol, DefaultMinNotional)
		} else {
			log.WithFields(fields).Infof("resolved trading filters for %s", symbol)
		}
	}
	return c, nil
}

// FromSymbolInfo requires LOT_SIZE and PRICE_FILTER. MIN_NOTIONAL (or the
// newer NOTIONAL filter) is optional.
func FromSymbolInfo(info broker.SymbolInfo) (SymbolConstraints, error) {
	lot, ok := info.Filter(broker.FilterLotSize)
	if !ok {
		return SymbolConstraints{}, errors.Wrapf(ErrMissingFilter, "%s for %s", broker.FilterLotSize, info.Symbol)
	}
	price, ok := info.Filter(broker.FilterPrice)
	if !ok {
		return SymbolConstraints{}, errors.Wrapf(ErrMissingFilter, "%s for %s", broker.FilterPrice, info.Symbol)
	}

	c := SymbolConstraints{
		Symbol:      info.Symbol,
		BaseAsset:   info.BaseAsset,
		QuoteAsset:  info.QuoteAsset,
		MinQty:      lot.MinQty,
		MaxQty:      lot.MaxQty,
		StepSize:    lot.StepSize,
		MinPrice:    price.MinPrice,
		TickSize:    price.TickSize,
		MinNotional: DefaultMinNotional,
	}

	if f, ok := info.Filter(broker.FilterMinNotional); ok {
		c.MinNotional = f.MinNotional
	} else if f, ok := info.Filter(broker.FilterNotional); ok {
		c.MinNotional = f.MinNotional
	} else {
		c.NotionalDefaulted = true
	}
	return c, nil
}
