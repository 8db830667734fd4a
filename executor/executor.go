// Package executor submits entry and exit orders and resolves the realized
// fill. Gateway failures never escape it; every call returns a Result.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/market"
	"github.com/rustyeddy/spottrader/pkg/clock"
	"github.com/rustyeddy/spottrader/risk"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultPollInterval = 2 * time.Second

type Config struct {
	// PollInterval separates limit order status checks.
	PollInterval time.Duration
	// FillTimeout bounds the wait for a limit entry to fill. Zero waits
	// until the order fills, fails or ctx is cancelled.
	FillTimeout time.Duration
}

// Request is one order as the executor sees it after normalization.
type Request struct {
	Side   broker.Side
	Type   broker.OrderType
	Symbol string
	Qty    decimal.Decimal
	Price  decimal.Decimal
}

type Result struct {
	Success bool
	Price   decimal.Decimal
	Qty     decimal.Decimal
	OrderID string

	// Executed is set when the exchange traded even though Success is
	// false, e.g. a market fill whose notional came in under the minimum.
	Executed bool
	Reason   string
}

func failed(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

type Executor struct {
	gw    broker.Gateway
	cons  market.SymbolConstraints
	clock clock.Clock
	log   *logrus.Entry
	cfg   Config
}

func New(gw broker.Gateway, cons market.SymbolConstraints, clk clock.Clock, log *logrus.Entry, cfg Config) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{
		gw:    gw,
		cons:  cons,
		clock: clk,
		log:   log.WithFields(logrus.Fields{"component": "executor", "symbol": cons.Symbol}),
		cfg:   cfg,
	}
}

func (x *Executor) Constraints() market.SymbolConstraints { return x.cons }

// normalize rounds the request onto the symbol's increments and runs the
// local filter checks. ref is the price the notional is valued at.
func (x *Executor) normalize(ctx context.Context, typ broker.OrderType, side broker.Side, qty, price decimal.Decimal) (Request, decimal.Decimal, *Result) {
	req := Request{
		Side:   side,
		Type:   typ,
		Symbol: x.cons.Symbol,
		Qty:    market.RoundQuantity(qty, x.cons.StepSize),
	}

	ref := decimal.Zero
	switch typ {
	case broker.Limit:
		if !price.IsPositive() {
			r := failed("limit order needs a price")
			return req, ref, &r
		}
		req.Price = market.RoundPrice(price, x.cons.TickSize)
		ref = req.Price
	case broker.Market:
		last, err := x.gw.LastPrice(ctx, x.cons.Symbol)
		if err != nil {
			x.log.WithError(err).Error("price for order check")
			r := failed("price for order check: %v", err)
			return req, ref, &r
		}
		ref = last
	default:
		r := failed("unsupported order type %q", typ)
		return req, ref, &r
	}

	dec := risk.CheckOrder(x.cons, req.Qty, ref, typ == broker.Limit)
	if typ == broker.Market && side == broker.Sell {
		// A market sell has no price of its own; the exchange decides
		// whether the notional minimum applies to it.
		dec = dec.Without(risk.CodeNotionalTooLow)
	}
	if !dec.Allowed {
		x.log.WithFields(logrus.Fields{
			"side":  side,
			"type":  typ,
			"qty":   req.Qty.String(),
			"price": ref.String(),
		}).Warn(dec.Err())
		r := failed("%v", dec.Err())
		return req, ref, &r
	}
	return req, ref, nil
}

// PlaceEntry buys qty. price is the limit price and is ignored for market
// orders.
func (x *Executor) PlaceEntry(ctx context.Context, typ broker.OrderType, qty, price decimal.Decimal) Result {
	req, _, res := x.normalize(ctx, typ, broker.Buy, qty, price)
	if res != nil {
		return *res
	}

	switch req.Type {
	case broker.Market:
		x.log.Infof("market buy %s %s", req.Qty, req.Symbol)
		o, err := x.gw.SubmitMarketOrder(ctx, req.Symbol, broker.Buy, req.Qty)
		if err != nil {
			x.log.WithError(err).Error("market buy")
			return failed("market buy: %v", err)
		}
		avg, ok := o.AvgFillPrice()
		if !ok {
			x.log.WithField("order_id", o.OrderID).Error("market buy reported no fills")
			return Result{OrderID: o.OrderID, Reason: "market buy reported no fills"}
		}
		return x.confirm(o.OrderID, avg, o.FilledQty())

	default:
		x.log.Infof("limit buy %s %s at %s", req.Qty, req.Symbol, market.FormatPrice(req.Price, x.cons.TickSize))
		o, err := x.gw.SubmitLimitOrder(ctx, req.Symbol, broker.Buy, req.Qty, req.Price)
		if err != nil {
			x.log.WithError(err).Error("limit buy")
			return failed("limit buy: %v", err)
		}
		filled, res := x.awaitFill(ctx, o)
		if res != nil {
			return *res
		}
		// the wait may have ended with ctx cancelled and the order filled anyway
		price, ok := x.tradePrice(context.WithoutCancel(ctx), filled)
		if !ok {
			x.log.WithField("order_id", filled.OrderID).Error("no trade found for filled order")
			return Result{OrderID: filled.OrderID, Executed: true, Qty: filled.FilledQty(), Reason: "no trade found for filled order"}
		}
		return x.confirm(filled.OrderID, price, filled.FilledQty())
	}
}

// confirm applies the post-fill notional check to an executed buy.
func (x *Executor) confirm(orderID string, price, qty decimal.Decimal) Result {
	res := Result{Success: true, Price: price, Qty: qty, OrderID: orderID, Executed: true}
	notional := market.Notional(qty, price)
	if notional.LessThan(x.cons.MinNotional) {
		x.log.WithFields(logrus.Fields{
			"order_id": orderID,
			"notional": notional.String(),
		}).Errorf("filled notional below minimum %s, position must be reconciled by hand", x.cons.MinNotional)
		res.Success = false
		res.Reason = fmt.Sprintf("filled notional %s below minimum %s", notional, x.cons.MinNotional)
		return res
	}
	x.log.WithField("order_id", orderID).Infof("bought %s at %s", qty, price)
	return res
}

// PlaceExit sells qty, at market when price is zero and at price otherwise.
//
// Exits do not wait for a fill the way limit entries do: the submission
// response is taken as final, so a limit sell resting on the book reports
// success with no fill price.
func (x *Executor) PlaceExit(ctx context.Context, qty, price decimal.Decimal) Result {
	typ := broker.Market
	if price.IsPositive() {
		typ = broker.Limit
	}
	req, _, res := x.normalize(ctx, typ, broker.Sell, qty, price)
	if res != nil {
		return *res
	}

	var (
		o   broker.Order
		err error
	)
	if typ == broker.Market {
		x.log.Infof("market sell %s %s", req.Qty, req.Symbol)
		o, err = x.gw.SubmitMarketOrder(ctx, req.Symbol, broker.Sell, req.Qty)
	} else {
		x.log.Infof("limit sell %s %s at %s", req.Qty, req.Symbol, market.FormatPrice(req.Price, x.cons.TickSize))
		o, err = x.gw.SubmitLimitOrder(ctx, req.Symbol, broker.Sell, req.Qty, req.Price)
	}
	if err != nil {
		x.log.WithError(err).Error("sell")
		return failed("sell: %v", err)
	}
	if o.Status == broker.StatusRejected || o.Status == broker.StatusExpired {
		x.log.WithField("order_id", o.OrderID).Errorf("sell ended %s", o.Status)
		return Result{OrderID: o.OrderID, Reason: fmt.Sprintf("sell ended %s", o.Status)}
	}

	out := Result{Success: true, OrderID: o.OrderID, Qty: req.Qty}
	if avg, ok := o.AvgFillPrice(); ok {
		out.Price = avg
		out.Qty = o.FilledQty()
		out.Executed = true
	}
	x.log.WithFields(logrus.Fields{
		"order_id": o.OrderID,
		"status":   o.Status,
	}).Infof("sold %s at %s", out.Qty, out.Price)
	return out
}
