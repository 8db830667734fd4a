package executor

import (
	"context"
	"time"

	"github.com/rustyeddy/spottrader/broker"
	"github.com/shopspring/decimal"
)

const cancelTimeout = 10 * time.Second

// awaitFill polls o until it fills. It checks the status first and sleeps
// between checks. A nil Result means the order filled.
func (x *Executor) awaitFill(ctx context.Context, o broker.Order) (broker.Order, *Result) {
	log := x.log.WithField("order_id", o.OrderID)

	var deadline time.Time
	if x.cfg.FillTimeout > 0 {
		deadline = x.clock.Now().Add(x.cfg.FillTimeout)
	}

	cur := o
	for {
		switch {
		case cur.Status == broker.StatusFilled:
			log.Info("limit order filled")
			return cur, nil
		case cur.Status.Terminal():
			log.Errorf("limit order ended %s", cur.Status)
			return cur, &Result{
				OrderID:  cur.OrderID,
				Qty:      cur.ExecutedQty,
				Executed: cur.ExecutedQty.IsPositive(),
				Reason:   "limit order ended " + string(cur.Status),
			}
		case !deadline.IsZero() && !x.clock.Now().Before(deadline):
			log.Warnf("limit order not filled within %s, cancelling", x.cfg.FillTimeout)
			return x.cancel(ctx, cur, "fill timeout")
		}

		log.Info("limit order not filled yet, waiting")
		if err := x.clock.Sleep(ctx, x.cfg.PollInterval); err != nil {
			log.WithError(err).Warn("stopped waiting for fill, cancelling")
			return x.cancel(ctx, cur, "wait cancelled")
		}

		st, err := x.gw.OrderStatus(ctx, cur.Symbol, cur.OrderID)
		if err != nil {
			log.WithError(err).Warn("order status, retrying next interval")
			continue
		}
		cur = st
	}
}

// cancel is best effort. The request outlives a cancelled ctx so an order
// is not left on the book on shutdown. When the cancel is refused the order
// is read back, since it may have filled after the last poll: a filled
// order is returned with a nil Result, like any other fill.
func (x *Executor) cancel(ctx context.Context, o broker.Order, reason string) (broker.Order, *Result) {
	cctx, done := context.WithTimeout(context.WithoutCancel(ctx), cancelTimeout)
	defer done()

	log := x.log.WithField("order_id", o.OrderID)
	res := &Result{OrderID: o.OrderID, Qty: o.ExecutedQty, Reason: reason}
	c, err := x.gw.CancelOrder(cctx, o.Symbol, o.OrderID)
	if err != nil {
		log.WithError(err).Error("cancel order")
		st, serr := x.gw.OrderStatus(cctx, o.Symbol, o.OrderID)
		if serr != nil {
			log.WithError(serr).Error("order status after failed cancel, check the account")
			res.Executed = o.ExecutedQty.IsPositive()
			return o, res
		}
		if st.Status == broker.StatusFilled {
			log.Warn("order filled before it could be cancelled")
			return st, nil
		}
		c = st
	}
	res.Qty = c.ExecutedQty
	res.Executed = c.ExecutedQty.IsPositive()
	if res.Executed {
		log.WithField("executed", c.ExecutedQty.String()).Error("cancelled order was partially filled")
	}
	return c, res
}

// tradePrice is the price of the most recent account trade on the symbol.
// A trade belonging to the order wins; otherwise the newest trade is used,
// which is only right while nothing else trades the symbol on the account.
func (x *Executor) tradePrice(ctx context.Context, o broker.Order) (decimal.Decimal, bool) {
	trades, err := x.gw.RecentTrades(ctx, o.Symbol)
	if err != nil {
		x.log.WithError(err).Warn("recent trades")
	}
	for i := len(trades) - 1; i >= 0; i-- {
		if trades[i].OrderID != "" && trades[i].OrderID == o.OrderID {
			return trades[i].Price, true
		}
	}
	if len(trades) > 0 {
		return trades[len(trades)-1].Price, true
	}
	return o.AvgFillPrice()
}
