package sim

import (
	"sort"
	"strconv"

	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/pkg/id"
	"github.com/shopspring/decimal"
)

func insufficient() error {
	return &broker.Error{Kind: broker.KindRejected, Op: "order", Status: 400, Code: -2010, Msg: "Account has insufficient balance for requested action."}
}

func (e *Engine) newOrderLocked(symbol string, side broker.Side, typ broker.OrderType, qty, price decimal.Decimal) *broker.Order {
	e.nextOrderID++
	o := &broker.Order{
		OrderID:       strconv.FormatInt(e.nextOrderID, 10),
		ClientOrderID: id.ClientOrderID(),
		Symbol:        symbol,
		Side:          side,
		Type:          typ,
		Status:        broker.StatusNew,
		Price:         price,
		OrigQty:       qty,
		Time:          e.clock.Now(),
	}
	e.orders[o.OrderID] = o
	return o
}

func (e *Engine) balanceLocked(asset string) *broker.Balance {
	b, ok := e.balances[asset]
	if !ok {
		b = &broker.Balance{Asset: asset}
		e.balances[asset] = b
	}
	return b
}

func remaining(o *broker.Order) decimal.Decimal {
	return o.OrigQty.Sub(o.ExecutedQty)
}

// lockLocked reserves the funds a resting limit order needs.
func (e *Engine) lockLocked(info broker.SymbolInfo, o *broker.Order) error {
	asset, amt := info.BaseAsset, remaining(o)
	if o.Side == broker.Buy {
		asset, amt = info.QuoteAsset, remaining(o).Mul(o.Price)
	}
	b := e.balanceLocked(asset)
	if b.Free.LessThan(amt) {
		return insufficient()
	}
	b.Free = b.Free.Sub(amt)
	b.Locked = b.Locked.Add(amt)
	return nil
}

func (e *Engine) unlockLocked(info broker.SymbolInfo, o *broker.Order) {
	if o.Type != broker.Limit || o.Status.Terminal() {
		return
	}
	asset, amt := info.BaseAsset, remaining(o)
	if o.Side == broker.Buy {
		asset, amt = info.QuoteAsset, remaining(o).Mul(o.Price)
	}
	b := e.balanceLocked(asset)
	b.Locked = b.Locked.Sub(amt)
	b.Free = b.Free.Add(amt)
}

// settleLocked fills the rest of o at price and moves the balances.
func (e *Engine) settleLocked(s *symbolState, o *broker.Order, price decimal.Decimal) error {
	qty := remaining(o)
	quoteAmt := qty.Mul(price)
	base := e.balanceLocked(s.info.BaseAsset)
	quote := e.balanceLocked(s.info.QuoteAsset)

	switch o.Side {
	case broker.Buy:
		if quote.Free.LessThan(quoteAmt) {
			return insufficient()
		}
		quote.Free = quote.Free.Sub(quoteAmt)
		base.Free = base.Free.Add(qty)
	case broker.Sell:
		if base.Free.LessThan(qty) {
			return insufficient()
		}
		base.Free = base.Free.Sub(qty)
		quote.Free = quote.Free.Add(quoteAmt)
	}

	o.ExecutedQty = o.OrigQty
	o.CumulativeQuote = o.CumulativeQuote.Add(quoteAmt)
	o.Status = broker.StatusFilled
	o.Fills = append(o.Fills, broker.Fill{Price: price, Qty: qty, CommissionAsset: s.info.QuoteAsset})

	e.nextTradeID++
	e.trades[o.Symbol] = append(e.trades[o.Symbol], broker.Trade{
		ID:      strconv.FormatInt(e.nextTradeID, 10),
		OrderID: o.OrderID,
		Symbol:  o.Symbol,
		Price:   price,
		Qty:     qty,
		IsBuyer: o.Side == broker.Buy,
		Time:    e.clock.Now(),
	})
	return nil
}

// crosses reports whether a limit order is marketable at price.
func crosses(o *broker.Order, price decimal.Decimal) bool {
	if o.Side == broker.Buy {
		return price.LessThanOrEqual(o.Price)
	}
	return price.GreaterThanOrEqual(o.Price)
}

// syncLocked walks the feed up to the clock and fills resting orders at
// their limit price against every price passed on the way.
func (e *Engine) syncLocked(s *symbolState) {
	target := s.feed.indexAt(e.clock.Now())
	for s.feed.idx < target {
		s.feed.idx++
		price := s.feed.Prices[s.feed.idx]
		for _, o := range e.restingLocked(s.info.Symbol) {
			if !crosses(o, price) {
				continue
			}
			e.unlockLocked(s.info, o)
			if err := e.settleLocked(s, o, o.Price); err != nil {
				_ = e.lockLocked(s.info, o)
			}
		}
	}
}

func (e *Engine) restingLocked(symbol string) []*broker.Order {
	var out []*broker.Order
	for _, o := range e.orders {
		if o.Symbol == symbol && o.Type == broker.Limit && !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseInt(out[i].OrderID, 10, 64)
		b, _ := strconv.ParseInt(out[j].OrderID, 10, 64)
		return a < b
	})
	return out
}

func copyOrder(o *broker.Order) broker.Order {
	c := *o
	c.Fills = append([]broker.Fill(nil), o.Fills...)
	return c
}
