// Package sim is an in-memory exchange for paper trading and tests. Prices
// come from scripted feeds driven by an injected clock; orders are checked
// against the symbol's filters and settled against in-memory balances.
package sim

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/pkg/clock"
	"github.com/shopspring/decimal"
)

// Operation names accepted by FailNext.
const (
	OpServerTime   = "ServerTime"
	OpSymbolInfo   = "SymbolInfo"
	OpBalance      = "Balance"
	OpLastPrice    = "LastPrice"
	OpMarketOrder  = "SubmitMarketOrder"
	OpLimitOrder   = "SubmitLimitOrder"
	OpOrderStatus  = "OrderStatus"
	OpCancelOrder  = "CancelOrder"
	OpRecentTrades = "RecentTrades"
)

type symbolState struct {
	info broker.SymbolInfo
	feed *Feed
}

type Engine struct {
	mu sync.Mutex

	clock    clock.Clock
	symbols  map[string]*symbolState
	balances map[string]*broker.Balance
	orders   map[string]*broker.Order
	trades   map[string][]broker.Trade
	failures map[string][]error

	nextOrderID int64
	nextTradeID int64
}

var _ broker.Gateway = (*Engine)(nil)

func NewEngine(c clock.Clock) *Engine {
	if c == nil {
		c = clock.Real{}
	}
	return &Engine{
		clock:    c,
		symbols:  make(map[string]*symbolState),
		balances: make(map[string]*broker.Balance),
		orders:   make(map[string]*broker.Order),
		trades:   make(map[string][]broker.Trade),
		failures: make(map[string][]error),
	}
}

// StandardSymbol returns filters shaped like a typical USDT spot pair.
func StandardSymbol(symbol, base, quote string) broker.SymbolInfo {
	d := decimal.RequireFromString
	return broker.SymbolInfo{
		Symbol:     symbol,
		Status:     "TRADING",
		BaseAsset:  base,
		QuoteAsset: quote,
		Filters: []broker.Filter{
			{Type: broker.FilterPrice, MinPrice: d("0.01"), MaxPrice: d("1000000"), TickSize: d("0.01")},
			{Type: broker.FilterLotSize, MinQty: d("0.01"), MaxQty: d("900000"), StepSize: d("0.01")},
			{Type: broker.FilterNotional, MinNotional: d("10")},
		},
	}
}

// AddSymbol lists a symbol with a price feed. Its assets start with a zero
// balance unless SetBalance has already funded them.
func (e *Engine) AddSymbol(info broker.SymbolInfo, feed *Feed) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if feed.Start.IsZero() {
		feed.Start = e.clock.Now()
	}
	e.symbols[info.Symbol] = &symbolState{info: info, feed: feed}
	for _, a := range []string{info.BaseAsset, info.QuoteAsset} {
		if _, ok := e.balances[a]; !ok && a != "" {
			e.balances[a] = &broker.Balance{Asset: a}
		}
	}
}

func (e *Engine) SetBalance(asset string, free decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balances[asset] = &broker.Balance{Asset: asset, Free: free}
}

// FailNext queues err as the result of the next call to op.
func (e *Engine) FailNext(op string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[op] = append(e.failures[op], err)
}

// Orders returns every order the engine has seen, in submission order.
func (e *Engine) Orders() []broker.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]broker.Order, 0, len(e.orders))
	for _, o := range e.orders {
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseInt(out[i].OrderID, 10, 64)
		b, _ := strconv.ParseInt(out[j].OrderID, 10, 64)
		return a < b
	})
	return out
}

// Exhausted reports whether symbol's feed is on its final price.
func (e *Engine) Exhausted(symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.symbols[symbol]
	return ok && s.feed.Exhausted(e.clock.Now())
}

func (e *Engine) failLocked(op string) error {
	q := e.failures[op]
	if len(q) == 0 {
		return nil
	}
	e.failures[op] = q[1:]
	return q[0]
}

func (e *Engine) symbolLocked(op, symbol string) (*symbolState, error) {
	s, ok := e.symbols[symbol]
	if !ok {
		return nil, &broker.Error{Kind: broker.KindRejected, Op: op, Status: 400, Code: -1121, Msg: "Invalid symbol.", Err: broker.ErrUnknownSymbol}
	}
	e.syncLocked(s)
	return s, nil
}

func (e *Engine) ServerTime(ctx context.Context) (time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpServerTime); err != nil {
		return time.Time{}, err
	}
	return e.clock.Now(), nil
}

func (e *Engine) SymbolInfo(ctx context.Context, symbol string) (broker.SymbolInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpSymbolInfo); err != nil {
		return broker.SymbolInfo{}, err
	}
	s, ok := e.symbols[symbol]
	if !ok {
		return broker.SymbolInfo{}, errors.Wrap(broker.ErrUnknownSymbol, symbol)
	}
	return s.info, nil
}

func (e *Engine) Balance(ctx context.Context, asset string) (broker.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpBalance); err != nil {
		return broker.Balance{}, err
	}
	for _, s := range e.symbols {
		e.syncLocked(s)
	}
	b, ok := e.balances[asset]
	if !ok {
		return broker.Balance{}, errors.Wrap(broker.ErrNotFound, asset)
	}
	return *b, nil
}

func (e *Engine) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpLastPrice); err != nil {
		return decimal.Zero, err
	}
	s, err := e.symbolLocked("ticker", symbol)
	if err != nil {
		return decimal.Zero, err
	}
	p, ok := s.feed.PriceAt(e.clock.Now())
	if !ok {
		return decimal.Zero, &broker.Error{Kind: broker.KindNetwork, Op: "ticker", Msg: "no price for " + symbol}
	}
	return p, nil
}

func (e *Engine) SubmitMarketOrder(ctx context.Context, symbol string, side broker.Side, qty decimal.Decimal) (broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpMarketOrder); err != nil {
		return broker.Order{}, err
	}
	s, err := e.symbolLocked("order", symbol)
	if err != nil {
		return broker.Order{}, err
	}
	price, ok := s.feed.PriceAt(e.clock.Now())
	if !ok {
		return broker.Order{}, rejected("no market price")
	}
	if err := checkFilters(s.info, qty, price, false); err != nil {
		return broker.Order{}, err
	}

	o := e.newOrderLocked(symbol, side, broker.Market, qty, decimal.Zero)
	if err := e.settleLocked(s, o, price); err != nil {
		delete(e.orders, o.OrderID)
		return broker.Order{}, err
	}
	return copyOrder(o), nil
}

func (e *Engine) SubmitLimitOrder(ctx context.Context, symbol string, side broker.Side, qty, price decimal.Decimal) (broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpLimitOrder); err != nil {
		return broker.Order{}, err
	}
	s, err := e.symbolLocked("order", symbol)
	if err != nil {
		return broker.Order{}, err
	}
	if err := checkFilters(s.info, qty, price, true); err != nil {
		return broker.Order{}, err
	}

	o := e.newOrderLocked(symbol, side, broker.Limit, qty, price)
	if err := e.lockLocked(s.info, o); err != nil {
		delete(e.orders, o.OrderID)
		return broker.Order{}, err
	}

	// A marketable limit order takes liquidity at the current price.
	if last, ok := s.feed.PriceAt(e.clock.Now()); ok && crosses(o, last) {
		e.unlockLocked(s.info, o)
		if err := e.settleLocked(s, o, last); err != nil {
			delete(e.orders, o.OrderID)
			return broker.Order{}, err
		}
	}
	return copyOrder(o), nil
}

func (e *Engine) OrderStatus(ctx context.Context, symbol, orderID string) (broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpOrderStatus); err != nil {
		return broker.Order{}, err
	}
	if _, err := e.symbolLocked("order", symbol); err != nil {
		return broker.Order{}, err
	}
	o, ok := e.orders[orderID]
	if !ok || o.Symbol != symbol {
		return broker.Order{}, &broker.Error{Kind: broker.KindRejected, Op: "order", Status: 400, Code: -2013, Msg: "Order does not exist.", Err: broker.ErrNotFound}
	}
	return copyOrder(o), nil
}

func (e *Engine) CancelOrder(ctx context.Context, symbol, orderID string) (broker.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpCancelOrder); err != nil {
		return broker.Order{}, err
	}
	s, err := e.symbolLocked("cancel", symbol)
	if err != nil {
		return broker.Order{}, err
	}
	o, ok := e.orders[orderID]
	if !ok || o.Symbol != symbol || o.Status.Terminal() {
		return broker.Order{}, &broker.Error{Kind: broker.KindRejected, Op: "cancel", Status: 400, Code: -2011, Msg: "Unknown order sent.", Err: broker.ErrNotFound}
	}
	e.unlockLocked(s.info, o)
	o.Status = broker.StatusCanceled
	return copyOrder(o), nil
}

func (e *Engine) RecentTrades(ctx context.Context, symbol string) ([]broker.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.failLocked(OpRecentTrades); err != nil {
		return nil, err
	}
	if _, err := e.symbolLocked("trades", symbol); err != nil {
		return nil, err
	}
	return append([]broker.Trade(nil), e.trades[symbol]...), nil
}

func rejected(msg string) error {
	return &broker.Error{Kind: broker.KindRejected, Op: "order", Status: 400, Code: -1013, Msg: msg}
}

func checkFilters(info broker.SymbolInfo, qty, price decimal.Decimal, isLimit bool) error {
	if lot, ok := info.Filter(broker.FilterLotSize); ok {
		if qty.LessThan(lot.MinQty) || (lot.MaxQty.IsPositive() && qty.GreaterThan(lot.MaxQty)) ||
			(lot.StepSize.IsPositive() && !qty.Mod(lot.StepSize).IsZero()) {
			return rejected("Filter failure: LOT_SIZE")
		}
	}
	if pf, ok := info.Filter(broker.FilterPrice); ok && isLimit {
		if price.LessThan(pf.MinPrice) || (pf.TickSize.IsPositive() && !price.Mod(pf.TickSize).IsZero()) {
			return rejected("Filter failure: PRICE_FILTER")
		}
	}
	for _, typ := range []string{broker.FilterMinNotional, broker.FilterNotional} {
		f, ok := info.Filter(typ)
		if !ok || (!isLimit && !f.ApplyToMarket) {
			continue
		}
		if qty.Mul(price).LessThan(f.MinNotional) {
			return rejected(fmt.Sprintf("Filter failure: %s", typ))
		}
	}
	return nil
}
