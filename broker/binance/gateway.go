package binance

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/market"
	"github.com/rustyeddy/spottrader/pkg/id"
	"github.com/shopspring/decimal"
)

const (
	pathTime         = "/api/v3/time"
	pathExchangeInfo = "/api/v3/exchangeInfo"
	pathAccount      = "/api/v3/account"
	pathTickerPrice  = "/api/v3/ticker/price"
	pathOrder        = "/api/v3/order"
	pathMyTrades     = "/api/v3/myTrades"

	recentTradesLimit = "50"
)

func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	var out serverTimeResponse
	if err := c.public(ctx, pathTime, nil, &out); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(out.ServerTime).UTC(), nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (broker.SymbolInfo, error) {
	var out exchangeInfoResponse
	err := c.public(ctx, pathExchangeInfo, url.Values{"symbol": {strings.ToUpper(symbol)}}, &out)
	if err != nil {
		return broker.SymbolInfo{}, err
	}
	for _, s := range out.Symbols {
		if strings.EqualFold(s.Symbol, symbol) {
			info := s.info()
			c.remember(info)
			return info, nil
		}
	}
	return broker.SymbolInfo{}, errors.Wrap(broker.ErrUnknownSymbol, symbol)
}

// Balance reads one asset from the account snapshot. An asset the account
// has never held is ErrNotFound.
func (c *Client) Balance(ctx context.Context, asset string) (broker.Balance, error) {
	var out accountResponse
	if err := c.signed(ctx, http.MethodGet, pathAccount, url.Values{"omitZeroBalances": {"false"}}, &out); err != nil {
		return broker.Balance{}, err
	}
	for _, b := range out.Balances {
		if strings.EqualFold(b.Asset, asset) {
			return broker.Balance{Asset: b.Asset, Free: b.Free, Locked: b.Locked}, nil
		}
	}
	return broker.Balance{}, errors.Wrap(broker.ErrNotFound, asset)
}

func (c *Client) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var out tickerPriceResponse
	if err := c.public(ctx, pathTickerPrice, url.Values{"symbol": {strings.ToUpper(symbol)}}, &out); err != nil {
		return decimal.Zero, err
	}
	if !out.Price.IsPositive() {
		return decimal.Zero, &broker.Error{Kind: broker.KindUnknown, Op: pathTickerPrice, Msg: "no price for " + symbol}
	}
	return out.Price, nil
}

func (c *Client) SubmitMarketOrder(ctx context.Context, symbol string, side broker.Side, qty decimal.Decimal) (broker.Order, error) {
	params := c.orderParams(symbol, side, broker.Market, qty)
	return c.placeOrder(ctx, params)
}

func (c *Client) SubmitLimitOrder(ctx context.Context, symbol string, side broker.Side, qty, price decimal.Decimal) (broker.Order, error) {
	params := c.orderParams(symbol, side, broker.Limit, qty)
	params.Set("timeInForce", "GTC")
	params.Set("price", c.lookup(symbol).price(price))
	return c.placeOrder(ctx, params)
}

func (c *Client) orderParams(symbol string, side broker.Side, typ broker.OrderType, qty decimal.Decimal) url.Values {
	return url.Values{
		"symbol":           {strings.ToUpper(symbol)},
		"side":             {string(side)},
		"type":             {string(typ)},
		"quantity":         {c.lookup(symbol).qty(qty)},
		"newClientOrderId": {id.ClientOrderID()},
		"newOrderRespType": {"FULL"},
	}
}

// increments renders order values at the symbol's precision. Symbols never
// looked up go out in shortest form.
type increments struct {
	tick decimal.Decimal
	step decimal.Decimal
}

func (inc increments) price(p decimal.Decimal) string {
	if !inc.tick.IsPositive() {
		return p.String()
	}
	return market.FormatPrice(p, inc.tick)
}

func (inc increments) qty(q decimal.Decimal) string {
	if !inc.step.IsPositive() {
		return q.String()
	}
	return market.FormatQty(q, inc.step)
}

func (c *Client) remember(info broker.SymbolInfo) {
	var inc increments
	if f, ok := info.Filter(broker.FilterPrice); ok {
		inc.tick = f.TickSize
	}
	if f, ok := info.Filter(broker.FilterLotSize); ok {
		inc.step = f.StepSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incs[strings.ToUpper(info.Symbol)] = inc
}

func (c *Client) lookup(symbol string) increments {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.incs[strings.ToUpper(symbol)]
}

func (c *Client) placeOrder(ctx context.Context, params url.Values) (broker.Order, error) {
	var out orderJSON
	if err := c.signed(ctx, http.MethodPost, pathOrder, params, &out); err != nil {
		return broker.Order{}, err
	}
	return out.order(), nil
}

func (c *Client) OrderStatus(ctx context.Context, symbol, orderID string) (broker.Order, error) {
	var out orderJSON
	params := url.Values{"symbol": {strings.ToUpper(symbol)}, "orderId": {orderID}}
	if err := c.signed(ctx, http.MethodGet, pathOrder, params, &out); err != nil {
		return broker.Order{}, err
	}
	return out.order(), nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) (broker.Order, error) {
	var out orderJSON
	params := url.Values{"symbol": {strings.ToUpper(symbol)}, "orderId": {orderID}}
	if err := c.signed(ctx, http.MethodDelete, pathOrder, params, &out); err != nil {
		return broker.Order{}, err
	}
	return out.order(), nil
}

func (c *Client) RecentTrades(ctx context.Context, symbol string) ([]broker.Trade, error) {
	var out []tradeJSON
	params := url.Values{"symbol": {strings.ToUpper(symbol)}, "limit": {recentTradesLimit}}
	if err := c.signed(ctx, http.MethodGet, pathMyTrades, params, &out); err != nil {
		return nil, err
	}
	trades := make([]broker.Trade, 0, len(out))
	for _, t := range out {
		trades = append(trades, t.trade())
	}
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].Time.Before(trades[j].Time) })
	return trades, nil
}
