package broker

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Gateway is the exchange capability set the trading core depends on.
// Implementations live in broker/binance (live) and broker/sim (paper).
type Gateway interface {
	ServerTime(ctx context.Context) (time.Time, error)
	SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)
	Balance(ctx context.Context, asset string) (Balance, error)
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)

	SubmitMarketOrder(ctx context.Context, symbol string, side Side, qty decimal.Decimal) (Order, error)
	SubmitLimitOrder(ctx context.Context, symbol string, side Side, qty, price decimal.Decimal) (Order, error)
	OrderStatus(ctx context.Context, symbol, orderID string) (Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (Order, error)

	// RecentTrades returns the account's trades on symbol, oldest first.
	RecentTrades(ctx context.Context, symbol string) ([]Trade, error)
}

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// ParseOrderType accepts "market" or "limit" in any case.
func ParseOrderType(s string) (OrderType, bool) {
	switch OrderType(strings.ToUpper(strings.TrimSpace(s))) {
	case Market:
		return Market, true
	case Limit:
		return Limit, true
	}
	return "", false
}

type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusPendingCancel   OrderStatus = "PENDING_CANCEL"
	StatusCanceled        OrderStatus = "CANCELED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusExpired         OrderStatus = "EXPIRED"
	StatusExpiredInMatch  OrderStatus = "EXPIRED_IN_MATCH"
)

// Terminal reports whether no further fills can happen.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired, StatusExpiredInMatch:
		return true
	}
	return false
}

// Filter types as reported by the exchange.
const (
	FilterLotSize     = "LOT_SIZE"
	FilterPrice       = "PRICE_FILTER"
	FilterMinNotional = "MIN_NOTIONAL"
	FilterNotional    = "NOTIONAL"
)

// Filter is one raw trading rule. Only the fields relevant to Type are set.
type Filter struct {
	Type        string
	MinQty      decimal.Decimal
	MaxQty      decimal.Decimal
	StepSize    decimal.Decimal
	MinPrice    decimal.Decimal
	MaxPrice    decimal.Decimal
	TickSize    decimal.Decimal
	MinNotional decimal.Decimal
	// ApplyToMarket extends the notional minimum to market orders.
	ApplyToMarket bool
}

type SymbolInfo struct {
	Symbol     string
	Status     string
	BaseAsset  string
	QuoteAsset string
	Filters    []Filter
}

// Filter returns the first filter of the given type.
func (s SymbolInfo) Filter(typ string) (Filter, bool) {
	for _, f := range s.Filters {
		if f.Type == typ {
			return f, true
		}
	}
	return Filter{}, false
}

type Balance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// Total is informational only; sizing always uses Free.
func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

type Fill struct {
	Price           decimal.Decimal
	Qty             decimal.Decimal
	Commission      decimal.Decimal
	CommissionAsset string
}

// Order is both the submission acknowledgement and the status snapshot.
type Order struct {
	OrderID         string
	ClientOrderID   string
	Symbol          string
	Side            Side
	Type            OrderType
	Status          OrderStatus
	Price           decimal.Decimal
	OrigQty         decimal.Decimal
	ExecutedQty     decimal.Decimal
	CumulativeQuote decimal.Decimal
	Fills           []Fill
	Time            time.Time
}

// AvgFillPrice is the quantity-weighted fill price. It falls back to
// cumulative quote / executed quantity when the response carried no fills.
func (o Order) AvgFillPrice() (decimal.Decimal, bool) {
	qty := decimal.Zero
	quote := decimal.Zero
	for _, f := range o.Fills {
		qty = qty.Add(f.Qty)
		quote = quote.Add(f.Price.Mul(f.Qty))
	}
	if qty.IsPositive() {
		return quote.Div(qty), true
	}
	if o.ExecutedQty.IsPositive() && o.CumulativeQuote.IsPositive() {
		return o.CumulativeQuote.Div(o.ExecutedQty), true
	}
	return decimal.Zero, false
}

// FilledQty prefers the summed fills, then the executed quantity.
func (o Order) FilledQty() decimal.Decimal {
	qty := decimal.Zero
	for _, f := range o.Fills {
		qty = qty.Add(f.Qty)
	}
	if qty.IsPositive() {
		return qty
	}
	return o.ExecutedQty
}

type Trade struct {
	ID      string
	OrderID string
	Symbol  string
	Price   decimal.Decimal
	Qty     decimal.Decimal
	IsBuyer bool
	Time    time.Time
}
