package binance

import (
	"strconv"
	"time"

	"github.com/rustyeddy/spottrader/broker"
	"github.com/shopspring/decimal"
)

type serverTimeResponse struct {
	ServerTime int64 `json:"serverTime"`
}

type filterJSON struct {
	FilterType  string          `json:"filterType"`
	MinQty      decimal.Decimal `json:"minQty"`
	MaxQty      decimal.Decimal `json:"maxQty"`
	StepSize    decimal.Decimal `json:"stepSize"`
	MinPrice    decimal.Decimal `json:"minPrice"`
	MaxPrice    decimal.Decimal `json:"maxPrice"`
	TickSize    decimal.Decimal `json:"tickSize"`
	MinNotional decimal.Decimal `json:"minNotional"`

	// MIN_NOTIONAL uses applyToMarket, NOTIONAL uses applyMinToMarket.
	ApplyToMarket    bool `json:"applyToMarket"`
	ApplyMinToMarket bool `json:"applyMinToMarket"`
}

type symbolJSON struct {
	Symbol     string       `json:"symbol"`
	Status     string       `json:"status"`
	BaseAsset  string       `json:"baseAsset"`
	QuoteAsset string       `json:"quoteAsset"`
	Filters    []filterJSON `json:"filters"`
}

type exchangeInfoResponse struct {
	Symbols []symbolJSON `json:"symbols"`
}

type balanceJSON struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

type accountResponse struct {
	CanTrade bool          `json:"canTrade"`
	Balances []balanceJSON `json:"balances"`
}

type tickerPriceResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

type fillJSON struct {
	Price           decimal.Decimal `json:"price"`
	Qty             decimal.Decimal `json:"qty"`
	Commission      decimal.Decimal `json:"commission"`
	CommissionAsset string          `json:"commissionAsset"`
}

// orderJSON covers the POST (FULL), GET and DELETE order responses.
type orderJSON struct {
	Symbol              string          `json:"symbol"`
	OrderID             int64           `json:"orderId"`
	ClientOrderID       string          `json:"clientOrderId"`
	TransactTime        int64           `json:"transactTime"`
	Time                int64           `json:"time"`
	Price               decimal.Decimal `json:"price"`
	OrigQty             decimal.Decimal `json:"origQty"`
	ExecutedQty         decimal.Decimal `json:"executedQty"`
	CummulativeQuoteQty decimal.Decimal `json:"cummulativeQuoteQty"`
	Status              string          `json:"status"`
	Type                string          `json:"type"`
	Side                string          `json:"side"`
	Fills               []fillJSON      `json:"fills"`
}

func (o orderJSON) order() broker.Order {
	ms := o.TransactTime
	if ms == 0 {
		ms = o.Time
	}
	out := broker.Order{
		OrderID:         strconv.FormatInt(o.OrderID, 10),
		ClientOrderID:   o.ClientOrderID,
		Symbol:          o.Symbol,
		Side:            broker.Side(o.Side),
		Type:            broker.OrderType(o.Type),
		Status:          broker.OrderStatus(o.Status),
		Price:           o.Price,
		OrigQty:         o.OrigQty,
		ExecutedQty:     o.ExecutedQty,
		CumulativeQuote: o.CummulativeQuoteQty,
	}
	if ms > 0 {
		out.Time = time.UnixMilli(ms).UTC()
	}
	for _, f := range o.Fills {
		out.Fills = append(out.Fills, broker.Fill{
			Price:           f.Price,
			Qty:             f.Qty,
			Commission:      f.Commission,
			CommissionAsset: f.CommissionAsset,
		})
	}
	return out
}

type tradeJSON struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"orderId"`
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Qty      decimal.Decimal `json:"qty"`
	IsBuyer  bool            `json:"isBuyer"`
	TimeUnix int64           `json:"time"`
}

func (t tradeJSON) trade() broker.Trade {
	return broker.Trade{
		ID:      strconv.FormatInt(t.ID, 10),
		OrderID: strconv.FormatInt(t.OrderID, 10),
		Symbol:  t.Symbol,
		Price:   t.Price,
		Qty:     t.Qty,
		IsBuyer: t.IsBuyer,
		Time:    time.UnixMilli(t.TimeUnix).UTC(),
	}
}

func (s symbolJSON) info() broker.SymbolInfo {
	out := broker.SymbolInfo{
		Symbol:     s.Symbol,
		Status:     s.Status,
		BaseAsset:  s.BaseAsset,
		QuoteAsset: s.QuoteAsset,
	}
	for _, f := range s.Filters {
		out.Filters = append(out.Filters, broker.Filter{
			Type:        f.FilterType,
			MinQty:      f.MinQty,
			MaxQty:      f.MaxQty,
			StepSize:    f.StepSize,
			MinPrice:    f.MinPrice,
			MaxPrice:    f.MaxPrice,
			TickSize:    f.TickSize,
			MinNotional: f.MinNotional,

			ApplyToMarket: f.ApplyToMarket || f.ApplyMinToMarket,
		})
	}
	return out
}
