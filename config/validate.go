package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ValidationError reports one unusable operator input.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("config: %s %q %s", e.Field, e.Value, e.Reason)
}

func invalid(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// Params is the typed view of a valid Config.
type Params struct {
	Symbol        string
	OrderType     string
	AllocationPct decimal.Decimal
	ProfitPct     decimal.Decimal
	LossPct       decimal.Decimal
	LimitPrice    decimal.Decimal
	MaxLossCount  int
	Interval      time.Duration
	PollInterval  time.Duration
	FillTimeout   time.Duration
	RetryReentry  bool
	Timeout       time.Duration
	LogLevel      logrus.Level
}

// SimParams is the typed view of the simulation section.
type SimParams struct {
	BaseAsset    string
	QuoteAsset   string
	QuoteBalance decimal.Decimal
	BaseBalance  decimal.Decimal
	Step         time.Duration
}

var hundred = decimal.NewFromInt(100)

// Validate checks everything except credentials and the simulation section.
func (c *Config) Validate() error {
	_, err := c.Parse()
	return err
}

// ValidateLive also requires exchange credentials.
func (c *Config) ValidateLive() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Exchange.APIKey == "" {
		return invalid("exchange.api_key", "", "is required")
	}
	if c.Exchange.APISecret == "" {
		return invalid("exchange.api_secret", "", "is required")
	}
	return nil
}

// Parse validates c and converts its numeric fields.
func (c *Config) Parse() (*Params, error) {
	t := c.Trading
	p := &Params{
		Symbol:       strings.ToUpper(strings.TrimSpace(t.Symbol)),
		OrderType:    strings.ToUpper(strings.TrimSpace(t.OrderType)),
		MaxLossCount: t.MaxLossCount,
		RetryReentry: c.Session.RetryReentry,
	}
	var err error

	if p.Symbol == "" {
		return nil, invalid("trading.symbol", "", "is required")
	}
	if p.OrderType != "MARKET" && p.OrderType != "LIMIT" {
		return nil, invalid("trading.order_type", t.OrderType, "must be MARKET or LIMIT")
	}
	if p.AllocationPct, err = positive("trading.allocation_pct", t.AllocationPct); err != nil {
		return nil, err
	}
	if p.AllocationPct.GreaterThan(hundred) {
		return nil, invalid("trading.allocation_pct", t.AllocationPct, "must not exceed 100")
	}
	if p.ProfitPct, err = positive("trading.profit_pct", t.ProfitPct); err != nil {
		return nil, err
	}
	if p.LossPct, err = positive("trading.loss_pct", t.LossPct); err != nil {
		return nil, err
	}
	if !p.LossPct.LessThan(hundred) {
		return nil, invalid("trading.loss_pct", t.LossPct, "must be below 100")
	}
	if p.OrderType == "LIMIT" {
		if p.LimitPrice, err = positive("trading.limit_price", t.LimitPrice); err != nil {
			return nil, err
		}
	}
	if p.MaxLossCount < 1 {
		return nil, invalid("trading.max_loss_count", fmt.Sprint(t.MaxLossCount), "must be at least 1")
	}

	if p.Interval, err = duration("session.interval", c.Session.Interval, true); err != nil {
		return nil, err
	}
	if p.PollInterval, err = duration("session.poll_interval", c.Session.PollInterval, true); err != nil {
		return nil, err
	}
	if p.FillTimeout, err = duration("session.fill_timeout", c.Session.FillTimeout, false); err != nil {
		return nil, err
	}
	if p.Timeout, err = duration("exchange.timeout", c.Exchange.Timeout, false); err != nil {
		return nil, err
	}
	if c.Exchange.BaseURL == "" {
		return nil, invalid("exchange.base_url", "", "is required")
	}
	if c.Exchange.RecvWindow <= 0 || c.Exchange.RecvWindow > 60000 {
		return nil, invalid("exchange.recv_window", fmt.Sprint(c.Exchange.RecvWindow), "must be between 1 and 60000")
	}

	switch c.Journal.Driver {
	case "sqlite", "csv":
		if c.Journal.Path == "" {
			return nil, invalid("journal.path", "", "is required for the "+c.Journal.Driver+" driver")
		}
	case "", "none":
	default:
		return nil, invalid("journal.driver", c.Journal.Driver, "must be sqlite, csv or none")
	}

	level := c.Log.Level
	if level == "" {
		level = "info"
	}
	if p.LogLevel, err = logrus.ParseLevel(level); err != nil {
		return nil, invalid("log.level", c.Log.Level, "is not a log level")
	}
	return p, nil
}

// Parse validates the simulation section. Prices are parsed by the feed.
func (s SimulationConfig) Parse() (*SimParams, error) {
	p := &SimParams{BaseAsset: s.BaseAsset, QuoteAsset: s.QuoteAsset}
	var err error

	if s.BaseAsset == "" || s.QuoteAsset == "" {
		return nil, invalid("simulation.base_asset", s.BaseAsset+"/"+s.QuoteAsset, "both assets are required")
	}
	if p.QuoteBalance, err = positive("simulation.quote_balance", s.QuoteBalance); err != nil {
		return nil, err
	}
	if s.BaseBalance != "" {
		if p.BaseBalance, err = decimal.NewFromString(s.BaseBalance); err != nil || p.BaseBalance.IsNegative() {
			return nil, invalid("simulation.base_balance", s.BaseBalance, "must be a non-negative decimal")
		}
	}
	if len(s.Prices) == 0 {
		return nil, invalid("simulation.prices", "", "needs at least one price")
	}
	for i, v := range s.Prices {
		if _, err := positive(fmt.Sprintf("simulation.prices[%d]", i), v); err != nil {
			return nil, err
		}
	}
	if p.Step, err = duration("simulation.step", s.Step, true); err != nil {
		return nil, err
	}
	return p, nil
}

func positive(field, value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.Zero, invalid(field, "", "is required")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, invalid(field, value, "is not a decimal")
	}
	if !d.IsPositive() {
		return decimal.Zero, invalid(field, value, "must be positive")
	}
	return d, nil
}

func duration(field, value string, required bool) (time.Duration, error) {
	if value == "" {
		if required {
			return 0, invalid(field, "", "is required")
		}
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, invalid(field, value, "is not a duration")
	}
	if d < 0 || (required && d == 0) {
		return 0, invalid(field, value, "must be positive")
	}
	return d, nil
}
