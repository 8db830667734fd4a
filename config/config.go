// Package config loads the bot's settings from defaults, a YAML or JSON file,
// the environment and, for anything still missing, an interactive prompt.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL    = "https://api.binance.com"
	DefaultRecvWindow = 5000
	DefaultLogFile    = "trading_bot.log"
	DefaultJournal    = "spottrader.db"
)

// Config represents the complete bot configuration. Numeric trading inputs
// are kept as decimal strings until Parse.
type Config struct {
	Exchange   ExchangeConfig   `json:"exchange" yaml:"exchange"`
	Trading    TradingConfig    `json:"trading" yaml:"trading"`
	Session    SessionConfig    `json:"session" yaml:"session"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
}

type ExchangeConfig struct {
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	BaseURL   string `json:"base_url" yaml:"base_url"`
	// RecvWindow is in milliseconds.
	RecvWindow int64  `json:"recv_window" yaml:"recv_window"`
	Timeout    string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type TradingConfig struct {
	Symbol        string `json:"symbol" yaml:"symbol"`
	OrderType     string `json:"order_type" yaml:"order_type"` // MARKET or LIMIT
	AllocationPct string `json:"allocation_pct" yaml:"allocation_pct"`
	ProfitPct     string `json:"profit_pct" yaml:"profit_pct"`
	LossPct       string `json:"loss_pct" yaml:"loss_pct"`
	LimitPrice    string `json:"limit_price,omitempty" yaml:"limit_price,omitempty"`
	MaxLossCount  int    `json:"max_loss_count" yaml:"max_loss_count"`
}

type SessionConfig struct {
	Interval     string `json:"interval" yaml:"interval"`                             // e.g. "2s"
	PollInterval string `json:"poll_interval" yaml:"poll_interval"`                   // fill polling
	FillTimeout  string `json:"fill_timeout,omitempty" yaml:"fill_timeout,omitempty"` // empty waits forever
	RetryReentry bool   `json:"retry_reentry" yaml:"retry_reentry"`
}

type JournalConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "sqlite", "csv" or "none"
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// SimulationConfig drives paper mode against the in-memory exchange.
type SimulationConfig struct {
	BaseAsset    string   `json:"base_asset" yaml:"base_asset"`
	QuoteAsset   string   `json:"quote_asset" yaml:"quote_asset"`
	QuoteBalance string   `json:"quote_balance" yaml:"quote_balance"`
	BaseBalance  string   `json:"base_balance,omitempty" yaml:"base_balance,omitempty"`
	Prices       []string `json:"prices" yaml:"prices"`
	Step         string   `json:"step" yaml:"step"`
}

// LoadFromFile reads a YAML or JSON file on top of Default. The result is
// not validated.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, errors.Wrapf(jerr, "parse config %s (tried YAML and JSON)", path)
		}
	}
	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	// Credentials may be in the file.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}

// Default returns the non-operator settings. Symbol, percentages and
// credentials are left for the file, environment or prompt.
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			BaseURL:    DefaultBaseURL,
			RecvWindow: DefaultRecvWindow,
			Timeout:    "10s",
		},
		Trading: TradingConfig{
			OrderType:    "MARKET",
			MaxLossCount: 5,
		},
		Session: SessionConfig{
			Interval:     "2s",
			PollInterval: "2s",
		},
		Journal: JournalConfig{
			Driver: "sqlite",
			Path:   DefaultJournal,
		},
		Log: LogConfig{
			Level:      "info",
			File:       DefaultLogFile,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Simulation: SimulationConfig{
			BaseAsset:    "BNB",
			QuoteAsset:   "USDT",
			QuoteBalance: "1000",
			Step:         "2s",
		},
	}
}

// Example is Default with a complete BNBUSDT session, written by
// "config init".
func Example() *Config {
	c := Default()
	c.Trading.Symbol = "BNBUSDT"
	c.Trading.AllocationPct = "10"
	c.Trading.ProfitPct = "0.3"
	c.Trading.LossPct = "1"
	c.Simulation.Prices = []string{"300", "300.5", "301", "299", "297", "291", "290.9", "291.5", "292.5"}
	return c
}
