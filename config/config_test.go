package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultBaseURL, cfg.Exchange.BaseURL)
	assert.Equal(t, "MARKET", cfg.Trading.OrderType)
	assert.Equal(t, 5, cfg.Trading.MaxLossCount)
	assert.Equal(t, "2s", cfg.Session.Interval)
	assert.Equal(t, DefaultLogFile, cfg.Log.File)

	// operator inputs are left empty
	assert.Error(t, cfg.Validate())
	assert.NoError(t, Example().Validate())
}

func TestParse(t *testing.T) {
	p, err := Example().Parse()
	require.NoError(t, err)

	assert.Equal(t, "BNBUSDT", p.Symbol)
	assert.True(t, decimal.RequireFromString("0.3").Equal(p.ProfitPct))
	assert.True(t, decimal.NewFromInt(1).Equal(p.LossPct))
	assert.True(t, decimal.NewFromInt(10).Equal(p.AllocationPct))
	assert.True(t, p.LimitPrice.IsZero())
	assert.Equal(t, 2*time.Second, p.Interval)
	assert.Equal(t, time.Duration(0), p.FillTimeout)
	assert.Equal(t, 10*time.Second, p.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
		errMsg string
	}{
		{"valid config", func(c *Config) {}, "", ""},
		{"lower case symbol", func(c *Config) { c.Trading.Symbol = "bnbusdt" }, "", ""},
		{"missing symbol", func(c *Config) { c.Trading.Symbol = " " }, "trading.symbol", "is required"},
		{"bad order type", func(c *Config) { c.Trading.OrderType = "STOP" }, "trading.order_type", "must be MARKET or LIMIT"},
		{"profit not a number", func(c *Config) { c.Trading.ProfitPct = "abc" }, "trading.profit_pct", "is not a decimal"},
		{"zero loss", func(c *Config) { c.Trading.LossPct = "0" }, "trading.loss_pct", "must be positive"},
		{"negative allocation", func(c *Config) { c.Trading.AllocationPct = "-5" }, "trading.allocation_pct", "must be positive"},
		{"allocation over 100", func(c *Config) { c.Trading.AllocationPct = "100.5" }, "trading.allocation_pct", "must not exceed 100"},
		{"loss of 100", func(c *Config) { c.Trading.LossPct = "100" }, "trading.loss_pct", "must be below 100"},
		{"limit without price", func(c *Config) { c.Trading.OrderType = "LIMIT" }, "trading.limit_price", "is required"},
		{"limit with price", func(c *Config) {
			c.Trading.OrderType = "limit"
			c.Trading.LimitPrice = "299.5"
		}, "", ""},
		{"zero max loss", func(c *Config) { c.Trading.MaxLossCount = 0 }, "trading.max_loss_count", "must be at least 1"},
		{"bad interval", func(c *Config) { c.Session.Interval = "soon" }, "session.interval", "is not a duration"},
		{"zero interval", func(c *Config) { c.Session.Interval = "0s" }, "session.interval", "must be positive"},
		{"negative fill timeout", func(c *Config) { c.Session.FillTimeout = "-1s" }, "session.fill_timeout", "must be positive"},
		{"recv window too large", func(c *Config) { c.Exchange.RecvWindow = 90000 }, "exchange.recv_window", "must be between"},
		{"unknown journal", func(c *Config) { c.Journal.Driver = "mongo" }, "journal.driver", "must be sqlite, csv or none"},
		{"csv without path", func(c *Config) {
			c.Journal.Driver = "csv"
			c.Journal.Path = ""
		}, "journal.path", "is required for the csv driver"},
		{"no journal", func(c *Config) {
			c.Journal.Driver = "none"
			c.Journal.Path = ""
		}, "", ""},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level", "is not a log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Example()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateLive(t *testing.T) {
	cfg := Example()
	err := cfg.ValidateLive()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange.api_key")

	cfg.Exchange.APIKey = "key"
	cfg.Exchange.APISecret = "secret"
	assert.NoError(t, cfg.ValidateLive())
}

func TestSimulationParse(t *testing.T) {
	p, err := Example().Simulation.Parse()
	require.NoError(t, err)
	assert.Equal(t, "BNB", p.BaseAsset)
	assert.Equal(t, "USDT", p.QuoteAsset)
	assert.True(t, decimal.NewFromInt(1000).Equal(p.QuoteBalance))
	assert.True(t, p.BaseBalance.IsZero())
	assert.Equal(t, 2*time.Second, p.Step)

	tests := []struct {
		name   string
		mutate func(s *SimulationConfig)
		errMsg string
	}{
		{"no prices", func(s *SimulationConfig) { s.Prices = nil }, "needs at least one price"},
		{"bad price", func(s *SimulationConfig) { s.Prices = []string{"300", "x"} }, "simulation.prices[1]"},
		{"negative base", func(s *SimulationConfig) { s.BaseBalance = "-1" }, "must be a non-negative decimal"},
		{"missing asset", func(s *SimulationConfig) { s.QuoteAsset = "" }, "both assets are required"},
		{"no step", func(s *SimulationConfig) { s.Step = "" }, "simulation.step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Example().Simulation
			tt.mutate(&s)
			_, err := s.Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
		{"yml format", ".yml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Example()
			cfg.Session.RetryReentry = true
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	data := `
trading:
  symbol: ETHUSDT
  allocation_pct: 25
  profit_pct: 0.5
  loss_pct: 2
session:
  fill_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.Trading.Symbol)
	assert.Equal(t, "25", cfg.Trading.AllocationPct)
	assert.Equal(t, "0.5", cfg.Trading.ProfitPct)
	assert.Equal(t, "MARKET", cfg.Trading.OrderType)
	assert.Equal(t, DefaultBaseURL, cfg.Exchange.BaseURL)

	p, err := cfg.Parse()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, p.FillTimeout)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{trading: [}"), 0600))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tried YAML and JSON")
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("SPOTTRADER_API_SECRET=from-dotenv\nSPOTTRADER_SYMBOL=ETHUSDT\n"), 0600))

	// unset, so the dotenv file may fill them, and restored afterwards
	t.Setenv("SPOTTRADER_API_SECRET", "")
	os.Unsetenv("SPOTTRADER_API_SECRET")
	t.Setenv("SPOTTRADER_SYMBOL", "BTCUSDT")
	t.Setenv("SPOTTRADER_PROFIT_PCT", "0.8")
	t.Setenv("SPOTTRADER_MAX_LOSS_COUNT", "3")
	t.Setenv("SPOTTRADER_RETRY_REENTRY", "true")
	t.Setenv("SPOTTRADER_RECV_WINDOW", "10000")

	cfg := Example()
	require.NoError(t, cfg.ApplyEnv(dotenv, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-dotenv", cfg.Exchange.APISecret)
	// the process environment wins over the dotenv file
	assert.Equal(t, "BTCUSDT", cfg.Trading.Symbol)
	assert.Equal(t, "0.8", cfg.Trading.ProfitPct)
	assert.Equal(t, "1", cfg.Trading.LossPct)
	assert.Equal(t, 3, cfg.Trading.MaxLossCount)
	assert.True(t, cfg.Session.RetryReentry)
	assert.Equal(t, int64(10000), cfg.Exchange.RecvWindow)
}

func TestApplyEnvBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SPOTTRADER_MAX_LOSS_COUNT", "five"},
		{"SPOTTRADER_RECV_WINDOW", "5s"},
		{"SPOTTRADER_RETRY_REENTRY", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := Example().ApplyEnv(filepath.Join(t.TempDir(), "none.env"))
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.key, ve.Field)
		})
	}
}

func TestPrompt(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{
		"Symbol (e.g. BNBUSDT)",
		"Allocation % of free quote balance",
		"Take profit %",
		"Stop loss %",
	}, cfg.Missing(false))
	assert.Len(t, cfg.Missing(true), 6)

	cfg.Trading.OrderType = ""
	in := strings.NewReader("key\nsecret\nbnbusdt\nLIMIT\n301.5\n20\n0.3\n1")
	var out bytes.Buffer
	require.NoError(t, cfg.Prompt(in, &out, true))

	assert.Equal(t, "key", cfg.Exchange.APIKey)
	assert.Equal(t, "secret", cfg.Exchange.APISecret)
	assert.Equal(t, "LIMIT", cfg.Trading.OrderType)
	assert.Equal(t, "301.5", cfg.Trading.LimitPrice)
	assert.Equal(t, "1", cfg.Trading.LossPct)
	assert.Contains(t, out.String(), "Limit entry price: ")
	assert.Empty(t, cfg.Missing(true))
	assert.NoError(t, cfg.ValidateLive())
}

func TestPromptSkipsAnswered(t *testing.T) {
	cfg := Example()
	var out bytes.Buffer
	require.NoError(t, cfg.Prompt(strings.NewReader(""), &out, false))
	assert.Empty(t, out.String())
}

func TestPromptEndOfInput(t *testing.T) {
	cfg := Default()
	err := cfg.Prompt(strings.NewReader("BNBUSDT\n"), &bytes.Buffer{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Allocation %")
}
