package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/broker/sim"
	"github.com/rustyeddy/spottrader/config"
	"github.com/rustyeddy/spottrader/journal"
	"github.com/rustyeddy/spottrader/pkg/clock"
	"github.com/rustyeddy/spottrader/position"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	start, end, err := dayBounds(loc, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))

	_, _, err = dayBounds(loc, "03/02/2026")
	assert.Error(t, err)
}

// The example script: take profit, stop loss, take profit, then a re-entry
// that never fills before the script runs out.
func TestPaperInstant(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Example()
	cfg.Log.File = ""
	cfg.Journal.Path = filepath.Join(dir, "paper.db")

	params, err := cfg.Parse()
	require.NoError(t, err)
	sp, err := cfg.Simulation.Parse()
	require.NoError(t, err)

	var console bytes.Buffer
	rt, err := openRuntime(cfg, params, &console)
	require.NoError(t, err)

	var out bytes.Buffer
	fc := clock.NewFake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	r, err := paper(context.Background(), fc, cfg.Simulation, params, sp, rt, &out)
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	require.NotNil(t, r)
	assert.Equal(t, position.Closed, r.State)
	assert.Equal(t, 3, r.RoundTrips)
	assert.Equal(t, 2, r.Wins)
	assert.Equal(t, 1, r.Losses)
	assert.Equal(t, 0, r.ConsecutiveLosses)
	assert.True(t, decimal.RequireFromString("-0.2001").Equal(r.RealizedPnL), r.RealizedPnL.String())

	assert.Contains(t, out.String(), "Session BNBUSDT: closed")
	assert.Contains(t, out.String(), "Round trips: 3 (2 wins, 1 losses)")
	assert.Contains(t, out.String(), "BNB: 0 free, 0 locked")
	assert.Contains(t, console.String(), "position open")

	j, err := journal.NewSQLite(cfg.Journal.Path)
	require.NoError(t, err)
	defer j.Close()
	trades, err := j.ListTradesClosedBetween(time.Unix(0, 0), time.Now().Add(24*time.Hour*365))
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, journal.ReasonTakeProfit, trades[0].Reason)
	assert.Equal(t, journal.ReasonStopLoss, trades[1].Reason)
}

func TestPaperFatalStart(t *testing.T) {
	cfg := config.Example()
	cfg.Log.File = ""
	cfg.Journal.Driver = "none"
	cfg.Simulation.QuoteBalance = "50" // 10% is below the 10 minimum notional

	params, err := cfg.Parse()
	require.NoError(t, err)
	sp, err := cfg.Simulation.Parse()
	require.NoError(t, err)
	rt, err := openRuntime(cfg, params, &bytes.Buffer{})
	require.NoError(t, err)
	defer rt.Close()

	r, err := paper(context.Background(), clock.NewFake(time.Now()), cfg.Simulation, params, sp, rt, &bytes.Buffer{})
	require.Error(t, err)
	var fe *position.FatalError
	assert.ErrorAs(t, err, &fe)
	require.NotNil(t, r)
	assert.Equal(t, position.Halted, r.State)
}

func TestSessionSetupFailureHasNoReport(t *testing.T) {
	cfg := config.Example()
	cfg.Log.File = ""
	cfg.Journal.Driver = "none"
	params, err := cfg.Parse()
	require.NoError(t, err)
	rt, err := openRuntime(cfg, params, &bytes.Buffer{})
	require.NoError(t, err)
	defer rt.Close()

	fc := clock.NewFake(time.Now())
	r, err := runSession(context.Background(), sim.NewEngine(fc), fc, params, rt)
	require.Error(t, err)
	assert.Nil(t, r)

	var out bytes.Buffer
	printReport(&out, r)
	assert.Empty(t, out.String())
}

func withGlobals(t *testing.T, cfgPath string) {
	t.Helper()
	oldPath, oldEnv, oldPrompt, oldLevel := configPath, envFile, noPrompt, logLevel
	t.Cleanup(func() {
		configPath, envFile, noPrompt, logLevel = oldPath, oldEnv, oldPrompt, oldLevel
	})
	configPath = cfgPath
	envFile = filepath.Join(t.TempDir(), "absent.env")
	noPrompt = false
	logLevel = ""
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, config.Example().SaveToFile(path))
	withGlobals(t, path)
	t.Setenv("SPOTTRADER_LOSS_PCT", "2")
	t.Setenv("SPOTTRADER_PROFIT_PCT", "0.4")

	c := &cobra.Command{}
	var f sessionFlags
	f.register(c)
	require.NoError(t, c.ParseFlags([]string{"--profit", "0.5", "--max-losses", "3", "--order-type", "limit", "--limit-price", "299"}))

	_, p, err := loadConfig(c, &f, false, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.5").Equal(p.ProfitPct)) // flag beats env
	assert.True(t, decimal.RequireFromString("2").Equal(p.LossPct))     // env beats file
	assert.True(t, decimal.RequireFromString("10").Equal(p.AllocationPct))
	assert.Equal(t, "LIMIT", p.OrderType)
	assert.Equal(t, 3, p.MaxLossCount)

	typ, ok := broker.ParseOrderType(p.OrderType)
	require.True(t, ok)
	assert.Equal(t, broker.Limit, typ)
}

func TestLoadConfigPrompts(t *testing.T) {
	withGlobals(t, "")

	var out bytes.Buffer
	in := strings.NewReader("ethusdt\n15\n0.3\n1\n")
	_, p, err := loadConfig(&cobra.Command{}, nil, false, in, &out)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", p.Symbol)
	assert.Contains(t, out.String(), "Take profit %: ")

	noPrompt = true
	_, _, err = loadConfig(&cobra.Command{}, nil, false, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing settings")
}

func TestLoadConfigLiveNeedsCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.json")
	require.NoError(t, config.Example().SaveToFile(path))
	withGlobals(t, path)
	noPrompt = true

	_, _, err := loadConfig(&cobra.Command{}, nil, true, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Binance API key")
}

func TestConfigInitAndValidateCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"config", "init", "-o", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Created example configuration")
	_, err := os.Stat(path)
	require.NoError(t, err)

	out.Reset()
	rootCmd.SetArgs([]string{"config", "validate", "-f", path})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Symbol: BNBUSDT (MARKET entry, 10% of free balance)")

	rootCmd.SetArgs([]string{"config", "validate", "-f", path, "--live"})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange.api_key")
	configValidateLive = false

	out.Reset()
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "spottrader version "+version+"\n", out.String())
}
