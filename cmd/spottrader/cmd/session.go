package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/account"
	"github.com/rustyeddy/spottrader/broker"
	"github.com/rustyeddy/spottrader/config"
	"github.com/rustyeddy/spottrader/executor"
	"github.com/rustyeddy/spottrader/journal"
	"github.com/rustyeddy/spottrader/market"
	"github.com/rustyeddy/spottrader/pkg/clock"
	"github.com/rustyeddy/spottrader/pkg/logger"
	"github.com/rustyeddy/spottrader/position"
	"github.com/sirupsen/logrus"
)

// runtime owns the logger and journal for one command invocation.
type runtime struct {
	log     *logger.Logger
	journal journal.Journal
}

func openRuntime(cfg *config.Config, params *config.Params, console io.Writer) (*runtime, error) {
	lg, err := logger.New(logger.Config{
		Level:      params.LogLevel.String(),
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Console:    console,
	})
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(cfg.Journal.Driver, cfg.Journal.Path)
	if err != nil {
		_ = lg.Close()
		return nil, errors.Wrap(err, "open journal")
	}
	lg.AddHook(journal.NewHook(j))
	return &runtime{log: lg, journal: j}, nil
}

func (r *runtime) Close() error {
	jerr := r.journal.Close()
	lerr := r.log.Close()
	if jerr != nil {
		return errors.Wrap(jerr, "close journal")
	}
	return lerr
}

// runSession wires the trading core over gw and runs it until it halts or
// ctx is cancelled. The report is nil when setup failed before a session
// existed.
func runSession(ctx context.Context, gw broker.Gateway, clk clock.Clock, p *config.Params, rt *runtime) (*position.Report, error) {
	cons, err := market.Resolve(ctx, gw, p.Symbol, rt.log.Component("market", p.Symbol))
	if err != nil {
		return nil, err
	}

	typ, ok := broker.ParseOrderType(p.OrderType)
	if !ok {
		return nil, errors.Errorf("unsupported order type %q", p.OrderType)
	}

	base := logrus.NewEntry(rt.log.Logger)
	exec := executor.New(gw, cons, clk, base, executor.Config{
		PollInterval: p.PollInterval,
		FillTimeout:  p.FillTimeout,
	})

	m, err := position.NewManager(position.Session{
		Symbol:        p.Symbol,
		AllocationPct: p.AllocationPct,
		ProfitPct:     p.ProfitPct,
		LossPct:       p.LossPct,
		MaxLossCount:  p.MaxLossCount,
		OrderType:     typ,
		LimitPrice:    p.LimitPrice,
		Interval:      p.Interval,
		RetryReentry:  p.RetryReentry,
	}, position.Deps{
		Prices:      gw,
		Orders:      exec,
		Balances:    account.NewAccessor(gw, rt.log.Component("account", p.Symbol)),
		Constraints: cons,
		Clock:       clk,
		Log:         base,
		Journal:     rt.journal,
	})
	if err != nil {
		return nil, err
	}
	r, err := m.Run(ctx)
	return &r, err
}

func printReport(w io.Writer, r *position.Report) {
	if r == nil {
		return
	}
	fmt.Fprintf(w, "Session %s: %s\n", r.Symbol, r.State)
	fmt.Fprintf(w, "  Round trips: %d (%d wins, %d losses)\n", r.RoundTrips, r.Wins, r.Losses)
	fmt.Fprintf(w, "  Consecutive losses: %d\n", r.ConsecutiveLosses)
	fmt.Fprintf(w, "  Realized P/L: %s\n", r.RealizedPnL.StringFixed(8))
	if p := r.Position; p != nil {
		fmt.Fprintf(w, "  Open position: %s @ %s (tp %s, sl %s)\n", p.Qty, p.EntryPrice, p.TakeProfit, p.StopLoss)
	}
}
