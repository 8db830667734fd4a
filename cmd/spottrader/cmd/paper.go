package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rustyeddy/spottrader/broker/sim"
	"github.com/rustyeddy/spottrader/config"
	"github.com/rustyeddy/spottrader/pkg/clock"
	"github.com/rustyeddy/spottrader/position"
	"github.com/spf13/cobra"
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Trade against the simulated exchange",
	Long: `Run a session against an in-memory exchange that replays the price script
from the simulation section of the config, one price per step.

The session ends when it halts, when the script has played out or on SIGINT.
With --instant the clock is simulated and the whole script runs at once.

Example:
  spottrader paper -c bot.yaml --instant`,
	Args: cobra.NoArgs,
	RunE: runPaper,
}

var (
	paperFlags   sessionFlags
	paperInstant bool
)

func init() {
	rootCmd.AddCommand(paperCmd)
	paperFlags.register(paperCmd)
	paperCmd.Flags().BoolVar(&paperInstant, "instant", false, "simulate the clock instead of waiting in real time")
}

func runPaper(cmd *cobra.Command, args []string) error {
	cfg, params, err := loadConfig(cmd, &paperFlags, false, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	sp, err := cfg.Simulation.Parse()
	if err != nil {
		return err
	}

	rt, err := openRuntime(cfg, params, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clk clock.Clock = clock.Real{}
	if paperInstant {
		clk = clock.NewFake(time.Now())
	}
	_, err = paper(ctx, clk, cfg.Simulation, params, sp, rt, cmd.OutOrStdout())
	return err
}

// paper runs one session on a fresh simulated exchange and stops it one
// interval after the last scripted price.
func paper(ctx context.Context, clk clock.Clock, sc config.SimulationConfig, p *config.Params, sp *config.SimParams, rt *runtime, out io.Writer) (*position.Report, error) {
	prices, err := sim.ParsePrices(sc.Prices)
	if err != nil {
		return nil, err
	}

	start := clk.Now()
	eng := sim.NewEngine(clk)
	eng.AddSymbol(sim.StandardSymbol(p.Symbol, sp.BaseAsset, sp.QuoteAsset), sim.NewFeed(start, sp.Step, prices...))
	eng.SetBalance(sp.QuoteAsset, sp.QuoteBalance)
	if sp.BaseBalance.IsPositive() {
		eng.SetBalance(sp.BaseAsset, sp.BaseBalance)
	}

	deadline := start.Add(time.Duration(len(prices))*sp.Step + p.Interval)
	var cancel context.CancelFunc
	if fake, ok := clk.(*clock.Fake); ok {
		ctx, cancel = context.WithCancel(ctx)
		fake.OnSleep = func(now time.Time) {
			if now.After(deadline) {
				cancel()
			}
		}
	} else {
		ctx, cancel = context.WithDeadline(ctx, deadline)
	}
	defer cancel()

	rt.log.Component("spottrader", p.Symbol).Infof("paper session over %d prices every %s", len(prices), sp.Step)
	report, err := runSession(ctx, eng, clk, p, rt)
	if report == nil {
		return nil, err
	}
	printReport(out, report)

	// the session ctx may be done already
	for _, asset := range []string{sp.BaseAsset, sp.QuoteAsset} {
		if b, berr := eng.Balance(context.Background(), asset); berr == nil {
			fmt.Fprintf(out, "  %s: %s free, %s locked\n", asset, b.Free, b.Locked)
		}
	}
	return report, err
}
