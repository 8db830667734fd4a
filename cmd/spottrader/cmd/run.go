package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/broker/binance"
	"github.com/rustyeddy/spottrader/pkg/clock"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trade live against Binance",
	Long: `Run a live session against the Binance spot API. Orders are real.

The session ends when the consecutive loss limit is reached or on SIGINT or
SIGTERM. An open position is left open on shutdown.

Example:
  spottrader run -c bot.yaml --symbol BNBUSDT --profit 0.3 --loss 1 --allocation 10`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runFlags   sessionFlags
	runTestnet bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runFlags.register(runCmd)
	runCmd.Flags().BoolVar(&runTestnet, "testnet", false, "use the spot testnet base URL")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, params, err := loadConfig(cmd, &runFlags, true, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if runTestnet {
		cfg.Exchange.BaseURL = binance.TestnetURL
	}

	rt, err := openRuntime(cfg, params, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := binance.New(binance.Config{
		APIKey:     cfg.Exchange.APIKey,
		APISecret:  cfg.Exchange.APISecret,
		BaseURL:    cfg.Exchange.BaseURL,
		RecvWindow: msDuration(cfg.Exchange.RecvWindow),
		Timeout:    params.Timeout,
	})

	log := rt.log.Component("spottrader", params.Symbol)
	off, err := client.SyncTime(ctx)
	if err != nil {
		log.WithError(err).Error("exchange connection failed")
		return errors.Wrap(err, "connect")
	}
	log.WithField("offset", off.String()).Infof("connected to %s", cfg.Exchange.BaseURL)

	report, err := runSession(ctx, client, clock.Real{}, params, rt)
	printReport(cmd.OutOrStdout(), report)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func msDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }
