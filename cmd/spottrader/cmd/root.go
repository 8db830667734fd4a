package cmd

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spottrader",
	Short: "Single-symbol spot trading bot for Binance",
	Long: `spottrader buys one symbol with a slice of the free quote balance, exits at a
take-profit or stop-loss percentage, re-enters with a limit order below the
exit and halts after a run of consecutive losses.

Settings come from defaults, a YAML or JSON file (--config), a .env file and
SPOTTRADER_* environment variables, command line flags and finally an
interactive prompt for anything still missing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	envFile    string
	logLevel   string
	noPrompt   bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with SPOTTRADER_* variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&noPrompt, "no-prompt", false, "fail instead of prompting for missing settings")
}

// sessionFlags override the trading section for run and paper.
type sessionFlags struct {
	symbol       string
	orderType    string
	allocation   string
	profit       string
	loss         string
	limitPrice   string
	maxLosses    int
	retryReentry bool
	journal      string
	journalPath  string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.symbol, "symbol", "s", "", "symbol to trade, e.g. BNBUSDT")
	fs.StringVar(&f.orderType, "order-type", "", "first entry order type: MARKET or LIMIT")
	fs.StringVar(&f.allocation, "allocation", "", "percent of the free quote balance per entry")
	fs.StringVar(&f.profit, "profit", "", "take-profit percent above entry")
	fs.StringVar(&f.loss, "loss", "", "stop-loss percent below entry")
	fs.StringVar(&f.limitPrice, "limit-price", "", "first entry price for LIMIT sessions")
	fs.IntVar(&f.maxLosses, "max-losses", 0, "consecutive losses before halting")
	fs.BoolVar(&f.retryReentry, "retry-reentry", false, "retry a failed re-entry on every later cycle")
	fs.StringVar(&f.journal, "journal", "", "journal driver: sqlite|csv|none")
	fs.StringVar(&f.journalPath, "journal-path", "", "sqlite file or csv directory")
}

func (f *sessionFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := func(dst *string, name, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set(&cfg.Trading.Symbol, "symbol", f.symbol)
	set(&cfg.Trading.OrderType, "order-type", f.orderType)
	set(&cfg.Trading.AllocationPct, "allocation", f.allocation)
	set(&cfg.Trading.ProfitPct, "profit", f.profit)
	set(&cfg.Trading.LossPct, "loss", f.loss)
	set(&cfg.Trading.LimitPrice, "limit-price", f.limitPrice)
	set(&cfg.Journal.Driver, "journal", f.journal)
	set(&cfg.Journal.Path, "journal-path", f.journalPath)
	if cmd.Flags().Changed("max-losses") {
		cfg.Trading.MaxLossCount = f.maxLosses
	}
	if cmd.Flags().Changed("retry-reentry") {
		cfg.Session.RetryReentry = f.retryReentry
	}
}

// loadConfig layers defaults, file, environment and flags, then prompts on
// in/out for whatever the operator still has to supply.
func loadConfig(cmd *cobra.Command, flags *sessionFlags, live bool, in io.Reader, out io.Writer) (*config.Config, *config.Params, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(configPath); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, nil, err
	}
	if flags != nil {
		flags.apply(cmd, cfg)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if missing := cfg.Missing(live); len(missing) > 0 {
		if noPrompt {
			return nil, nil, errors.Errorf("missing settings: %v", missing)
		}
		if err := cfg.Prompt(in, out, live); err != nil {
			return nil, nil, err
		}
	}

	if live {
		if err := cfg.ValidateLive(); err != nil {
			return nil, nil, err
		}
	}
	params, err := cfg.Parse()
	if err != nil {
		return nil, nil, err
	}
	return cfg, params, nil
}
