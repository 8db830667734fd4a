package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage bot configuration files.

Subcommands:
  init     - Generate an example configuration file
  validate - Validate an existing configuration file

Examples:
  spottrader config init -o bot.yaml
  spottrader config validate -f bot.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an example configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
	configValidateLive bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "spottrader.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.Flags().BoolVar(&configValidateLive, "live", false, "also require exchange credentials")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.Example().SaveToFile(configInitOutput); err != nil {
		return errors.Wrap(err, "save config")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created example configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nAdd credentials (or SPOTTRADER_API_KEY / SPOTTRADER_API_SECRET) and run with:")
	fmt.Fprintf(out, "  spottrader paper -c %s --instant\n", configInitOutput)
	fmt.Fprintf(out, "  spottrader run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return errors.Wrap(err, "validation failed")
	}
	validate := cfg.Validate
	if configValidateLive {
		validate = cfg.ValidateLive
	}
	if err := validate(); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	p, err := cfg.Parse()
	if err != nil {
		return errors.Wrap(err, "validation failed")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Symbol: %s (%s entry, %s%% of free balance)\n", p.Symbol, p.OrderType, p.AllocationPct)
	fmt.Fprintf(out, "  Exits: +%s%% take profit, -%s%% stop loss, halt after %d losses\n", p.ProfitPct, p.LossPct, p.MaxLossCount)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Driver)
	return nil
}
