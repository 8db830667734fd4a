package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/spottrader/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the session journal",
	Long: `Query and display events and round trips from the SQLite journal.

Subcommands:
  trade   - Get details of a specific round trip by ID
  trades  - List round trips closed on a day (default today)
  events  - List events logged on a day (default today)
  summary - Summarize the round trips of a day (default today)

Examples:
  spottrader journal trade <trade-id>
  spottrader journal trades 2026-03-02
  spottrader journal summary --symbol BNBUSDT`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific round trip",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades [YYYY-MM-DD]",
	Short: "List round trips closed on a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalTrades,
}

var journalEventsCmd = &cobra.Command{
	Use:   "events [YYYY-MM-DD]",
	Short: "List events logged on a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalEvents,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM-DD]",
	Short: "Summarize the round trips of a day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJournalSummary,
}

var (
	journalDBPath string
	journalSymbol string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalEventsCmd)
	journalCmd.AddCommand(journalSummaryCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./spottrader.db", "path to SQLite journal DB")
	journalSummaryCmd.Flags().StringVar(&journalSymbol, "symbol", "", "only count this symbol")
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	return j, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return errors.Wrap(err, "get trade")
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	start, end, err := argDay(args)
	if err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return errors.Wrap(err, "query trades")
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalEvents(cmd *cobra.Command, args []string) error {
	start, end, err := argDay(args)
	if err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	events, err := j.ListEventsBetween(start, end)
	if err != nil {
		return errors.Wrap(err, "query events")
	}
	fmt.Fprint(cmd.OutOrStdout(), journal.FormatEventsOrg(events))
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	start, end, err := argDay(args)
	if err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return errors.Wrap(err, "query trades")
	}
	return journal.Summarize(journalSymbol, start, end, recs).WriteOrg(cmd.OutOrStdout())
}

// argDay resolves the optional day argument in local time, today when absent.
func argDay(args []string) (time.Time, time.Time, error) {
	loc := time.Local
	day := time.Now().In(loc).Format("2006-01-02")
	if len(args) > 0 {
		day = args[0]
	}
	start, end, err := dayBounds(loc, day)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "date")
	}
	return start, end, nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
