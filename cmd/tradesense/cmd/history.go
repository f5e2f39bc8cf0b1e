package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/history"
	"github.com/rustyeddy/tradesense/market"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the signal history",
	Long: `Query and manage recorded signals.

Subcommands:
  recent  - List the most recent signals
  pair    - List recent signals for one currency pair
  show    - Show one signal by ID
  clear   - Delete every recorded signal

Examples:
  tradesense history recent -n 10
  tradesense history pair EUR/USD --format org
  tradesense history clear`,
}

var historyRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent signals",
	Args:  cobra.NoArgs,
	RunE:  runHistoryRecent,
}

var historyPairCmd = &cobra.Command{
	Use:   "pair <pair>",
	Short: "List recent signals for a currency pair",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryPair,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <signal-id>",
	Short: "Show one signal",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded signal",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var (
	historyLimit  int
	historyFormat string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyRecentCmd)
	historyCmd.AddCommand(historyPairCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)

	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", history.DefaultLimit, "maximum number of signals")
	historyCmd.PersistentFlags().StringVarP(&historyFormat, "format", "F", formatTable, "output format: table, org or json")
}

func runHistoryRecent(cmd *cobra.Command, args []string) error {
	if err := checkFormat(historyFormat); err != nil {
		return err
	}
	h, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	sigs, err := h.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("query signals: %w", err)
	}
	return writeSignals(cmd.OutOrStdout(), historyFormat, sigs)
}

func runHistoryPair(cmd *cobra.Command, args []string) error {
	if err := checkFormat(historyFormat); err != nil {
		return err
	}
	pair, err := market.ParsePair(args[0])
	if err != nil {
		return err
	}

	h, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	sigs, err := h.ByPair(cmd.Context(), pair, historyLimit)
	if err != nil {
		return fmt.Errorf("query signals: %w", err)
	}
	return writeSignals(cmd.OutOrStdout(), historyFormat, sigs)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	h, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	sig, err := h.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get signal: %w", err)
	}

	if historyFormat == formatJSON {
		return writeJSON(cmd.OutOrStdout(), sig)
	}
	fmt.Fprintln(cmd.OutOrStdout(), history.FormatSignalOrg(sig))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	h, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer h.Close()

	if err := h.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Signal history cleared")
	return nil
}
