package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/market"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <pair>",
	Short: "Show the indicator snapshot for a pair",
	Long: `Fetch candles for a pair and print the latest Bollinger Bands, RSI and
moving averages using the indicator parameters from user settings.

Example:
  tradesense snapshot EUR/USD`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

var snapshotFormat string

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "F", formatTable, "output format: table or json")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	pair, err := market.ParsePair(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	snap, ok, err := a.scanner.Snapshot(ctx, pair)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", pair, err)
	}
	if !ok {
		return fmt.Errorf("snapshot %s: not enough candles for the configured indicators", pair)
	}
	return writeSnapshot(cmd.OutOrStdout(), snapshotFormat, pair.String(), snap)
}
