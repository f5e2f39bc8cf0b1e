package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/market"
)

var signalsCmd = &cobra.Command{
	Use:   "signals [pair...]",
	Short: "Run one refresh cycle and print the signals",
	Long: `Fetch the latest candles for each pair, evaluate the buy and sell
conditions and print any signals. Pairs default to the config file's
pairs, then to the preferred pairs in user settings.

Signals are saved to the history store unless --no-save is given.

Examples:
  tradesense signals
  tradesense signals EUR/USD GBPUSD --format org`,
	RunE: runSignals,
}

var (
	signalsFormat string
	signalsNoSave bool
	signalsNotify bool
)

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().StringVarP(&signalsFormat, "format", "F", formatTable, "output format: table, org or json")
	signalsCmd.Flags().BoolVar(&signalsNoSave, "no-save", false, "do not record signals in history")
	signalsCmd.Flags().BoolVar(&signalsNotify, "notify", false, "send notifications for new signals")
}

func runSignals(cmd *cobra.Command, args []string) error {
	if err := checkFormat(signalsFormat); err != nil {
		return err
	}

	pairs, err := pairsFromArgs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log, appOptions{withHistory: !signalsNoSave, notify: signalsNotify})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.scanner.Run(ctx, pairs)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := writeSignals(out, signalsFormat, res.Signals); err != nil {
		return err
	}
	writeFailures(cmd.ErrOrStderr(), res.Failures)
	return nil
}

// pairsFromArgs parses command line pairs, falling back to the config.
func pairsFromArgs(args []string) ([]market.Pair, error) {
	if len(args) > 0 {
		return market.ParsePairs(args)
	}
	return cfg.PairList()
}
