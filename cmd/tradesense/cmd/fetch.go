package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
	"github.com/rustyeddy/tradesense/marketdata/csvfeed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <pair>",
	Short: "Download candles for a pair to CSV",
	Long: `Fetch the latest candles for a pair from the configured market data
provider and write them in the canonical CSV layout
(time,instrument,granularity,complete,volume,o,h,l,c).

The output file can be analyzed offline or placed in a csv provider
directory.

Example:
  tradesense fetch EUR/USD --interval 5min --count 500 -o data/EUR_USD_5min.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	fetchOut      string
	fetchInterval string
	fetchCount    int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "output CSV path (default <instrument>_<interval>.csv)")
	fetchCmd.Flags().StringVarP(&fetchInterval, "interval", "i", "", "candle interval: 1min, 5min, 15min, 30min, 60min")
	fetchCmd.Flags().IntVarP(&fetchCount, "count", "n", 0, "number of candles (default market_data.count)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	pair, err := market.ParsePair(args[0])
	if err != nil {
		return err
	}

	interval := market.Interval(fetchInterval)
	if interval == "" {
		interval = market.Interval(cfg.Interval)
	}
	count := fetchCount
	if count <= 0 {
		count = cfg.MarketData.Count
	}

	req, err := marketdata.Request{Pair: pair, Interval: interval, Count: count}.Normalize()
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	candles, err := provider.Candles(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", pair, err)
	}
	candles = market.SortedByTime(candles)

	out := fetchOut
	if out == "" {
		out = csvfeed.Path(".", pair, req.Interval)
	}

	n, err := csvfeed.WriteFile(out, csvfeed.Records(pair, req.Interval, candles))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d %s candles for %s to %s\n", n, req.Interval, pair, out)
	return nil
}
