package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata/csvfeed"
	"github.com/rustyeddy/tradesense/signals"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.csv>",
	Short: "Evaluate signals over a candle CSV file",
	Long: `Read candles from a CSV file and evaluate them with the indicator
parameters and signal options from the config file. No network access
is needed.

By default only the latest candle is evaluated. With --walk every candle
after the warm-up period is evaluated as if it were the latest, which
shows where the strategy would have fired historically.

Examples:
  tradesense analyze data/EUR_USD_15min.csv
  tradesense analyze eurusd.csv --pair EUR/USD --walk --format org`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzePair   string
	analyzeWalk   bool
	analyzeFormat string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzePair, "pair", "p", "", "currency pair (default taken from the instrument column)")
	analyzeCmd.Flags().BoolVarP(&analyzeWalk, "walk", "w", false, "evaluate every candle after warm-up")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "F", formatTable, "output format: table, org or json")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkFormat(analyzeFormat); err != nil {
		return err
	}

	recs, err := csvfeed.ReadFile(args[0])
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("%s: no candles", args[0])
	}

	pair, err := analyzeTarget(recs)
	if err != nil {
		return err
	}

	engine, err := signals.NewEngine(cfg.Indicators, cfg.SignalOptions())
	if err != nil {
		return err
	}

	candles := market.SortedByTime(csvfeed.Candles(recs))
	sigs := analyzeCandles(engine, pair, candles, analyzeWalk)
	log.Debug("analyzed file", "file", args[0], "pair", pair.String(), "candles", len(candles), "signals", len(sigs))

	return writeSignals(cmd.OutOrStdout(), analyzeFormat, sigs)
}

func analyzeTarget(recs []csvfeed.Record) (market.Pair, error) {
	if analyzePair != "" {
		return market.ParsePair(analyzePair)
	}
	if recs[0].Instrument == "" {
		return market.Pair{}, errors.New("file has no instrument column; pass --pair")
	}
	return market.ParsePair(recs[0].Instrument)
}

// analyzeCandles evaluates the last candle, or with walk every prefix long
// enough to warm up the indicators, newest signals first.
func analyzeCandles(engine *signals.Engine, pair market.Pair, candles []market.Candle, walk bool) []signals.Signal {
	if !walk {
		return engine.Generate(pair, candles)
	}

	var out []signals.Signal
	for end := len(candles); end >= engine.Parameters().Warmup(); end-- {
		out = append(out, engine.Generate(pair, candles[:end])...)
	}
	return out
}
