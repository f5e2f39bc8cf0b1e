package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradesense/config"
	"github.com/rustyeddy/tradesense/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tradesense",
	Short: "Forex technical-analysis signal generator",
	Long: `Tradesense computes Bollinger Bands, RSI and moving averages over
intraday forex candles and turns them into buy/sell signals with a
confidence score and a plain-language rationale.

It provides tools for:
  - Generating signals for your preferred currency pairs
  - Inspecting the indicator snapshot behind a signal
  - Downloading candles to CSV and analyzing CSV files offline
  - Keeping a signal history in SQLite or Postgres
  - Serving signals, settings and metrics over HTTP

Market data comes from Alpha Vantage, OANDA, Dukascopy tick files or a
directory of CSV files.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *slog.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
// Commands see a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON, default built-in settings)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys and DSNs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}

// setup loads environment and configuration before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(envFile); err != nil {
		return err
	}

	c, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}

	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	cfg = c
	log = logger.Init("tradesense", level, c.Log.Format)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	c := config.Default()
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
