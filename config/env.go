package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvAlphaVantageKey = "ALPHA_VANTAGE_KEY"
	EnvOandaToken      = "OANDA_TOKEN"
	EnvHistoryDSN      = "TRADESENSE_HISTORY_DSN"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvLogLevel        = "TRADESENSE_LOG_LEVEL"
)

// LoadEnv loads .env style files into the process environment. Variables
// already set win. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides secrets and deployment settings from the environment.
func (c *Config) ApplyEnv() {
	switch c.MarketData.Provider {
	case "alphavantage":
		if v := os.Getenv(EnvAlphaVantageKey); v != "" {
			c.MarketData.APIKey = v
		}
	case "oanda":
		if v := os.Getenv(EnvOandaToken); v != "" {
			c.MarketData.APIKey = v
		}
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		c.History.DSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Settings.RedisAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}
