package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/internal/logger"
	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/settings"
	"github.com/rustyeddy/tradesense/signals"
)

// Config represents the complete tradesense configuration
type Config struct {
	// Pairs monitored when the command line names none. Empty falls back
	// to the preferred pairs in user settings.
	Pairs []string `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	// Interval overrides the auto-refresh interval from user settings.
	Interval   string                `json:"interval,omitempty" yaml:"interval,omitempty"`
	Indicators indicators.Parameters `json:"indicators" yaml:"indicators"`

	Signals       SignalsConfig       `json:"signals" yaml:"signals"`
	MarketData    MarketDataConfig    `json:"market_data" yaml:"market_data"`
	History       HistoryConfig       `json:"history" yaml:"history"`
	Settings      SettingsConfig      `json:"settings" yaml:"settings"`
	Notifications NotificationsConfig `json:"notifications" yaml:"notifications"`
	Refresh       RefreshConfig       `json:"refresh" yaml:"refresh"`
	Server        ServerConfig        `json:"server" yaml:"server"`
	Log           LogConfig           `json:"log" yaml:"log"`
}

// SignalsConfig contains signal engine options
type SignalsConfig struct {
	AllowCounterTrend bool    `json:"allow_counter_trend" yaml:"allow_counter_trend"`
	BandTolerance     float64 `json:"band_tolerance" yaml:"band_tolerance"`
}

// MarketDataConfig selects and configures the candle provider
type MarketDataConfig struct {
	Provider string `json:"provider" yaml:"provider"` // "alphavantage", "oanda", "dukascopy" or "csv"
	// APIKey is the Alpha Vantage key or the OANDA bearer token.
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	OutputSize string `json:"output_size,omitempty" yaml:"output_size,omitempty"`
	// Env is the OANDA environment, practice or live.
	Env   string `json:"env,omitempty" yaml:"env,omitempty"`
	Count int    `json:"count" yaml:"count"`
	// Dir holds <instrument>_<interval>.csv files for the csv provider.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// CacheDir keeps raw dukascopy tick files between runs.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
}

// HistoryConfig contains signal history storage parameters
type HistoryConfig struct {
	Driver   string `json:"driver" yaml:"driver"` // "sqlite3" or "postgres"
	DSN      string `json:"dsn" yaml:"dsn"`
	MaxItems int    `json:"max_items" yaml:"max_items"`
}

// SettingsConfig selects where user settings live
type SettingsConfig struct {
	Store         string `json:"store" yaml:"store"` // "memory" or "redis"
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	RedisKey      string `json:"redis_key,omitempty" yaml:"redis_key,omitempty"`
}

type NotificationsConfig struct {
	WebhookURL    string  `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// RefreshConfig contains refresh loop parameters
type RefreshConfig struct {
	Every   string `json:"every,omitempty" yaml:"every,omitempty"` // e.g., "15m"; empty uses settings
	Workers int    `json:"workers" yaml:"workers"`
}

// ParseDuration converts Every to a time.Duration. Empty is zero.
func (r RefreshConfig) ParseDuration() (time.Duration, error) {
	if r.Every == "" {
		return 0, nil
	}
	return time.ParseDuration(r.Every)
}

type ServerConfig struct {
	APIAddr string `json:"api_addr" yaml:"api_addr"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Missing keys keep their defaults.
	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := c.PairList(); err != nil {
		return err
	}
	if c.Interval != "" && !market.Interval(c.Interval).Valid() {
		return fmt.Errorf("interval %q is not supported", c.Interval)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if err := c.SignalOptions().Validate(); err != nil {
		return fmt.Errorf("signals: %w", err)
	}

	switch c.MarketData.Provider {
	case "alphavantage", "dukascopy":
	case "oanda":
		if c.MarketData.BaseURL == "" && c.MarketData.Env != "practice" && c.MarketData.Env != "live" {
			return fmt.Errorf("market_data.env must be 'practice' or 'live' for oanda")
		}
	case "csv":
		if c.MarketData.Dir == "" {
			return fmt.Errorf("market_data.dir required for csv provider")
		}
	default:
		return fmt.Errorf("market_data.provider must be 'alphavantage', 'oanda', 'dukascopy' or 'csv'")
	}
	if c.MarketData.Count < 0 {
		return fmt.Errorf("market_data.count must not be negative")
	}

	if c.History.Driver != "sqlite3" && c.History.Driver != "postgres" {
		return fmt.Errorf("history.driver must be 'sqlite3' or 'postgres'")
	}
	if c.History.DSN == "" {
		return fmt.Errorf("history.dsn is required")
	}
	if c.History.MaxItems < 0 {
		return fmt.Errorf("history.max_items must not be negative")
	}

	switch c.Settings.Store {
	case "memory":
	case "redis":
		if c.Settings.RedisAddr == "" {
			return fmt.Errorf("settings.redis_addr required for redis store")
		}
	default:
		return fmt.Errorf("settings.store must be 'memory' or 'redis'")
	}

	if c.Notifications.MinConfidence < 0 || c.Notifications.MinConfidence > 1 {
		return fmt.Errorf("notifications.min_confidence must be between 0 and 1")
	}

	every, err := c.Refresh.ParseDuration()
	if err != nil {
		return fmt.Errorf("refresh.every: %w", err)
	}
	if every < 0 {
		return fmt.Errorf("refresh.every must not be negative")
	}
	if c.Refresh.Workers < 0 {
		return fmt.Errorf("refresh.workers must not be negative")
	}

	if c.Server.APIAddr == "" {
		return fmt.Errorf("server.api_addr is required")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// PairList parses Pairs.
func (c *Config) PairList() ([]market.Pair, error) {
	pairs, err := market.ParsePairs(c.Pairs)
	if err != nil {
		return nil, fmt.Errorf("pairs: %w", err)
	}
	return pairs, nil
}

// SettingsDefaults seeds the user settings store: indicator parameters
// always, pairs and interval when the file sets them.
func (c *Config) SettingsDefaults() (settings.Settings, error) {
	d := settings.Default()
	d.Indicators = c.Indicators
	if len(c.Pairs) > 0 {
		pairs, err := c.PairList()
		if err != nil {
			return settings.Settings{}, err
		}
		d.PreferredPairs = pairs
	}
	if c.Interval != "" {
		d.AutoRefreshInterval = market.Interval(c.Interval)
	}
	if err := d.Validate(); err != nil {
		return settings.Settings{}, err
	}
	return d, nil
}

func (c *Config) SignalOptions() signals.Options {
	return signals.Options{
		AllowCounterTrend: c.Signals.AllowCounterTrend,
		BandTolerance:     c.Signals.BandTolerance,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Indicators: indicators.DefaultParameters(),
		Signals: SignalsConfig{
			BandTolerance: signals.DefaultBandTolerance,
		},
		MarketData: MarketDataConfig{
			Provider: "alphavantage",
			Env:      "practice",
			Count:    100,
			Dir:      "./data",
		},
		History: HistoryConfig{
			Driver:   "sqlite3",
			DSN:      "./tradesense.db",
			MaxItems: 200,
		},
		Settings: SettingsConfig{
			Store:    "memory",
			RedisKey: "tradesense:settings",
		},
		Notifications: NotificationsConfig{
			MinConfidence: 0,
		},
		Refresh: RefreshConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			APIAddr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
