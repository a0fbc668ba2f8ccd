package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tradehub/internal/strategy"
)

// DefaultPath is the configuration file used when neither --config nor
// TRADEHUB_CONFIG is given.
const DefaultPath = "config/tradehub.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for tradehub.
type Config struct {
	Storage   Storage         `yaml:"storage"`
	Server    Server          `yaml:"server"`
	Alpaca    Alpaca          `yaml:"alpaca"`
	Logging   Logging         `yaml:"logging"`
	Collector CollectorConfig `yaml:"collector"`
	Backtest  strategy.Params `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir     string `yaml:"data_dir"`
	CatalogPath string `yaml:"catalog_path"`
	TracksPath  string `yaml:"tracks_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca APIs.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CollectorConfig controls how far back first downloads reach and how hard
// the collector drives the upstream API.
type CollectorConfig struct {
	// Limits maps a resolution ("1d", "1h", ...) to the number of days
	// fetched when a track has no data yet.
	Limits           map[string]int `yaml:"limits"`
	DefaultLimitDays int            `yaml:"default_limit_days"`
	RateLimitPerMin  int            `yaml:"rate_limit_per_min"`
	MaxWorkers       int            `yaml:"max_workers"`
	MaxAttempts      int            `yaml:"max_attempts"`
}

// LimitDays returns the first-download window for a resolution.
func (c CollectorConfig) LimitDays(resolution string) int {
	if d, ok := c.Limits[resolution]; ok && d > 0 {
		return d
	}
	return c.DefaultLimitDays
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, loads a .env file from the working directory if present,
// applies environment variable overrides and finally fills defaults.
//
// A missing config file is not an error; defaults and the environment are
// enough to run.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.ApplyDefaults()

	return cfg, nil
}

// ResolvePath picks the config path from the flag value, then
// TRADEHUB_CONFIG, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("TRADEHUB_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data/raw"
	}
	if c.Storage.CatalogPath == "" {
		c.Storage.CatalogPath = "data/metadata.db"
	}
	if c.Storage.TracksPath == "" {
		c.Storage.TracksPath = "data/tracks.json"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Alpaca.BaseURL == "" {
		c.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if c.Alpaca.Feed == "" {
		c.Alpaca.Feed = "iex"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Collector.DefaultLimitDays == 0 {
		c.Collector.DefaultLimitDays = 730
	}
	if c.Collector.RateLimitPerMin == 0 {
		c.Collector.RateLimitPerMin = 200
	}
	if c.Collector.MaxWorkers == 0 {
		c.Collector.MaxWorkers = 4
	}
	if c.Collector.MaxAttempts == 0 {
		c.Collector.MaxAttempts = 3
	}

	def := strategy.DefaultParams()
	if c.Backtest.ShortWindow == 0 {
		c.Backtest.ShortWindow = def.ShortWindow
	}
	if c.Backtest.LongWindow == 0 {
		c.Backtest.LongWindow = def.LongWindow
	}
	if c.Backtest.InitialCash == 0 {
		c.Backtest.InitialCash = def.InitialCash
	}
	if c.Backtest.RiskFraction == 0 {
		c.Backtest.RiskFraction = def.RiskFraction
	}
	if c.Backtest.PeriodsPerYear == 0 {
		c.Backtest.PeriodsPerYear = def.PeriodsPerYear
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("CATALOG_PATH"); v != "" {
		cfg.Storage.CatalogPath = v
	}
	if v := os.Getenv("TRACKS_PATH"); v != "" {
		cfg.Storage.TracksPath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	if v := os.Getenv("ALPACA_FEED"); v != "" {
		cfg.Alpaca.Feed = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("INITIAL_CASH"); v != "" {
		if cash, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backtest.InitialCash = cash
		}
	}

	// Standard Alpaca env vars (highest priority, canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
}
