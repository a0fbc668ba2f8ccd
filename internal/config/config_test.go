package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tradehub/internal/domain"
)

// clearEnv unsets every variable Load consults so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATA_DIR", "CATALOG_PATH", "TRACKS_PATH", "LOG_LEVEL", "INITIAL_CASH",
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "ALPACA_BASE_URL", "ALPACA_DATA_URL", "ALPACA_FEED",
		"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "APCA_API_BASE_URL", "TRADEHUB_CONFIG",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tradehub.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/tradehub/raw"
  catalog_path: "/tmp/tradehub/metadata.db"
  tracks_path: "/tmp/tradehub/tracks.json"
server:
  host: "0.0.0.0"
  port: 9000
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  feed: "sip"
logging:
  level: "debug"
  format: "json"
collector:
  limits:
    1d: 3650
    5m: 60
  rate_limit_per_min: 100
  max_workers: 2
backtest:
  short_window: 10
  long_window: 30
  initial_cash: 5000
  risk_fraction: 0.25
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/tradehub/raw" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.CatalogPath != "/tmp/tradehub/metadata.db" {
		t.Errorf("Storage.CatalogPath = %q", cfg.Storage.CatalogPath)
	}
	if cfg.Storage.TracksPath != "/tmp/tradehub/tracks.json" {
		t.Errorf("Storage.TracksPath = %q", cfg.Storage.TracksPath)
	}

	// -- Server --
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Errorf("Server = %+v", cfg.Server)
	}

	// -- Alpaca --
	if cfg.Alpaca.APIKey != "test-key" || cfg.Alpaca.APISecret != "test-secret" {
		t.Errorf("Alpaca credentials = %q/%q", cfg.Alpaca.APIKey, cfg.Alpaca.APISecret)
	}
	if cfg.Alpaca.Feed != "sip" {
		t.Errorf("Alpaca.Feed = %q, want sip", cfg.Alpaca.Feed)
	}
	if cfg.Alpaca.BaseURL != "https://paper-api.alpaca.markets" {
		t.Errorf("Alpaca.BaseURL default = %q", cfg.Alpaca.BaseURL)
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	// -- Collector --
	if got := cfg.Collector.LimitDays("1d"); got != 3650 {
		t.Errorf("LimitDays(1d) = %d, want 3650", got)
	}
	if got := cfg.Collector.LimitDays("1h"); got != 730 {
		t.Errorf("LimitDays(1h) = %d, want default 730", got)
	}
	if cfg.Collector.RateLimitPerMin != 100 || cfg.Collector.MaxWorkers != 2 || cfg.Collector.MaxAttempts != 3 {
		t.Errorf("Collector = %+v", cfg.Collector)
	}

	// -- Backtest --
	bt := cfg.Backtest
	if bt.ShortWindow != 10 || bt.LongWindow != 30 || bt.InitialCash != 5000 || bt.RiskFraction != 0.25 {
		t.Errorf("Backtest = %+v", bt)
	}
	if bt.PeriodsPerYear != 252 {
		t.Errorf("Backtest.PeriodsPerYear = %d, want 252", bt.PeriodsPerYear)
	}
	if err := bt.Validate(); err != nil {
		t.Errorf("loaded backtest params invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Storage.DataDir != "data/raw" || cfg.Server.Port != 8080 || cfg.Alpaca.Feed != "iex" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Backtest.ShortWindow != 20 || cfg.Backtest.LongWindow != 50 || cfg.Backtest.InitialCash != 10000 {
		t.Errorf("backtest defaults = %+v", cfg.Backtest)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "storage: [not, a, map")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() of malformed YAML returned nil error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  data_dir: "/from/file"
alpaca:
  api_key: "file-key"
`)
	t.Setenv("DATA_DIR", "/from/env")
	t.Setenv("ALPACA_API_KEY", "alpaca-key")
	t.Setenv("APCA_API_KEY_ID", "apca-key")
	t.Setenv("APCA_API_BASE_URL", "https://api.alpaca.markets")
	t.Setenv("INITIAL_CASH", "2500")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Storage.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want /from/env", cfg.Storage.DataDir)
	}
	if cfg.Alpaca.APIKey != "apca-key" {
		t.Errorf("APIKey = %q, want canonical APCA value", cfg.Alpaca.APIKey)
	}
	if cfg.Alpaca.BaseURL != "https://api.alpaca.markets" {
		t.Errorf("BaseURL = %q", cfg.Alpaca.BaseURL)
	}
	if cfg.Backtest.InitialCash != 2500 {
		t.Errorf("InitialCash = %v, want 2500", cfg.Backtest.InitialCash)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestResolvePath(t *testing.T) {
	clearEnv(t)
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("ResolvePath(\"\") = %q, want %q", got, DefaultPath)
	}
	t.Setenv("TRADEHUB_CONFIG", "/etc/tradehub.yaml")
	if got := ResolvePath(""); got != "/etc/tradehub.yaml" {
		t.Errorf("ResolvePath with env = %q", got)
	}
	if got := ResolvePath("local.yaml"); got != "local.yaml" {
		t.Errorf("ResolvePath(flag) = %q", got)
	}
}

func TestTracksRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracks.json")

	tracks, err := LoadTracks(path)
	if err != nil {
		t.Fatalf("LoadTracks(missing) returned error: %v", err)
	}
	if len(tracks) != 0 {
		t.Fatalf("LoadTracks(missing) = %v, want empty", tracks)
	}

	aapl := domain.Track{AssetClass: domain.AssetStock, Ticker: "AAPL", Resolution: domain.Resolution1d}
	btc := domain.Track{AssetClass: domain.AssetCrypto, Ticker: "BTC-USD", Resolution: domain.Resolution1h}

	if _, err := AddTrack(path, aapl); err != nil {
		t.Fatalf("AddTrack(aapl): %v", err)
	}
	tracks, err = AddTrack(path, btc)
	if err != nil {
		t.Fatalf("AddTrack(btc): %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("AddTrack returned %d tracks, want 2", len(tracks))
	}

	if _, err := AddTrack(path, aapl); !errors.Is(err, ErrTrackExists) {
		t.Errorf("AddTrack(duplicate) = %v, want ErrTrackExists", err)
	}
	if _, err := AddTrack(path, domain.Track{AssetClass: "bond", Ticker: "X", Resolution: domain.Resolution1d}); err == nil {
		t.Error("AddTrack(invalid) returned nil error")
	}

	loaded, err := LoadTracks(path)
	if err != nil {
		t.Fatalf("LoadTracks: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != aapl || loaded[1] != btc {
		t.Errorf("LoadTracks = %+v", loaded)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"asset_type": "stock"`) {
		t.Errorf("tracks file does not use asset_type key:\n%s", raw)
	}
}

func TestLoadTracksRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.json")
	bad := `{"tracks": [{"asset_type": "stock", "ticker": "AAPL", "resolution": "1w"}]}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTracks(path); err == nil {
		t.Error("LoadTracks accepted an unsupported resolution")
	}
}
