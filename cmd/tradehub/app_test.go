package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehub/internal/config"
	"tradehub/internal/domain"
	"tradehub/internal/perf"
)

func TestParseInts(t *testing.T) {
	got, err := parseInts(" 5, 10,,20 ")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 10, 20}, got)

	_, err = parseInts("5,x")
	assert.Error(t, err)
}

func TestParseDateRange(t *testing.T) {
	start, end, err := parseDateRange("2024-01-02", "2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", start.Format("2006-01-02"))
	assert.Equal(t, "2024-01-05", end.Format("2006-01-02"))
	assert.Equal(t, 23, end.Hour())

	start, end, err = parseDateRange("", "")
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	_, _, err = parseDateRange("2024-01-05", "2024-01-02")
	assert.Error(t, err)
	_, _, err = parseDateRange("01/02/2024", "")
	assert.Error(t, err)
}

func TestTrackFlags(t *testing.T) {
	tr, err := trackFlags{asset: "Crypto", ticker: " btc-usd ", resolution: "1h"}.track()
	require.NoError(t, err)
	assert.Equal(t, domain.Track{AssetClass: domain.AssetCrypto, Ticker: "BTC-USD", Resolution: domain.Resolution1h}, tr)

	_, err = trackFlags{asset: "stock", ticker: "AAPL", resolution: "1w"}.track()
	assert.Error(t, err)
}

func TestBacktestParamsOverlay(t *testing.T) {
	cfg = &config.Config{}
	cfg.ApplyDefaults()

	p := backtestParams(5, 0, 0, 0.25)
	assert.Equal(t, 5, p.ShortWindow)
	assert.Equal(t, 50, p.LongWindow)
	assert.Equal(t, 10000.0, p.InitialCash)
	assert.Equal(t, 0.25, p.RiskFraction)
}

func TestWriteTableAligns(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []string{"A", "LONGER"}, [][]string{{"wide cell", "x"}, {"y", "z"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Index(lines[1], "x"), strings.Index(lines[2], "z"))
}

func TestWriteMetricsUndefined(t *testing.T) {
	var buf bytes.Buffer
	writeMetrics(&buf, perf.Compute([]float64{100}, perf.DefaultOptions()))
	out := buf.String()
	assert.Contains(t, out, "CAGR")
	assert.Equal(t, 2, strings.Count(out, "n/a"), out)
}

func TestTracksCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.json")
	t.Setenv("TRACKS_PATH", path)
	t.Setenv("TRADEHUB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"tracks", "add", "--asset", "stock", "--ticker", "aapl"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Added stock/AAPL/1d")

	out.Reset()
	rootCmd.SetArgs([]string{"tracks", "add", "--asset", "stock", "--ticker", "AAPL"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "already exists")

	tracks, err := config.LoadTracks(path)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}
