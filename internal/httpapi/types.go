// Package httpapi serves the data hub dashboard API: catalog coverage,
// track management, on-demand collection, backtests and the broker probe.
package httpapi

import (
	"tradehub/internal/domain"
	"tradehub/internal/gather"
	"tradehub/internal/store"
	"tradehub/internal/strategy"
	"tradehub/internal/util"
)

// AssetsResponse lists the asset types present in the catalog.
type AssetsResponse struct {
	Assets []string `json:"assets"`
}

// TickersResponse lists the cataloged tickers of one asset type.
type TickersResponse struct {
	Asset   string   `json:"asset"`
	Tickers []string `json:"tickers"`
}

// CoverageResponse is the file coverage of one ticker across resolutions.
type CoverageResponse struct {
	Asset      string           `json:"asset"`
	Ticker     string           `json:"ticker"`
	Files      []store.FileInfo `json:"files"`
	LastEnd    string           `json:"last_end,omitempty"`
	DaysBehind int              `json:"days_behind"`
	Freshness  util.Freshness   `json:"freshness,omitempty"`
}

// TracksResponse lists the configured tracks.
type TracksResponse struct {
	Tracks []domain.Track `json:"tracks"`
}

// CollectResponse carries one summary per collected track.
type CollectResponse struct {
	Results []gather.Summary `json:"results"`
}

// StrategiesResponse lists the registered strategy names.
type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

// BacktestResponse is a backtest report for a track.
type BacktestResponse struct {
	Track domain.Track `json:"track"`
	*strategy.Report
}
