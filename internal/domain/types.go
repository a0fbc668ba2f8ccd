// Package domain defines the core value types shared across tradehub:
// instruments and tracks, price bars, derived signal rows, and broker
// account snapshots.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// AssetClass identifies the kind of instrument a track refers to.
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetCrypto AssetClass = "crypto"
)

// Valid reports whether a is a supported asset class.
func (a AssetClass) Valid() bool {
	return a == AssetStock || a == AssetCrypto
}

// Resolution is the bar interval of a track, e.g. "1d" or "15m".
type Resolution string

const (
	Resolution1d  Resolution = "1d"
	Resolution1h  Resolution = "1h"
	Resolution15m Resolution = "15m"
	Resolution5m  Resolution = "5m"
)

// Resolutions lists every supported resolution, coarsest first.
var Resolutions = []Resolution{Resolution1d, Resolution1h, Resolution15m, Resolution5m}

// Valid reports whether r is a supported resolution.
func (r Resolution) Valid() bool {
	for _, v := range Resolutions {
		if r == v {
			return true
		}
	}
	return false
}

// Track is one instrument the collector keeps up to date.
type Track struct {
	AssetClass AssetClass `json:"asset_type" yaml:"asset_type"`
	Ticker     string     `json:"ticker" yaml:"ticker"`
	Resolution Resolution `json:"resolution" yaml:"resolution"`
}

// Validate checks that the track names a supported asset class and
// resolution and a non-empty ticker.
func (t Track) Validate() error {
	if !t.AssetClass.Valid() {
		return fmt.Errorf("unsupported asset type %q", t.AssetClass)
	}
	if strings.TrimSpace(t.Ticker) == "" {
		return fmt.Errorf("empty ticker")
	}
	if !t.Resolution.Valid() {
		return fmt.Errorf("unsupported resolution %q", t.Resolution)
	}
	return nil
}

// String renders the track as "stock/AAPL/1d".
func (t Track) String() string {
	return string(t.AssetClass) + "/" + t.Ticker + "/" + string(t.Resolution)
}

// Bar is a single OHLCV price bar. Only Timestamp and Close feed the
// backtest; the remaining fields are carried for storage and display.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	TradeCount int64
	VWAP       float64
}

// SignalRow is the per-bar output of a signal generator. SMAShort and
// SMALong are NaN while their window has insufficient history.
type SignalRow struct {
	Timestamp  time.Time
	Close      float64
	SMAShort   float64
	SMALong    float64
	Signal     int // 1 = should be long, 0 = should be flat
	Transition int // +1 enter, -1 exit, 0 no change
}

// AccountInfo is a snapshot of a brokerage account.
type AccountInfo struct {
	Status      string  `json:"status"`
	Cash        float64 `json:"cash"`
	Equity      float64 `json:"equity"`
	BuyingPower float64 `json:"buying_power"`
}
