// Package store persists price bars as dated Parquet files and indexes them
// in a SQLite catalog keyed by asset type, ticker, resolution, and covered
// date range.
package store

import (
	"context"
	"errors"
	"time"

	"tradehub/internal/domain"
)

// ErrNotFound is returned when a catalog lookup has no matching row.
var ErrNotFound = errors.New("not found")

// DateLayout is the date format used in file names and catalog rows.
const DateLayout = "2006-01-02"

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists the bars of one download covering [start, end] and
	// returns the written file's descriptor.
	WriteBars(ctx context.Context, track domain.Track, start, end time.Time, bars []domain.Bar) (FileInfo, error)

	// ReadBars reads the given files and returns their bars within
	// [start, end], deduplicated by timestamp and sorted ascending. A zero
	// start or end leaves that side unbounded.
	ReadBars(ctx context.Context, paths []string, start, end time.Time) ([]domain.Bar, error)
}

// FileInfo describes one stored bar file and the date range it covers.
type FileInfo struct {
	Track     domain.Track `json:"track"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Path      string       `json:"file_path"`
}
