// Package gather keeps tracked instruments up to date by downloading new
// bars from a market-data source into the Parquet store and catalog.
package gather

import (
	"context"
	"time"

	"tradehub/internal/domain"
)

// BarSource fetches historical bars for a track.
type BarSource interface {
	// Name returns the source identifier.
	Name() string
	// FetchBars returns the track's bars in [start, end), ascending.
	FetchBars(ctx context.Context, track domain.Track, start, end time.Time) ([]domain.Bar, error)
}

// DateRange represents a time range for data fetching.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Status is the outcome of collecting one track.
type Status string

const (
	StatusSaved    Status = "saved"
	StatusUpToDate Status = "up-to-date"
	StatusEmpty    Status = "empty"
	StatusFailed   Status = "failed"
)

// Summary reports what the collector did for one track.
type Summary struct {
	Track  domain.Track `json:"track"`
	Status Status       `json:"status"`
	Range  DateRange    `json:"-"`
	Bars   int          `json:"bars"`
	Path   string       `json:"file_path,omitempty"`
	Err    error        `json:"-"`
	Error  string       `json:"error,omitempty"`
}
