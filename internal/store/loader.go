package store

import (
	"context"
	"fmt"
	"time"

	"tradehub/internal/domain"
)

// Loader reads the bars of a track by looking up its files in the catalog
// and merging them from the bar store.
type Loader struct {
	catalog *Catalog
	bars    BarStore
}

// NewLoader creates a Loader over the given catalog and bar store.
func NewLoader(catalog *Catalog, bars BarStore) *Loader {
	return &Loader{catalog: catalog, bars: bars}
}

// LoadBars returns the track's bars within [start, end], sorted ascending
// with duplicates across overlapping files removed. It returns ErrNotFound
// when the catalog has no files for the track.
func (l *Loader) LoadBars(ctx context.Context, track domain.Track, start, end time.Time) ([]domain.Bar, error) {
	files, err := l.catalog.Files(ctx, track)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range files {
		if overlaps(f, start, end) {
			paths = append(paths, f.Path)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files for %s: %w", track, ErrNotFound)
	}
	return l.bars.ReadBars(ctx, paths, start, end)
}

// overlaps reports whether the file's date range intersects [start, end].
func overlaps(f FileInfo, start, end time.Time) bool {
	if !start.IsZero() && f.EndDate < start.Format(DateLayout) {
		return false
	}
	if !end.IsZero() && f.StartDate > end.Format(DateLayout) {
		return false
	}
	return true
}
