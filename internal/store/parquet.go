package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"tradehub/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record type (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for bar data.
type BarRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open       float64 `parquet:"open"`
	High       float64 `parquet:"high"`
	Low        float64 `parquet:"low"`
	Close      float64 `parquet:"close"`
	Volume     float64 `parquet:"volume"`
	TradeCount int64   `parquet:"trade_count"`
	VWAP       float64 `parquet:"vwap"`
}

func toRecord(b domain.Bar) BarRecord {
	return BarRecord{
		Symbol:     b.Symbol,
		Timestamp:  b.Timestamp.UnixMilli(),
		Open:       b.Open,
		High:       b.High,
		Low:        b.Low,
		Close:      b.Close,
		Volume:     b.Volume,
		TradeCount: b.TradeCount,
		VWAP:       b.VWAP,
	}
}

func fromRecord(r BarRecord) domain.Bar {
	return domain.Bar{
		Symbol:     r.Symbol,
		Timestamp:  time.UnixMilli(r.Timestamp).UTC(),
		Open:       r.Open,
		High:       r.High,
		Low:        r.Low,
		Close:      r.Close,
		Volume:     r.Volume,
		TradeCount: r.TradeCount,
		VWAP:       r.VWAP,
	}
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// WriteBars writes one download to
//
//	<DataDir>/<asset>/<ticker>/<resolution>/<ticker>_<resolution>_<start>_<end>.parquet
//
// Writing the same range twice merges the bars, preferring the new ones.
func (s *ParquetStore) WriteBars(_ context.Context, track domain.Track, start, end time.Time, bars []domain.Bar) (FileInfo, error) {
	info := FileInfo{
		Track:     track,
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
	}
	info.Path = s.filePath(track, info.StartDate, info.EndDate)

	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = toRecord(b)
	}

	existing, _ := readParquetFile[BarRecord](info.Path)
	merged := mergeBarRecords(existing, records)

	if err := writeParquetFile(info.Path, merged); err != nil {
		return FileInfo{}, fmt.Errorf("writing bars for %s: %w", track, err)
	}
	return info, nil
}

// ReadBars reads bar data from the given Parquet files.
func (s *ParquetStore) ReadBars(ctx context.Context, paths []string, start, end time.Time) ([]domain.Bar, error) {
	var all []BarRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := readParquetFile[BarRecord](path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		all = mergeBarRecords(all, records)
	}

	bars := make([]domain.Bar, 0, len(all))
	for _, r := range all {
		b := fromRecord(r)
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// Walk lists every bar file under DataDir whose name follows the file
// naming convention. Parquet files with unexpected names are returned in
// skipped.
func (s *ParquetStore) Walk(ctx context.Context) (files []FileInfo, skipped []string, err error) {
	assets, err := subdirs(s.DataDir)
	if err != nil {
		return nil, nil, err
	}
	for _, asset := range assets {
		tickers, err := subdirs(filepath.Join(s.DataDir, asset))
		if err != nil {
			return nil, nil, err
		}
		for _, ticker := range tickers {
			resolutions, err := subdirs(filepath.Join(s.DataDir, asset, ticker))
			if err != nil {
				return nil, nil, err
			}
			for _, res := range resolutions {
				if err := ctx.Err(); err != nil {
					return nil, nil, err
				}
				dir := filepath.Join(s.DataDir, asset, ticker, res)
				matches, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
				if err != nil {
					return nil, nil, err
				}
				sort.Strings(matches)
				for _, path := range matches {
					start, end, ok := ParseFileName(filepath.Base(path))
					if !ok {
						skipped = append(skipped, path)
						continue
					}
					files = append(files, FileInfo{
						Track: domain.Track{
							AssetClass: domain.AssetClass(asset),
							Ticker:     ticker,
							Resolution: domain.Resolution(res),
						},
						StartDate: start,
						EndDate:   end,
						Path:      path,
					})
				}
			}
		}
	}
	return files, skipped, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

var fileNamePattern = regexp.MustCompile(`^(.+)_(.+)_(\d{4}-\d{2}-\d{2})_(\d{4}-\d{2}-\d{2})\.parquet$`)

// FileName returns the bar file name for a track and covered date range.
func FileName(track domain.Track, startDate, endDate string) string {
	return fmt.Sprintf("%s_%s_%s_%s.parquet", track.Ticker, track.Resolution, startDate, endDate)
}

// ParseFileName extracts the covered date range from a bar file name.
func ParseFileName(name string) (startDate, endDate string, ok bool) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[3], m[4], true
}

// filePath returns the filesystem path for a bar Parquet file.
func (s *ParquetStore) filePath(track domain.Track, startDate, endDate string) string {
	return filepath.Join(s.DataDir, string(track.AssetClass), track.Ticker, string(track.Resolution),
		FileName(track, startDate, endDate))
}

// subdirs returns the sorted names of the directories directly under dir,
// or nil if dir does not exist.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeBarRecords deduplicates bar records by timestamp, preferring incoming
// records over existing ones, and sorts the result ascending.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	seen := make(map[int64]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
