package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tradehub/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	asset_type TEXT NOT NULL,
	ticker TEXT NOT NULL,
	resolution TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	file_path TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS files_track ON files (asset_type, ticker, resolution, end_date);
`

// Catalog indexes stored bar files in a SQLite database so that covered
// date ranges are not downloaded twice.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (or creates) a SQLite database at dbPath, creates the
// files table if needed, and returns a ready-to-use Catalog.
func OpenCatalog(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between
	// concurrent collector goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Insert adds a file row to the catalog.
func (c *Catalog) Insert(ctx context.Context, f FileInfo) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO files (asset_type, ticker, resolution, start_date, end_date, file_path)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.Track.AssetClass, f.Track.Ticker, f.Track.Resolution, f.StartDate, f.EndDate, f.Path)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", f.Path, err)
	}
	return nil
}

// Exists reports whether a row with the same track and date range exists.
func (c *Catalog) Exists(ctx context.Context, f FileInfo) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx, `
		SELECT 1 FROM files
		WHERE asset_type = ? AND ticker = ? AND resolution = ? AND start_date = ? AND end_date = ?`,
		f.Track.AssetClass, f.Track.Ticker, f.Track.Resolution, f.StartDate, f.EndDate).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Latest returns the file with the most recent end date for track, or
// ErrNotFound.
func (c *Catalog) Latest(ctx context.Context, track domain.Track) (FileInfo, error) {
	f := FileInfo{Track: track}
	err := c.db.QueryRowContext(ctx, `
		SELECT start_date, end_date, file_path FROM files
		WHERE asset_type = ? AND ticker = ? AND resolution = ?
		ORDER BY end_date DESC LIMIT 1`,
		track.AssetClass, track.Ticker, track.Resolution).Scan(&f.StartDate, &f.EndDate, &f.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return FileInfo{}, fmt.Errorf("latest file for %s: %w", track, ErrNotFound)
	}
	if err != nil {
		return FileInfo{}, err
	}
	return f, nil
}

// AssetTypes returns the distinct asset types present in the catalog.
func (c *Catalog) AssetTypes(ctx context.Context) ([]string, error) {
	return c.strings(ctx, `SELECT DISTINCT asset_type FROM files ORDER BY asset_type`)
}

// Tickers returns the distinct tickers cataloged for an asset type.
func (c *Catalog) Tickers(ctx context.Context, assetType string) ([]string, error) {
	return c.strings(ctx, `SELECT DISTINCT ticker FROM files WHERE asset_type = ? ORDER BY ticker`, assetType)
}

// Coverage returns every file of a ticker across resolutions, ordered by
// start date.
func (c *Catalog) Coverage(ctx context.Context, assetType, ticker string) ([]FileInfo, error) {
	return c.files(ctx, `
		SELECT asset_type, ticker, resolution, start_date, end_date, file_path FROM files
		WHERE asset_type = ? AND ticker = ?
		ORDER BY start_date, resolution`, assetType, ticker)
}

// Files returns the files of one track ordered by start date.
func (c *Catalog) Files(ctx context.Context, track domain.Track) ([]FileInfo, error) {
	return c.files(ctx, `
		SELECT asset_type, ticker, resolution, start_date, end_date, file_path FROM files
		WHERE asset_type = ? AND ticker = ? AND resolution = ?
		ORDER BY start_date`, track.AssetClass, track.Ticker, track.Resolution)
}

// Index scans the store's directory tree and catalogs every bar file that
// is not already present. It returns the number of rows added.
func (c *Catalog) Index(ctx context.Context, ps *ParquetStore) (int, error) {
	log := slog.Default().With("component", "indexer")

	files, skipped, err := ps.Walk(ctx)
	if err != nil {
		return 0, fmt.Errorf("walking %s: %w", ps.DataDir, err)
	}
	for _, path := range skipped {
		log.Warn("skipping file with unexpected name", "path", path)
	}

	added := 0
	for _, f := range files {
		exists, err := c.Exists(ctx, f)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		if err := c.Insert(ctx, f); err != nil {
			return added, err
		}
		added++
	}
	log.Info("index complete", "scanned", len(files), "added", added)
	return added, nil
}

func (c *Catalog) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Catalog) files(ctx context.Context, query string, args ...any) ([]FileInfo, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FileInfo{}
	for rows.Next() {
		var f FileInfo
		var asset, res string
		if err := rows.Scan(&asset, &f.Track.Ticker, &res, &f.StartDate, &f.EndDate, &f.Path); err != nil {
			return nil, err
		}
		f.Track.AssetClass = domain.AssetClass(asset)
		f.Track.Resolution = domain.Resolution(res)
		out = append(out, f)
	}
	return out, rows.Err()
}
