package gather

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehub/internal/config"
	"tradehub/internal/domain"
	"tradehub/internal/metrics"
	"tradehub/internal/store"
)

type fetchCall struct {
	track      domain.Track
	start, end time.Time
}

// fakeSource returns one daily bar per day in the requested range unless
// configured otherwise.
type fakeSource struct {
	mu       sync.Mutex
	calls    []fetchCall
	empty    map[string]bool
	failures map[string]int // remaining failures per ticker
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchBars(_ context.Context, track domain.Track, start, end time.Time) ([]domain.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{track, start, end})
	if f.failures[track.Ticker] > 0 {
		f.failures[track.Ticker]--
		return nil, errors.New("upstream unavailable")
	}
	if f.empty[track.Ticker] {
		return nil, nil
	}
	var bars []domain.Bar
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		bars = append(bars, domain.Bar{Symbol: track.Ticker, Timestamp: d, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100})
	}
	return bars, nil
}

func (f *fakeSource) callsFor(ticker string) []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fetchCall
	for _, c := range f.calls {
		if c.track.Ticker == ticker {
			out = append(out, c)
		}
	}
	return out
}

type fixture struct {
	source  *fakeSource
	store   *store.ParquetStore
	catalog *store.Catalog
	metrics *metrics.Registry
	c       *Collector
}

var today = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cat, err := store.OpenCatalog(filepath.Join(dir, "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	f := &fixture{
		source:  &fakeSource{empty: map[string]bool{}, failures: map[string]int{}},
		store:   store.NewParquetStore(filepath.Join(dir, "raw")),
		catalog: cat,
		metrics: metrics.NewRegistry(),
	}
	cfg := config.CollectorConfig{
		Limits:           map[string]int{"1d": 10, "1h": 2},
		DefaultLimitDays: 730,
		MaxWorkers:       2,
		MaxAttempts:      3,
	}
	f.c = NewCollector(f.source, f.store, cat, cfg, f.metrics)
	f.c.now = func() time.Time { return today }
	f.c.RetryDelay = 0
	return f
}

var (
	aapl = domain.Track{AssetClass: domain.AssetStock, Ticker: "AAPL", Resolution: domain.Resolution1d}
	btc  = domain.Track{AssetClass: domain.AssetCrypto, Ticker: "BTC-USD", Resolution: domain.Resolution1h}
)

func TestCollectorFirstDownloadUsesLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sums, err := f.c.Run(ctx, []domain.Track{aapl, btc})
	require.NoError(t, err)
	require.Len(t, sums, 2)

	assert.Equal(t, StatusSaved, sums[0].Status)
	assert.Equal(t, 10, sums[0].Bars)
	assert.Equal(t, "2024-03-05", sums[0].Range.Start.Format(store.DateLayout))
	assert.Equal(t, "2024-03-15", sums[0].Range.End.Format(store.DateLayout))
	assert.Equal(t, filepath.Join(f.store.DataDir, "stock", "AAPL", "1d", "AAPL_1d_2024-03-05_2024-03-15.parquet"), sums[0].Path)

	assert.Equal(t, StatusSaved, sums[1].Status)
	assert.Equal(t, 2, sums[1].Bars)

	latest, err := f.catalog.Latest(ctx, aapl)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", latest.EndDate)

	bars, err := store.NewLoader(f.catalog, f.store).LoadBars(ctx, aapl, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars, 10)

	n, err := testutil.GatherAndCount(f.metrics, "tradehub_bars_collected_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one bars series per asset/resolution")
}

func TestCollectorIncrementalAndUpToDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.catalog.Insert(ctx, store.FileInfo{Track: aapl, StartDate: "2024-01-01", EndDate: "2024-03-10", Path: "/old"}))

	sums, err := f.c.Run(ctx, []domain.Track{aapl})
	require.NoError(t, err)
	require.Equal(t, StatusSaved, sums[0].Status)
	assert.Equal(t, "2024-03-11", sums[0].Range.Start.Format(store.DateLayout))
	assert.Equal(t, 4, sums[0].Bars)

	// Catalog now ends today, so the next run has nothing to do.
	sums, err = f.c.Run(ctx, []domain.Track{aapl})
	require.NoError(t, err)
	assert.Equal(t, StatusUpToDate, sums[0].Status)
	assert.Len(t, f.source.callsFor("AAPL"), 1)
}

func TestCollectorEmptyResultIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.source.empty["AAPL"] = true

	sums, err := f.c.Run(context.Background(), []domain.Track{aapl})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, sums[0].Status)

	_, err = f.catalog.Latest(context.Background(), aapl)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCollectorRetriesThenFails(t *testing.T) {
	f := newFixture(t)
	f.source.failures["AAPL"] = 2 // succeeds on the third attempt
	f.source.failures["BTC-USD"] = 5

	sums, err := f.c.Run(context.Background(), []domain.Track{aapl, btc})
	require.NoError(t, err)

	assert.Equal(t, StatusSaved, sums[0].Status)
	assert.Len(t, f.source.callsFor("AAPL"), 3)

	assert.Equal(t, StatusFailed, sums[1].Status)
	assert.Error(t, sums[1].Err)
	assert.NotEmpty(t, sums[1].Error)
	assert.Len(t, f.source.callsFor("BTC-USD"), 3)
}

func TestCollectorInvalidTrackFails(t *testing.T) {
	f := newFixture(t)
	bad := domain.Track{AssetClass: "bond", Ticker: "X", Resolution: domain.Resolution1d}

	sums, err := f.c.Run(context.Background(), []domain.Track{bad, aapl})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, sums[0].Status)
	assert.Equal(t, StatusSaved, sums[1].Status)
	assert.Empty(t, f.source.callsFor("X"))
}

func TestCollectorDedupesTracks(t *testing.T) {
	f := newFixture(t)

	sums, err := f.c.Run(context.Background(), []domain.Track{aapl, aapl})
	require.NoError(t, err)
	assert.Len(t, sums, 1)
	assert.Len(t, f.source.callsFor("AAPL"), 1)
}

func TestCollectorCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.c.Run(ctx, []domain.Track{aapl, btc})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimeFrame(t *testing.T) {
	for _, r := range domain.Resolutions {
		_, err := TimeFrame(r)
		assert.NoError(t, err, "resolution %s", r)
	}
	_, err := TimeFrame("1w")
	assert.Error(t, err)
}

func TestCryptoSymbol(t *testing.T) {
	assert.Equal(t, "BTC/USD", CryptoSymbol("BTC-USD"))
	assert.Equal(t, "ETH/USD", CryptoSymbol("eth-usd"))
	assert.Equal(t, "BTC/USD", CryptoSymbol("BTC/USD"))
}
