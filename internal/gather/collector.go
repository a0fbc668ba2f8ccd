package gather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tradehub/internal/config"
	"tradehub/internal/domain"
	"tradehub/internal/metrics"
	"tradehub/internal/store"
	"tradehub/internal/util"
)

// Collector downloads the missing range of each track, saves it as a
// Parquet file and records the file in the catalog.
type Collector struct {
	source  BarSource
	bars    store.BarStore
	catalog *store.Catalog
	cfg     config.CollectorConfig
	limiter *util.RateLimiter
	metrics *metrics.Registry
	now     func() time.Time
	log     *slog.Logger

	// RetryDelay is the first backoff delay between fetch attempts.
	RetryDelay time.Duration
}

// NewCollector creates a Collector. m may be nil.
func NewCollector(source BarSource, bars store.BarStore, catalog *store.Catalog, cfg config.CollectorConfig, m *metrics.Registry) *Collector {
	return &Collector{
		source:     source,
		bars:       bars,
		catalog:    catalog,
		cfg:        cfg,
		limiter:    util.NewRateLimiter(cfg.RateLimitPerMin),
		metrics:    m,
		now:        time.Now,
		log:        slog.Default().With("component", "collector", "source", source.Name()),
		RetryDelay: time.Second,
	}
}

// Run collects every track and returns one Summary per track in input
// order. A failed track does not stop the others; Run itself only fails
// when ctx is cancelled.
func (c *Collector) Run(ctx context.Context, tracks []domain.Track) ([]Summary, error) {
	tracks = dedupe(tracks)
	summaries := make([]Summary, len(tracks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.MaxWorkers, 1))

	runStart := time.Now()
	for i, track := range tracks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summaries[i] = c.collect(gctx, track)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summaries, err
	}
	if err := ctx.Err(); err != nil {
		return summaries, err
	}

	var saved, failed int
	for _, s := range summaries {
		switch s.Status {
		case StatusSaved:
			saved++
		case StatusFailed:
			failed++
		}
	}
	c.log.Info("collect complete",
		"tracks", len(tracks),
		"saved", saved,
		"failed", failed,
		"elapsed", time.Since(runStart).Round(time.Millisecond),
	)
	return summaries, nil
}

func (c *Collector) collect(ctx context.Context, track domain.Track) (s Summary) {
	s = Summary{Track: track}
	defer func() {
		if s.Err != nil {
			s.Status = StatusFailed
			s.Error = s.Err.Error()
			c.log.Error("collect failed", "track", track.String(), "err", s.Err)
		}
		if c.metrics != nil {
			c.metrics.RecordCollect(string(track.AssetClass), string(track.Resolution), string(s.Status), s.Bars)
		}
	}()

	if err := track.Validate(); err != nil {
		s.Err = err
		return s
	}

	r, ok, err := c.nextRange(ctx, track)
	if err != nil {
		s.Err = err
		return s
	}
	s.Range = r
	if !ok {
		s.Status = StatusUpToDate
		c.log.Info("no new data to download", "track", track.String(), "from", r.Start.Format(store.DateLayout))
		return s
	}

	c.log.Info("collecting track",
		"track", track.String(),
		"start", r.Start.Format(store.DateLayout),
		"end", r.End.Format(store.DateLayout),
	)

	var bars []domain.Bar
	err = util.Retry(ctx, max(c.cfg.MaxAttempts, 1), c.RetryDelay, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}
		var ferr error
		bars, ferr = c.source.FetchBars(ctx, track, r.Start, r.End)
		return ferr
	})
	if err != nil {
		s.Err = fmt.Errorf("fetching %s: %w", track, err)
		return s
	}
	if len(bars) == 0 {
		s.Status = StatusEmpty
		c.log.Warn("no new data returned", "track", track.String())
		return s
	}

	info, err := c.bars.WriteBars(ctx, track, r.Start, r.End, bars)
	if err != nil {
		s.Err = err
		return s
	}
	exists, err := c.catalog.Exists(ctx, info)
	if err != nil {
		s.Err = err
		return s
	}
	if !exists {
		if err := c.catalog.Insert(ctx, info); err != nil {
			s.Err = err
			return s
		}
	}

	s.Status = StatusSaved
	s.Bars = len(bars)
	s.Path = info.Path
	c.log.Info("saved bars", "track", track.String(), "bars", len(bars), "path", info.Path)
	return s
}

// nextRange computes the download window for a track. When the catalog has
// data the window starts the day after its latest end date; otherwise it
// reaches back the configured number of days for the resolution. ok is
// false when the start is not before today.
func (c *Collector) nextRange(ctx context.Context, track domain.Track) (r DateRange, ok bool, err error) {
	today := truncateDay(c.now())
	r.End = today

	latest, err := c.catalog.Latest(ctx, track)
	switch {
	case err == nil:
		last, perr := time.Parse(store.DateLayout, latest.EndDate)
		if perr != nil {
			return r, false, fmt.Errorf("parsing catalog end date %q: %w", latest.EndDate, perr)
		}
		r.Start = last.AddDate(0, 0, 1)
	case errors.Is(err, store.ErrNotFound):
		r.Start = today.AddDate(0, 0, -c.cfg.LimitDays(string(track.Resolution)))
	default:
		return r, false, err
	}

	return r, r.Start.Before(today), nil
}

func dedupe(tracks []domain.Track) []domain.Track {
	seen := make(map[domain.Track]struct{}, len(tracks))
	out := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
