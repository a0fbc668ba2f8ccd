package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradehub/internal/broker"
	"tradehub/internal/domain"
	"tradehub/internal/gather"
	"tradehub/internal/metrics"
	"tradehub/internal/store"
	"tradehub/internal/strategy"
	"tradehub/internal/strategy/builtins"
)

// openStores opens the bar store and catalog named by the loaded config.
// The caller closes the catalog.
func openStores() (*store.ParquetStore, *store.Catalog, error) {
	cat, err := store.OpenCatalog(cfg.Storage.CatalogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog %s: %w", cfg.Storage.CatalogPath, err)
	}
	return store.NewParquetStore(cfg.Storage.DataDir), cat, nil
}

func newStrategies() *strategy.Registry {
	reg := strategy.NewRegistry()
	builtins.Register(reg)
	return reg
}

func newCollector(ps *store.ParquetStore, cat *store.Catalog, m *metrics.Registry) *gather.Collector {
	src := gather.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL, cfg.Alpaca.Feed)
	return gather.NewCollector(src, ps, cat, cfg.Collector, m)
}

func newBroker() *broker.AlpacaBroker {
	return broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
}

// trackFlags are the flags shared by commands that address one track.
type trackFlags struct {
	asset      string
	ticker     string
	resolution string
}

func (f trackFlags) track() (domain.Track, error) {
	t := domain.Track{
		AssetClass: domain.AssetClass(strings.ToLower(f.asset)),
		Ticker:     strings.ToUpper(strings.TrimSpace(f.ticker)),
		Resolution: domain.Resolution(f.resolution),
	}
	if err := t.Validate(); err != nil {
		return domain.Track{}, err
	}
	return t, nil
}

// parseDateRange parses optional YYYY-MM-DD bounds; to is inclusive.
func parseDateRange(from, to string) (start, end time.Time, err error) {
	if from != "" {
		if start, err = time.Parse(store.DateLayout, from); err != nil {
			return start, end, fmt.Errorf("invalid from date (expected YYYY-MM-DD): %w", err)
		}
	}
	if to != "" {
		if end, err = time.Parse(store.DateLayout, to); err != nil {
			return start, end, fmt.Errorf("invalid to date (expected YYYY-MM-DD): %w", err)
		}
		if !start.IsZero() && end.Before(start) {
			return start, end, fmt.Errorf("end date must not be before start date")
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

// parseInts parses a comma-separated list such as "5,10,20".
func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
