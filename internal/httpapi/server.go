package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"tradehub/internal/broker"
	"tradehub/internal/config"
	"tradehub/internal/domain"
	"tradehub/internal/gather"
	"tradehub/internal/metrics"
	"tradehub/internal/store"
	"tradehub/internal/strategy"
	"tradehub/internal/strategy/builtins"
	"tradehub/internal/util"
)

// Deps are the collaborators the dashboard server reads from. Collector and
// Prober may be nil, in which case their routes answer 503.
type Deps struct {
	Catalog    *store.Catalog
	Backtester *strategy.Backtester
	Strategies *strategy.Registry
	Collector  *gather.Collector
	Prober     broker.AccountProber
	Metrics    *metrics.Registry
	TracksPath string
	Defaults   strategy.Params
}

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	deps Deps
	now  func() time.Time
	log  *slog.Logger

	// Serializes read-modify-write cycles on the tracks file.
	tracksMu sync.Mutex
}

// NewDashboardServer creates a new dashboard HTTP server.
func NewDashboardServer(deps Deps, log *slog.Logger) *DashboardServer {
	if log == nil {
		log = slog.Default()
	}
	return &DashboardServer{
		deps: deps,
		now:  time.Now,
		log:  log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/assets", s.handleAssets)
	mux.HandleFunc("GET /api/assets/{asset}/tickers", s.handleTickers)
	mux.HandleFunc("GET /api/coverage/{asset}/{ticker}", s.handleCoverage)
	mux.HandleFunc("GET /api/tracks", s.handleGetTracks)
	mux.HandleFunc("POST /api/tracks", s.handleAddTrack)
	mux.HandleFunc("POST /api/collect", s.handleCollect)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("GET /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/account", s.handleAccount)
	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	}
}

// Handler returns an http.Handler with CORS and request metrics middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var h http.Handler = mux
	if s.deps.Metrics != nil {
		h = metrics.HTTPMiddleware(s.deps.Metrics)(h)
	}
	return corsMiddleware(h)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.deps.Catalog.AssetTypes(r.Context())
	if err != nil {
		s.log.Error("listing assets", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	writeJSON(w, http.StatusOK, AssetsResponse{Assets: assets})
}

func (s *DashboardServer) handleTickers(w http.ResponseWriter, r *http.Request) {
	asset := r.PathValue("asset")
	tickers, err := s.deps.Catalog.Tickers(r.Context(), asset)
	if err != nil {
		s.log.Error("listing tickers", "asset", asset, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tickers")
		return
	}
	writeJSON(w, http.StatusOK, TickersResponse{Asset: asset, Tickers: tickers})
}

func (s *DashboardServer) handleCoverage(w http.ResponseWriter, r *http.Request) {
	asset, ticker := r.PathValue("asset"), r.PathValue("ticker")
	files, err := s.deps.Catalog.Coverage(r.Context(), asset, ticker)
	if err != nil {
		s.log.Error("loading coverage", "asset", asset, "ticker", ticker, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load coverage")
		return
	}
	if len(files) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data for %s/%s", asset, ticker))
		return
	}
	writeJSON(w, http.StatusOK, Coverage(asset, ticker, files, s.now()))
}

// Coverage summarizes files and classifies how current the newest one is.
func Coverage(asset, ticker string, files []store.FileInfo, now time.Time) CoverageResponse {
	resp := CoverageResponse{Asset: asset, Ticker: ticker, Files: files}
	var last time.Time
	for _, f := range files {
		end, err := time.Parse(store.DateLayout, f.EndDate)
		if err != nil {
			continue
		}
		if end.After(last) {
			last = end
		}
	}
	if last.IsZero() {
		return resp
	}
	resp.LastEnd = last.Format(store.DateLayout)
	resp.DaysBehind = util.DaysBehind(last, now)
	resp.Freshness = util.ClassifyFreshness(resp.DaysBehind)
	return resp
}

// ---------------------------------------------------------------------------
// Tracks and collection
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleGetTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := config.LoadTracks(s.deps.TracksPath)
	if err != nil {
		s.log.Error("loading tracks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load tracks")
		return
	}
	writeJSON(w, http.StatusOK, TracksResponse{Tracks: tracks})
}

func (s *DashboardServer) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	var t domain.Track
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
	if err := t.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.tracksMu.Lock()
	tracks, err := config.AddTrack(s.deps.TracksPath, t)
	s.tracksMu.Unlock()
	switch {
	case errors.Is(err, config.ErrTrackExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.log.Error("adding track", "track", t.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save track")
		return
	}
	s.log.Info("track added", "track", t.String())
	writeJSON(w, http.StatusCreated, TracksResponse{Tracks: tracks})
}

func (s *DashboardServer) handleCollect(w http.ResponseWriter, r *http.Request) {
	if s.deps.Collector == nil {
		writeError(w, http.StatusServiceUnavailable, "collector not configured")
		return
	}
	tracks, err := config.LoadTracks(s.deps.TracksPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load tracks")
		return
	}
	results, err := s.deps.Collector.Run(r.Context(), tracks)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CollectResponse{Results: results})
}

// ---------------------------------------------------------------------------
// Backtests
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StrategiesResponse{Strategies: s.deps.Strategies.List()})
}

func (s *DashboardServer) handleBacktest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	track := domain.Track{
		AssetClass: domain.AssetClass(q.Get("asset")),
		Ticker:     strings.ToUpper(q.Get("ticker")),
		Resolution: domain.Resolution(q.Get("resolution")),
	}
	if track.Resolution == "" {
		track.Resolution = domain.Resolution1d
	}
	if err := track.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := parseParams(q, s.deps.Defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseRange(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := q.Get("strategy")
	if name == "" {
		name = builtins.SMACrossName
	}

	rep, err := s.deps.Backtester.Run(r.Context(), name, track, start, end, p)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, strategy.ErrInvalidParams),
		errors.Is(err, strategy.ErrUnsortedBars),
		errors.Is(err, strategy.ErrNonPositivePrice):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BacktestResponse{Track: track, Report: rep})
}

// parseParams overlays query parameters on defaults.
func parseParams(q url.Values, defaults strategy.Params) (strategy.Params, error) {
	p := defaults
	ints := map[string]*int{"short": &p.ShortWindow, "long": &p.LongWindow, "periods": &p.PeriodsPerYear}
	for k, dst := range ints {
		if v := q.Get(k); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("invalid %s %q", k, v)
			}
			*dst = n
		}
	}
	floats := map[string]*float64{"cash": &p.InitialCash, "risk": &p.RiskFraction, "rf": &p.RiskFreeRate}
	for k, dst := range floats {
		if v := q.Get(k); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return p, fmt.Errorf("invalid %s %q", k, v)
			}
			*dst = f
		}
	}
	return p, nil
}

func parseRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		if start, err = time.Parse(store.DateLayout, startStr); err != nil {
			return start, end, fmt.Errorf("invalid start %q", startStr)
		}
	}
	if endStr != "" {
		if end, err = time.Parse(store.DateLayout, endStr); err != nil {
			return start, end, fmt.Errorf("invalid end %q", endStr)
		}
		// Inclusive of the whole end day.
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

// ---------------------------------------------------------------------------
// Broker
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleAccount(w http.ResponseWriter, r *http.Request) {
	if s.deps.Prober == nil {
		writeError(w, http.StatusServiceUnavailable, "broker not configured")
		return
	}
	res := broker.Probe(r.Context(), s.deps.Prober)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}
