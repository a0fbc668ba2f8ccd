package tradehub

import "time"

// Track is one instrument the collector keeps up to date.
type Track struct {
	AssetType  string `json:"asset_type"`
	Ticker     string `json:"ticker"`
	Resolution string `json:"resolution"`
}

// File is one stored bar file.
type File struct {
	Track     Track  `json:"track"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Path      string `json:"file_path"`
}

// Coverage lists the stored files of a ticker. Freshness is one of
// "up-to-date", "late" or "stale".
type Coverage struct {
	Asset      string `json:"asset"`
	Ticker     string `json:"ticker"`
	Files      []File `json:"files"`
	LastEnd    string `json:"last_end"`
	DaysBehind int    `json:"days_behind"`
	Freshness  string `json:"freshness"`
}

// CollectResult is the outcome of collecting one track.
type CollectResult struct {
	Track  Track  `json:"track"`
	Status string `json:"status"`
	Bars   int    `json:"bars"`
	Path   string `json:"file_path"`
	Error  string `json:"error"`
}

// BacktestRequest selects the track, strategy and parameters of a backtest.
type BacktestRequest struct {
	Track        Track
	Strategy     string
	ShortWindow  int
	LongWindow   int
	InitialCash  float64
	RiskFraction float64
	Start, End   time.Time
}

// Params echoes the parameters the server used.
type Params struct {
	ShortWindow    int     `json:"short_window"`
	LongWindow     int     `json:"long_window"`
	InitialCash    float64 `json:"initial_cash"`
	RiskFraction   float64 `json:"risk_fraction"`
	PeriodsPerYear int     `json:"periods_per_year"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
}

// EquityPoint is the portfolio value after one bar.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
	Cash      float64   `json:"cash"`
	Position  int64     `json:"position"`
}

// Fill is one simulated trade.
type Fill struct {
	Timestamp time.Time `json:"timestamp"`
	Side      string    `json:"side"`
	Qty       int64     `json:"qty"`
	Price     float64   `json:"price"`
}

// Metrics summarizes an equity curve. CAGR and Sharpe are nil when
// undefined for the curve.
type Metrics struct {
	TotalReturn float64  `json:"total_return"`
	CAGR        *float64 `json:"cagr"`
	MaxDrawdown float64  `json:"max_drawdown"`
	Sharpe      *float64 `json:"sharpe"`
}

// BacktestResult is a backtest report.
type BacktestResult struct {
	Track    Track         `json:"track"`
	Strategy string        `json:"strategy"`
	Params   Params        `json:"params"`
	Equity   []EquityPoint `json:"equity"`
	Fills    []Fill        `json:"fills"`
	Metrics  Metrics       `json:"metrics"`
}

// Account is the result of a broker connectivity probe.
type Account struct {
	Broker      string  `json:"broker"`
	OK          bool    `json:"ok"`
	Status      string  `json:"status"`
	BuyingPower float64 `json:"buying_power"`
	Cash        float64 `json:"cash"`
	Equity      float64 `json:"equity"`
	Error       string  `json:"error"`
}
