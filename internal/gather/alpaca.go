package gather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradehub/internal/domain"
)

// Compile-time interface check.
var _ BarSource = (*AlpacaSource)(nil)

// AlpacaSource fetches stock and crypto bars from the Alpaca market-data API.
type AlpacaSource struct {
	client *marketdata.Client
	feed   string
}

// NewAlpacaSource creates an AlpacaSource with the given credentials. feed
// selects the stock data feed ("iex" or "sip"); dataURL may be empty.
func NewAlpacaSource(apiKey, apiSecret, dataURL, feed string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{
		client: marketdata.NewClient(opts),
		feed:   feed,
	}
}

// Name returns the source identifier.
func (s *AlpacaSource) Name() string { return "alpaca" }

// FetchBars fetches bars for a stock or crypto track.
func (s *AlpacaSource) FetchBars(ctx context.Context, track domain.Track, start, end time.Time) ([]domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tf, err := TimeFrame(track.Resolution)
	if err != nil {
		return nil, err
	}

	switch track.AssetClass {
	case domain.AssetStock:
		alpacaBars, err := s.client.GetBars(track.Ticker, marketdata.GetBarsRequest{
			TimeFrame: tf,
			Start:     start,
			End:       end,
			Feed:      s.feed,
		})
		if err != nil {
			return nil, fmt.Errorf("GetBars %s: %w", track.Ticker, err)
		}
		bars := make([]domain.Bar, 0, len(alpacaBars))
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     track.Ticker,
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     float64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
		return bars, nil

	case domain.AssetCrypto:
		symbol := CryptoSymbol(track.Ticker)
		alpacaBars, err := s.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
			TimeFrame: tf,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("GetCryptoBars %s: %w", symbol, err)
		}
		bars := make([]domain.Bar, 0, len(alpacaBars))
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     track.Ticker,
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     ab.Volume,
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
		return bars, nil
	}
	return nil, fmt.Errorf("unsupported asset type %q", track.AssetClass)
}

// TimeFrame maps a resolution to the Alpaca bar time frame.
func TimeFrame(r domain.Resolution) (marketdata.TimeFrame, error) {
	switch r {
	case domain.Resolution1d:
		return marketdata.OneDay, nil
	case domain.Resolution1h:
		return marketdata.OneHour, nil
	case domain.Resolution15m:
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case domain.Resolution5m:
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	}
	return marketdata.TimeFrame{}, fmt.Errorf("unsupported resolution %q", r)
}

// CryptoSymbol converts a stored crypto ticker such as "BTC-USD" to the
// Alpaca pair notation "BTC/USD".
func CryptoSymbol(ticker string) string {
	return strings.ToUpper(strings.Replace(ticker, "-", "/", 1))
}
