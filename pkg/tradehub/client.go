// Package tradehub is a Go client for the tradehub dashboard API.
package tradehub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client provides a Go SDK for interacting with the tradehub server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tradehub API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tradehub: %d %s", e.StatusCode, e.Message)
}

// IsConflict reports whether err is a 409 from the server, as returned by
// AddTrack for an existing track.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Assets lists the asset types with stored data.
func (c *Client) Assets(ctx context.Context) ([]string, error) {
	var resp struct {
		Assets []string `json:"assets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/assets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

// Tickers lists the tickers with stored data for an asset type.
func (c *Client) Tickers(ctx context.Context, asset string) ([]string, error) {
	var resp struct {
		Tickers []string `json:"tickers"`
	}
	path := "/api/assets/" + url.PathEscape(asset) + "/tickers"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tickers, nil
}

// Coverage returns the stored files of a ticker and their freshness.
func (c *Client) Coverage(ctx context.Context, asset, ticker string) (*Coverage, error) {
	var resp Coverage
	path := "/api/coverage/" + url.PathEscape(asset) + "/" + url.PathEscape(ticker)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tracks returns the tracks the collector maintains.
func (c *Client) Tracks(ctx context.Context) ([]Track, error) {
	var resp struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tracks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// AddTrack adds a track and returns the updated list. Adding an existing
// track fails with an error for which IsConflict reports true.
func (c *Client) AddTrack(ctx context.Context, t Track) ([]Track, error) {
	var resp struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tracks", t, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// Collect asks the server to bring every track up to date.
func (c *Client) Collect(ctx context.Context) ([]CollectResult, error) {
	var resp struct {
		Results []CollectResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/collect", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Backtest runs a backtest on the server. Zero-valued request fields use
// the server's defaults.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	q := url.Values{}
	q.Set("asset", req.Track.AssetType)
	q.Set("ticker", req.Track.Ticker)
	if req.Track.Resolution != "" {
		q.Set("resolution", req.Track.Resolution)
	}
	if req.Strategy != "" {
		q.Set("strategy", req.Strategy)
	}
	if req.ShortWindow > 0 {
		q.Set("short", strconv.Itoa(req.ShortWindow))
	}
	if req.LongWindow > 0 {
		q.Set("long", strconv.Itoa(req.LongWindow))
	}
	if req.InitialCash > 0 {
		q.Set("cash", strconv.FormatFloat(req.InitialCash, 'f', -1, 64))
	}
	if req.RiskFraction > 0 {
		q.Set("risk", strconv.FormatFloat(req.RiskFraction, 'f', -1, 64))
	}
	if !req.Start.IsZero() {
		q.Set("start", req.Start.Format("2006-01-02"))
	}
	if !req.End.IsZero() {
		q.Set("end", req.End.Format("2006-01-02"))
	}

	var resp BacktestResult
	if err := c.do(ctx, http.MethodGet, "/api/backtest?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Account probes the server's broker connection.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var resp Account
	err := c.do(ctx, http.MethodGet, "/api/account", nil, &resp)
	// A failed probe still carries a body describing the failure.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadGateway {
		return &Account{Error: apiErr.Message}, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
