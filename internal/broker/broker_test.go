package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradehub/internal/domain"
)

type stubProber struct {
	acct *domain.AccountInfo
	err  error
}

func (s stubProber) Name() string { return "stub" }

func (s stubProber) GetAccount(context.Context) (*domain.AccountInfo, error) {
	return s.acct, s.err
}

func TestAlpacaBrokerName(t *testing.T) {
	b := NewAlpacaBroker("key", "secret", "https://paper-api.alpaca.markets")
	if got := b.Name(); got != "alpaca" {
		t.Errorf("AlpacaBroker.Name() = %q, want %q", got, "alpaca")
	}
}

func TestAlpacaBrokerGetAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/account" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("APCA-API-KEY-ID") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"code": 40110000, "message": "request is not authorized"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           "acct-1",
			"status":       "ACTIVE",
			"currency":     "USD",
			"cash":         "1000.50",
			"equity":       "2500.25",
			"buying_power": "4000",
		})
	}))
	defer srv.Close()

	b := NewAlpacaBroker("key", "secret", srv.URL)
	acct, err := b.GetAccount(context.Background())
	if err != nil {
		t.Fatalf("GetAccount returned error: %v", err)
	}
	if acct.Status != "ACTIVE" || acct.Cash != 1000.50 || acct.Equity != 2500.25 || acct.BuyingPower != 4000 {
		t.Errorf("GetAccount = %+v", acct)
	}

	res := Probe(context.Background(), b)
	if !res.OK || res.BuyingPower != 4000 {
		t.Errorf("Probe = %+v, want OK with buying power 4000", res)
	}

	bad := NewAlpacaBroker("wrong", "secret", srv.URL)
	res = Probe(context.Background(), bad)
	if res.OK || res.Error == "" {
		t.Errorf("Probe with bad credentials = %+v, want failure", res)
	}
}

func TestProbeError(t *testing.T) {
	res := Probe(context.Background(), stubProber{err: errors.New("connection refused")})
	if res.OK {
		t.Fatal("Probe reported OK for a failing broker")
	}
	if res.Broker != "stub" || res.Error != "connection refused" {
		t.Errorf("Probe = %+v", res)
	}
}

func TestProbeOK(t *testing.T) {
	acct := &domain.AccountInfo{Status: "ACTIVE", Cash: 10, Equity: 20, BuyingPower: 40}
	res := Probe(context.Background(), stubProber{acct: acct})
	want := ProbeResult{Broker: "stub", OK: true, Status: "ACTIVE", Cash: 10, Equity: 20, BuyingPower: 40}
	if res != want {
		t.Errorf("Probe = %+v, want %+v", res, want)
	}
}

func TestProbeNilAccount(t *testing.T) {
	res := Probe(context.Background(), stubProber{})
	if res.OK || res.Error == "" {
		t.Errorf("Probe = %+v, want failure for nil account", res)
	}
}
