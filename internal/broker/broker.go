// Package broker checks connectivity to a brokerage account. It is a
// standalone diagnostic and takes no part in backtests.
package broker

import (
	"context"
	"fmt"
	"log/slog"

	"tradehub/internal/domain"
)

// AccountProber abstracts the one brokerage call the probe needs.
type AccountProber interface {
	// Name returns the broker identifier (e.g. "alpaca").
	Name() string

	// GetAccount returns a snapshot of the account's financial metrics.
	GetAccount(ctx context.Context) (*domain.AccountInfo, error)
}

// ProbeResult is the outcome of a connectivity check.
type ProbeResult struct {
	Broker      string  `json:"broker"`
	OK          bool    `json:"ok"`
	Status      string  `json:"status,omitempty"`
	BuyingPower float64 `json:"buying_power,omitempty"`
	Cash        float64 `json:"cash,omitempty"`
	Equity      float64 `json:"equity,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Probe fetches the account once and reports whether the broker answered.
// A failed call is reported in the result rather than returned.
func Probe(ctx context.Context, p AccountProber) ProbeResult {
	log := slog.Default().With("component", "broker", "broker", p.Name())

	res := ProbeResult{Broker: p.Name()}
	acct, err := p.GetAccount(ctx)
	if err != nil {
		res.Error = err.Error()
		log.Warn("connection failed", "err", err)
		return res
	}
	if acct == nil {
		res.Error = fmt.Sprintf("%s returned no account", p.Name())
		log.Warn("connection failed", "err", res.Error)
		return res
	}

	res.OK = true
	res.Status = acct.Status
	res.BuyingPower = acct.BuyingPower
	res.Cash = acct.Cash
	res.Equity = acct.Equity
	log.Info("connection ok", "status", acct.Status, "buyingPower", acct.BuyingPower)
	return res
}
