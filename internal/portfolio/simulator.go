// Package portfolio simulates a long/flat cash and position ledger over a
// stream of signal rows and produces the resulting equity curve.
package portfolio

import (
	"math"
	"time"

	"tradehub/internal/domain"
)

// Ledger is the cash and position state threaded through one simulation.
type Ledger struct {
	Cash     float64
	Position int64
}

// Equity marks the ledger to market at price.
func (l Ledger) Equity(price float64) float64 {
	return l.Cash + float64(l.Position)*price
}

// EquityPoint is the total portfolio value after a bar was processed.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Equity    float64   `json:"equity"`
	Cash      float64   `json:"cash"`
	Position  int64     `json:"position"`
}

// Side is the direction of a fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Fill records an executed entry or exit.
type Fill struct {
	Timestamp time.Time `json:"timestamp"`
	Side      Side      `json:"side"`
	Qty       int64     `json:"qty"`
	Price     float64   `json:"price"`
}

// Result is the output of Simulate. Signals is the input stream, returned so
// callers can display it next to the equity curve.
type Result struct {
	Equity  []EquityPoint
	Signals []domain.SignalRow
	Fills   []Fill
}

// Simulate walks rows in order, entering a long position on a +1 transition
// and liquidating it on a -1 transition, all at the bar close. Entries commit
// riskFraction of the current cash in whole units; an entry that cannot buy
// a single unit is skipped. One EquityPoint is emitted per row.
func Simulate(rows []domain.SignalRow, initialCash, riskFraction float64) Result {
	ledger := Ledger{Cash: initialCash}
	res := Result{
		Equity:  make([]EquityPoint, 0, len(rows)),
		Signals: rows,
	}

	for _, row := range rows {
		price := row.Close
		switch row.Transition {
		case 1:
			if qty := sizeEntry(ledger.Cash, riskFraction, price); qty > 0 {
				ledger.Cash -= float64(qty) * price
				ledger.Position += qty
				res.Fills = append(res.Fills, Fill{Timestamp: row.Timestamp, Side: SideBuy, Qty: qty, Price: price})
			}
		case -1:
			if ledger.Position > 0 {
				qty := ledger.Position
				ledger.Cash += float64(qty) * price
				ledger.Position = 0
				res.Fills = append(res.Fills, Fill{Timestamp: row.Timestamp, Side: SideSell, Qty: qty, Price: price})
			}
		}

		res.Equity = append(res.Equity, EquityPoint{
			Timestamp: row.Timestamp,
			Equity:    ledger.Equity(price),
			Cash:      ledger.Cash,
			Position:  ledger.Position,
		})
	}
	return res
}

// sizeEntry returns floor(cash*riskFraction/price), or 0 when the price is
// not positive.
func sizeEntry(cash, riskFraction, price float64) int64 {
	if price <= 0 {
		return 0
	}
	qty := math.Floor(cash * riskFraction / price)
	if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0
	}
	return int64(qty)
}

// Values extracts the equity values of a curve.
func Values(curve []EquityPoint) []float64 {
	out := make([]float64, len(curve))
	for i, p := range curve {
		out[i] = p.Equity
	}
	return out
}
