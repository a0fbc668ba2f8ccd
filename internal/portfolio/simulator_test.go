package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradehub/internal/domain"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// rows builds signal rows from closes and signals, deriving transitions.
func rows(closes []float64, signals []int) []domain.SignalRow {
	out := make([]domain.SignalRow, len(closes))
	for i := range closes {
		out[i] = domain.SignalRow{Timestamp: day0.AddDate(0, 0, i), Close: closes[i], Signal: signals[i]}
		if i > 0 {
			out[i].Transition = signals[i] - signals[i-1]
		}
	}
	return out
}

func TestSimulate_Scenario(t *testing.T) {
	in := rows([]float64{10, 10, 10, 12, 12, 9, 9}, []int{0, 0, 0, 1, 1, 0, 0})
	res := Simulate(in, 1000, 0.5)

	require.Len(t, res.Equity, 7)
	assert.Equal(t, []float64{1000, 1000, 1000, 1000, 1000, 877, 877}, Values(res.Equity))

	// Entry at bar 3: allocate 500, qty floor(500/12) = 41, cash 508.
	assert.Equal(t, 508.0, res.Equity[3].Cash)
	assert.Equal(t, int64(41), res.Equity[3].Position)
	// Exit at bar 5: 41 * 9 = 369 proceeds.
	assert.Equal(t, 877.0, res.Equity[5].Cash)
	assert.Equal(t, int64(0), res.Equity[5].Position)

	require.Len(t, res.Fills, 2)
	assert.Equal(t, Fill{Timestamp: in[3].Timestamp, Side: SideBuy, Qty: 41, Price: 12}, res.Fills[0])
	assert.Equal(t, Fill{Timestamp: in[5].Timestamp, Side: SideSell, Qty: 41, Price: 9}, res.Fills[1])

	for i, p := range res.Equity {
		assert.Equal(t, in[i].Timestamp, p.Timestamp)
	}
	assert.Equal(t, in, res.Signals)
}

func TestSimulate_FlatStart(t *testing.T) {
	in := rows([]float64{10, 11, 9, 14, 3}, []int{0, 0, 0, 0, 0})
	res := Simulate(in, 2500, 0.1)
	for _, p := range res.Equity {
		assert.Equal(t, 2500.0, p.Equity)
	}
	assert.Empty(t, res.Fills)
}

func TestSimulate_EntryTooExpensiveIsSkipped(t *testing.T) {
	in := rows([]float64{100, 600, 650, 500}, []int{0, 1, 1, 0})
	res := Simulate(in, 1000, 0.5)

	assert.Empty(t, res.Fills)
	assert.Equal(t, []float64{1000, 1000, 1000, 1000}, Values(res.Equity))
}

func TestSimulate_ExitWhileFlatIsNoop(t *testing.T) {
	in := []domain.SignalRow{
		{Timestamp: day0, Close: 10},
		{Timestamp: day0.AddDate(0, 0, 1), Close: 11, Transition: -1},
	}
	res := Simulate(in, 1000, 1)
	assert.Empty(t, res.Fills)
	assert.Equal(t, []float64{1000, 1000}, Values(res.Equity))
}

func TestSimulate_SizingUsesCurrentCash(t *testing.T) {
	in := rows(
		[]float64{10, 10, 20, 20, 10, 10},
		[]int{0, 1, 0, 1, 0, 0},
	)
	res := Simulate(in, 1000, 0.5)
	require.Len(t, res.Fills, 4)

	// First entry: 500/10 = 50 units; exit at 20 leaves cash 500 + 1000 = 1500.
	assert.Equal(t, int64(50), res.Fills[0].Qty)
	assert.Equal(t, 1500.0, res.Equity[2].Cash)
	// Second entry sizes off 1500, not the initial 1000: 750/20 = 37 units.
	assert.Equal(t, int64(37), res.Fills[2].Qty)
}

func TestSimulate_Invariants(t *testing.T) {
	closes := []float64{10, 12, 11, 13, 9, 8, 12, 15, 14, 10, 11, 16}
	signals := []int{0, 1, 1, 0, 0, 1, 1, 1, 0, 1, 0, 1}
	in := rows(closes, signals)
	res := Simulate(in, 1000, 0.3)

	prev := Ledger{Cash: 1000}
	for i, p := range res.Equity {
		assert.GreaterOrEqual(t, p.Position, int64(0))
		if in[i].Transition == 0 {
			// Without a fill, equity only moves with the price.
			assert.Equal(t, prev.Cash+float64(prev.Position)*closes[i], p.Equity)
		}
		prev = Ledger{Cash: p.Cash, Position: p.Position}
	}
}

func TestSimulate_Empty(t *testing.T) {
	res := Simulate(nil, 1000, 0.5)
	assert.NotNil(t, res.Equity)
	assert.Empty(t, res.Equity)
}

func TestLedgerEquity(t *testing.T) {
	l := Ledger{Cash: 100, Position: 3}
	assert.Equal(t, 130.0, l.Equity(10))
}
