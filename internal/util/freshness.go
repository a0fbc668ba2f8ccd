package util

import (
	"time"
)

// Freshness classifies how far behind today a track's newest data is.
type Freshness string

const (
	FreshUpToDate Freshness = "up-to-date"
	FreshLate     Freshness = "late"
	FreshStale    Freshness = "stale"
)

// staleAfterDays is the lag beyond which data counts as stale.
const staleAfterDays = 6

// DaysBehind returns the number of whole calendar days between the date
// of lastEnd and the date of now, both taken in UTC.
func DaysBehind(lastEnd, now time.Time) int {
	a := truncateDay(lastEnd)
	b := truncateDay(now)
	return int(b.Sub(a).Hours() / 24)
}

// ClassifyFreshness maps a lag in days to a Freshness bucket.
func ClassifyFreshness(daysBehind int) Freshness {
	switch {
	case daysBehind <= 0:
		return FreshUpToDate
	case daysBehind <= staleAfterDays:
		return FreshLate
	default:
		return FreshStale
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
