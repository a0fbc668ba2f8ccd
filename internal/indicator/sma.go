// Package indicator provides technical indicators over float price series.
package indicator

import "math"

// SMA returns the trailing simple moving average of values over window.
// The result has the same length as values; entries with fewer than window
// observations available are NaN. A non-positive window yields all NaN.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if window > 0 && i >= window {
			sum -= values[i-window]
		}
		if window <= 0 || i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
