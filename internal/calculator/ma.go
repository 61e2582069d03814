package calculator

import (
	"errors"
	"math"

	"MarketPulse/internal/model"
)

// RollingMean computes the trailing simple moving average of values over the
// given window. Positions with fewer than window observations average what is
// available, so the result has the same length as values.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out, nil
}

// Round rounds x to the given number of decimal places, half to even on the
// scaled value.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.RoundToEven(x*p) / p
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = float64(b.Close)
	}
	return closes
}
