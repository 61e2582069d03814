package calculator

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"MarketPulse/internal/model"
)

func barsFromCloses(closes ...int64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func TestRollingMean_MinPeriodsOne(t *testing.T) {
	got, err := RollingMean([]float64{1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1, 1.5, 2.5, 3.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if _, err := RollingMean([]float64{1}, 0); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestRound_HalfToEvenOnScaledValue(t *testing.T) {
	tests := []struct {
		x      float64
		places int
		want   float64
	}{
		{0.6382, 2, 0.64},
		{-0.3702, 2, -0.37},
		{101.538461538, 4, 101.5385},
		{2.5, 0, 2},
		{3.5, 0, 4},
	}
	for _, tt := range tests {
		if got := Round(tt.x, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d): expected %v, got %v", tt.x, tt.places, tt.want, got)
		}
	}
}

func TestComputeMACD_EmptySeries(t *testing.T) {
	rows, err := ComputeMACD(nil, DailyParams())
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
	if rows != nil {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestComputeMACD_FlatInputGivesFlatEMA(t *testing.T) {
	bars := barsFromCloses(10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10)
	rows, err := ComputeMACD(bars, DailyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range rows {
		if r.EMA12 != 10 || r.EMA26 != 10 {
			t.Errorf("row %d: expected flat ema 10, got ema12=%v ema26=%v", i, r.EMA12, r.EMA26)
		}
		if r.MACDLine != 0 || r.SignalLine != 0 || r.MACDHist != 0 {
			t.Errorf("row %d: expected zero macd, got %+v", i, r.Indicators)
		}
	}

	weekly, err := ComputeMACD(bars, WeeklyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := weekly[len(weekly)-1].MACDHist; got != -1 {
		t.Errorf("expected bias-shifted histogram -1, got %v", got)
	}
}

func TestComputeMACD_SingleBar(t *testing.T) {
	rows, err := ComputeMACD(barsFromCloses(4321), DailyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].EMA12 != 4321 || rows[0].EMA26 != 4321 {
		t.Errorf("expected ema seeded with the only close, got %+v", rows[0].Indicators)
	}
}

func TestComputeMACD_KnownValues(t *testing.T) {
	bars := barsFromCloses(100, 110)

	daily, err := ComputeMACD(bars, DailyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := model.Indicators{EMA12: 101.5385, EMA26: 100.7407, MACDLine: 0.7977, SignalLine: 0.1595, MACDHist: 0.64}
	if daily[1].Indicators != want {
		t.Errorf("daily: expected %+v, got %+v", want, daily[1].Indicators)
	}

	weekly, err := ComputeMACD(bars, WeeklyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = model.Indicators{EMA12: 101.5209, EMA26: 100.7366, MACDLine: 0.7843, SignalLine: 0.1545, MACDHist: -0.37}
	if weekly[1].Indicators != want {
		t.Errorf("weekly: expected %+v, got %+v", want, weekly[1].Indicators)
	}
}

func TestComputeMACD_Deterministic(t *testing.T) {
	closes := []int64{5120, 5200, 5150, 5300, 5280, 5410, 5390, 5500, 5470, 5380, 5250, 5310, 5290, 5400, 5520, 5600, 5580, 5490, 5450, 5530}
	bars := barsFromCloses(closes...)
	first, err := ComputeMACD(bars, WeeklyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ComputeMACD(bars, WeeklyParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical output for identical input")
	}
	for i := range bars {
		if first[i].Bar != bars[i] {
			t.Errorf("row %d: bar not carried through", i)
		}
	}
}

func TestParams_Alpha(t *testing.T) {
	if got := DailyParams().Alpha(9); got != 0.2 {
		t.Errorf("expected 0.2, got %v", got)
	}
	if got := WeeklyParams().Alpha(12); math.Abs(got-2/13.15) > 1e-12 {
		t.Errorf("expected 2/13.15, got %v", got)
	}
}
