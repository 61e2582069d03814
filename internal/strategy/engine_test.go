package strategy

import (
	"strings"
	"testing"
	"time"

	"MarketPulse/internal/model"
)

func histRows(hists ...float64) []model.IndicatorRow {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.IndicatorRow, len(hists))
	for i, h := range hists {
		rows[i] = model.IndicatorRow{
			Bar:        model.Bar{Date: start.AddDate(0, 0, 7*i), Close: int64(1000 + i)},
			Indicators: model.Indicators{MACDHist: h},
		}
	}
	return rows
}

func TestDetectSignals_Buy(t *testing.T) {
	rows := histRows(-1.2, 0.5)
	sigs := DetectSignals(rows)
	if len(sigs) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(sigs))
	}
	s := sigs[0]
	if s.Kind != model.SignalBuy {
		t.Errorf("expected BUY, got %s", s.Kind)
	}
	if !s.Date.Equal(rows[1].Date) || s.Price != rows[1].Close {
		t.Errorf("expected signal at the current bar, got %+v", s)
	}
	if !strings.Contains(s.Reason, "-1.20 → 0.50") {
		t.Errorf("unexpected reason %q", s.Reason)
	}
}

func TestDetectSignals_Sell(t *testing.T) {
	sigs := DetectSignals(histRows(0.3, 2.1, -0.01))
	if len(sigs) != 1 || sigs[0].Kind != model.SignalSell {
		t.Fatalf("expected one SELL signal, got %+v", sigs)
	}
	if sigs[0].PrevHist != 2.1 || sigs[0].CurrHist != -0.01 {
		t.Errorf("expected only the last pair to be examined, got %+v", sigs[0])
	}
}

func TestDetectSignals_NoSignal(t *testing.T) {
	tests := []struct {
		name  string
		hists []float64
	}{
		{"zero to positive", []float64{0.0, 0.5}},
		{"negative to zero", []float64{-0.5, 0.0}},
		{"positive to zero", []float64{0.5, 0.0}},
		{"both negative", []float64{-1.0, -0.2}},
		{"both positive", []float64{0.2, 1.0}},
		{"flip before the last pair", []float64{-1.0, 1.0, 2.0}},
		{"single row", []float64{1.0}},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sigs := DetectSignals(histRows(tt.hists...)); len(sigs) != 0 {
				t.Errorf("expected no signal, got %+v", sigs)
			}
		})
	}
}
