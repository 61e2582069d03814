package strategy

import (
	"fmt"

	"MarketPulse/internal/model"
)

// DetectSignals inspects the last two weekly histogram values for a sign flip.
// It returns at most one signal, and none when fewer than two rows are given.
// A histogram exactly at zero never triggers.
func DetectSignals(rows []model.IndicatorRow) []model.Signal {
	var signals []model.Signal
	if len(rows) < 2 {
		return signals
	}

	prev := rows[len(rows)-2]
	curr := rows[len(rows)-1]
	p, c := prev.MACDHist, curr.MACDHist

	switch {
	case p < 0 && c > 0:
		signals = append(signals, newSignal(model.SignalBuy, curr, p, "음 → 양"))
	case p > 0 && c < 0:
		signals = append(signals, newSignal(model.SignalSell, curr, p, "양 → 음"))
	}
	return signals
}

func newSignal(kind model.SignalKind, curr model.IndicatorRow, prevHist float64, flip string) model.Signal {
	return model.Signal{
		Kind:     kind,
		Date:     curr.Date,
		Price:    curr.Close,
		PrevHist: prevHist,
		CurrHist: curr.MACDHist,
		Reason:   fmt.Sprintf("MACD 히스토그램 부호 전환 (%s): %.2f → %.2f", flip, prevHist, curr.MACDHist),
	}
}
