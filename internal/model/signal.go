package model

import "time"

// SignalKind is the direction of a trading signal.
type SignalKind string

const (
	SignalBuy  SignalKind = "BUY"
	SignalSell SignalKind = "SELL"
)

// Signal is a histogram sign flip on the latest weekly bar.
type Signal struct {
	Kind     SignalKind
	Date     time.Time
	Price    int64
	PrevHist float64
	CurrHist float64
	Reason   string
}
