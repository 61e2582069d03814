package model

// Indicators holds the MACD columns computed for one bar.
type Indicators struct {
	EMA12      float64
	EMA26      float64
	MACDLine   float64
	SignalLine float64
	MACDHist   float64
}

// IndicatorRow is a bar augmented with its MACD columns.
type IndicatorRow struct {
	Bar
	Indicators
}

// Bars strips the indicator columns from rows.
func Bars(rows []IndicatorRow) []Bar {
	bars := make([]Bar, len(rows))
	for i, r := range rows {
		bars[i] = r.Bar
	}
	return bars
}

// Analysis is the outcome of one symbol's pipeline run.
type Analysis struct {
	Name    string
	Code    string
	Weekly  []IndicatorRow // most recent weekly rows, ascending
	Signals []Signal
}
