package model

import "time"

// Bar is one OHLCV row keyed by calendar date. Daily tables hold one bar per
// trading day; weekly tables hold one bar per week bucket, dated on the last
// trading day observed in that bucket.
type Bar struct {
	Date   time.Time
	Open   int64
	High   int64
	Low    int64
	Close  int64
	Volume int64
	Diff   int64 // close-to-close delta
}

// RawRecord is a fetched row in source vocabulary, before normalization.
type RawRecord map[string]string

// Cadence identifies the bar interval of a table.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// TableKey returns the persisted table key for a stock code and cadence.
func TableKey(code string, cadence Cadence) string {
	return code + "_" + string(cadence)
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
