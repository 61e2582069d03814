package series

import (
	"sort"
	"time"

	"MarketPulse/internal/model"
)

// MergeByDate combines a persisted table with freshly fetched bars. The result
// holds one bar per date in ascending order; on a shared date the fresh bar
// replaces the persisted one.
func MergeByDate(persisted, fresh []model.Bar) []model.Bar {
	byDate := make(map[time.Time]model.Bar, len(persisted)+len(fresh))
	for _, b := range persisted {
		byDate[model.Date(b.Date)] = b
	}
	for _, b := range fresh {
		byDate[model.Date(b.Date)] = b
	}
	merged := make([]model.Bar, 0, len(byDate))
	for _, b := range byDate {
		merged = append(merged, b)
	}
	SortByDate(merged)
	return merged
}

// SortByDate sorts bars ascending by date in place.
func SortByDate(bars []model.Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
}

// Since returns the rows dated on or after cutoff.
func Since(rows []model.IndicatorRow, cutoff time.Time) []model.IndicatorRow {
	out := make([]model.IndicatorRow, 0, len(rows))
	for _, r := range rows {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Tail returns the last n rows, or all of them when there are fewer.
func Tail(rows []model.IndicatorRow, n int) []model.IndicatorRow {
	if n <= 0 {
		return nil
	}
	if len(rows) > n {
		return rows[len(rows)-n:]
	}
	return rows
}

// Latest returns the most recent date in rows, or the zero time when empty.
func Latest(rows []model.IndicatorRow) time.Time {
	var latest time.Time
	for _, r := range rows {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest
}
