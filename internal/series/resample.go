package series

import (
	"fmt"
	"time"

	"MarketPulse/internal/model"
)

// WeekKey identifies the week bucket of t as "YYYY-WW": the calendar year and
// the Monday-start week number, where days before the year's first Monday fall
// in week 00. The key is opaque; the split of a week across a year boundary is
// kept as is.
func WeekKey(t time.Time) string {
	weekday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	week := (t.YearDay() - 1 + 7 - weekday) / 7
	return fmt.Sprintf("%04d-%02d", t.Year(), week)
}

// ResampleWeekly reduces daily bars into one bar per week bucket. Each weekly
// bar is dated on the last trading day of its bucket. Diff is left at zero;
// it is recomputed after the merge with RecomputeDiff.
func ResampleWeekly(daily []model.Bar) []model.Bar {
	if len(daily) == 0 {
		return nil
	}
	sorted := make([]model.Bar, len(daily))
	copy(sorted, daily)
	SortByDate(sorted)

	var weekly []model.Bar
	var week model.Bar
	var weekKey string

	for i, d := range sorted {
		key := WeekKey(d.Date)
		if i == 0 || key != weekKey {
			if i > 0 {
				weekly = append(weekly, week)
			}
			week = model.Bar{Date: d.Date, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Volume: d.Volume}
			weekKey = key
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Date = d.Date
		week.Close = d.Close
		week.Volume += d.Volume
	}
	weekly = append(weekly, week)
	return weekly
}

// MergeWeekly merges freshly resampled weekly bars into the persisted weekly
// table. Fresh bars win on a shared date, and a fresh bucket also replaces a
// persisted bar of the same week dated on an earlier trading day.
func MergeWeekly(persisted, fresh []model.Bar) []model.Bar {
	freshWeeks := make(map[string]bool, len(fresh))
	for _, b := range fresh {
		freshWeeks[WeekKey(b.Date)] = true
	}
	kept := make([]model.Bar, 0, len(persisted))
	for _, b := range persisted {
		if freshWeeks[WeekKey(b.Date)] {
			continue
		}
		kept = append(kept, b)
	}
	return MergeByDate(kept, fresh)
}

// RecomputeDiff sets each bar's diff to its close minus the previous close.
// The first bar's diff is 0.
func RecomputeDiff(bars []model.Bar) {
	for i := range bars {
		if i == 0 {
			bars[i].Diff = 0
			continue
		}
		bars[i].Diff = bars[i].Close - bars[i-1].Close
	}
}
