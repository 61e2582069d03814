package volume

import (
	"time"

	"MarketPulse/internal/model"
)

// Aggregate sums per-district transaction counts into city subtotals and the
// national total. Cities keep the order in which they first appear.
func Aggregate(yearMonth string, districts []model.DistrictVolume) model.VolumeSummary {
	summary := model.VolumeSummary{YearMonth: yearMonth}
	index := make(map[string]int)
	for _, d := range districts {
		i, ok := index[d.City]
		if !ok {
			i = len(summary.Cities)
			index[d.City] = i
			summary.Cities = append(summary.Cities, model.CityVolume{City: d.City})
		}
		summary.Cities[i].Districts = append(summary.Cities[i].Districts, d)
		summary.Cities[i].Count += d.Count
	}
	for _, c := range summary.Cities {
		summary.National += c.Count
	}
	return summary
}

// YearMonths returns the n contract months before now, most recent first, as
// YYYYMM strings. The current month is excluded since its reports are
// incomplete.
func YearMonths(now time.Time, n int) []string {
	months := make([]string, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		months = append(months, first.AddDate(0, -i, 0).Format("200601"))
	}
	return months
}
