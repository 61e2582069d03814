package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MarketPulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price int64
	Days  int
	End   time.Time

	// Daily, when set, is returned by FetchDailyPages instead of generated rows.
	Daily []model.RawRecord
	// Trades maps "regionCode/yearMonth" to items. Regions in Fail return an error.
	Trades map[string][]model.RawRecord
	Fail   map[string]bool
	Codes  map[string]string

	Calls int
}

func (m *MockFetcher) FetchDailyPages(_ context.Context, code string, maxPages int) ([]model.RawRecord, error) {
	m.Calls++
	if m.Fail[code] {
		return nil, &FetchError{Source: "mock", Key: code, Err: fmt.Errorf("unavailable")}
	}
	if m.Daily != nil {
		return m.Daily, nil
	}
	days := m.Days
	if days <= 0 || days > maxPages*10 {
		days = maxPages * 10
	}
	return generateMockRows(m.Price, days, m.End), nil
}

func (m *MockFetcher) FetchTradeItems(_ context.Context, regionCode, yearMonth string) ([]model.RawRecord, error) {
	m.Calls++
	if m.Fail[regionCode] {
		return nil, &FetchError{Source: "mock", Key: regionCode + "/" + yearMonth, Err: fmt.Errorf("unavailable")}
	}
	return m.Trades[regionCode+"/"+yearMonth], nil
}

func (m *MockFetcher) Lookup(_ context.Context, name string) (string, error) {
	if codePattern.MatchString(name) {
		return name, nil
	}
	if code, ok := m.Codes[name]; ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
}

// generateMockRows produces weekday rows in Naver vocabulary, newest first,
// ending at end.
func generateMockRows(base int64, count int, end time.Time) []model.RawRecord {
	if end.IsZero() {
		end = time.Now()
	}
	rows := make([]model.RawRecord, 0, count)
	d := model.Date(end)
	for i := 0; len(rows) < count; i++ {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			p := base + int64((count/2-len(rows))*10)
			rows = append(rows, model.RawRecord{
				"날짜":  d.Format("2006.01.02"),
				"종가":  strconv.FormatInt(p, 10),
				"전일비": "10",
				"시가":  strconv.FormatInt(p-5, 10),
				"고가":  strconv.FormatInt(p+20, 10),
				"저가":  strconv.FormatInt(p-20, 10),
				"거래량": "1,000,000",
			})
		}
		d = d.AddDate(0, 0, -1)
	}
	return rows
}
