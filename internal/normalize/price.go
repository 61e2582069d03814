package normalize

import (
	"strings"

	"MarketPulse/internal/model"
)

// Canonical price fields.
const (
	FieldDate   = "date"
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldDiff   = "diff"
	FieldVolume = "volume"
)

// NaverPriceColumns maps the daily price table headers of Naver Finance to
// canonical field names.
var NaverPriceColumns = map[string]string{
	"날짜":  FieldDate,
	"종가":  FieldClose,
	"전일비": FieldDiff,
	"시가":  FieldOpen,
	"고가":  FieldHigh,
	"저가":  FieldLow,
	"거래량": FieldVolume,
}

var fallMarkers = []string{"하락", "하한", "▼", "-"}

// PriceBars converts raw daily rows into bars. columns maps source field names
// to canonical ones; a nil map means the records already use canonical names.
// Rows missing a required field or failing coercion are dropped; the number of
// dropped rows is returned with the bars.
func PriceBars(records []model.RawRecord, columns map[string]string) ([]model.Bar, int) {
	bars := make([]model.Bar, 0, len(records))
	dropped := 0
	for _, rec := range records {
		b, ok := priceBar(remap(rec, columns))
		if !ok {
			dropped++
			continue
		}
		bars = append(bars, b)
	}
	return bars, dropped
}

func remap(rec model.RawRecord, columns map[string]string) map[string]string {
	if columns == nil {
		return rec
	}
	out := make(map[string]string, len(columns))
	for src, dst := range columns {
		if v, ok := rec[src]; ok {
			out[dst] = v
		}
	}
	return out
}

func priceBar(f map[string]string) (model.Bar, bool) {
	date, err := parseDate(FieldDate, f[FieldDate])
	if err != nil {
		return model.Bar{}, false
	}
	b := model.Bar{Date: model.Date(date)}
	for _, field := range []struct {
		name string
		dst  *int64
	}{
		{FieldOpen, &b.Open},
		{FieldHigh, &b.High},
		{FieldLow, &b.Low},
		{FieldClose, &b.Close},
		{FieldVolume, &b.Volume},
	} {
		v, err := parseUint(field.name, f[field.name])
		if err != nil {
			return model.Bar{}, false
		}
		*field.dst = v
	}
	b.Diff = parseDiff(f[FieldDiff])
	return b, true
}

// parseDiff extracts the magnitude from a change cell such as "하락 1,200" and
// applies the sign of its direction marker. Cells without digits yield 0.
func parseDiff(raw string) int64 {
	digits := digitsPattern.FindString(raw)
	v, err := parseInt(FieldDiff, digits)
	if err != nil {
		return 0
	}
	for _, m := range fallMarkers {
		if strings.Contains(raw, m) {
			return -v
		}
	}
	return v
}
