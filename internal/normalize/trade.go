package normalize

import (
	"strconv"
	"strings"
	"time"

	"MarketPulse/internal/model"

	"github.com/shopspring/decimal"
)

// TradeItems converts raw apartment trade items into typed records. Deal year,
// month, day and amount are required; area, floor and build year fall back to
// zero when unparsable.
func TradeItems(records []model.RawRecord, regionCode, yearMonth string) ([]model.TradeItem, int) {
	items := make([]model.TradeItem, 0, len(records))
	dropped := 0
	for _, rec := range records {
		item, ok := tradeItem(rec, regionCode, yearMonth)
		if !ok {
			dropped++
			continue
		}
		items = append(items, item)
	}
	return items, dropped
}

func tradeItem(rec model.RawRecord, regionCode, yearMonth string) (model.TradeItem, bool) {
	year, err := parseUint("dealYear", rec["dealYear"])
	if err != nil {
		return model.TradeItem{}, false
	}
	month, err := parseUint("dealMonth", rec["dealMonth"])
	if err != nil || month < 1 || month > 12 {
		return model.TradeItem{}, false
	}
	dayOfMonth, err := parseUint("dealDay", rec["dealDay"])
	if err != nil || dayOfMonth < 1 || dayOfMonth > 31 {
		return model.TradeItem{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec["dealAmount"]), ",", ""))
	if err != nil {
		return model.TradeItem{}, false
	}

	code := regionCode
	if v := strings.TrimSpace(rec["sggCd"]); v != "" {
		code = v
	}
	item := model.TradeItem{
		RegionCode: code,
		YearMonth:  yearMonth,
		DealDate:   time.Date(int(year), time.Month(month), int(dayOfMonth), 0, 0, 0, 0, time.UTC),
		Dong:       strings.TrimSpace(rec["umdNm"]),
		Apartment:  strings.TrimSpace(rec["aptNm"]),
		Amount:     amount,
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(rec["excluUseAr"]), 64); err == nil {
		item.Area = v
	}
	if !isBlank(rec["floor"]) {
		if v, err := parseInt("floor", rec["floor"]); err == nil {
			item.Floor = int(v)
		}
	}
	if !isBlank(rec["buildYear"]) {
		if v, err := parseUint("buildYear", rec["buildYear"]); err == nil {
			item.BuildYear = int(v)
		}
	}
	return item, true
}
