package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeItem is one apartment sale reported for a region and contract month.
type TradeItem struct {
	RegionCode string
	YearMonth  string // YYYYMM
	DealDate   time.Time
	Dong       string
	Apartment  string
	Amount     decimal.Decimal // 10k KRW
	Area       float64         // exclusive area, m²
	Floor      int
	BuildYear  int
}

// DistrictVolume is the transaction count of one district for a month.
type DistrictVolume struct {
	City     string
	District string
	Code     string
	Count    int
}

// CityVolume sums the districts of one city.
type CityVolume struct {
	City      string
	Count     int
	Districts []DistrictVolume
}

// VolumeSummary is the national transaction volume for a contract month.
type VolumeSummary struct {
	YearMonth string
	Cities    []CityVolume
	National  int
	Skipped   []string // districts whose fetch failed
}
