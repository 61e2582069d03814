package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalize"
	"MarketPulse/internal/region"
	"MarketPulse/internal/volume"
)

// VolumeCollector counts apartment trades of every district in a region
// table for one contract month.
type VolumeCollector struct {
	Trades  TradeFetcher
	Regions *region.Table
	Delay   time.Duration
	Metrics *metrics.Metrics
}

// NewVolumeCollector creates a VolumeCollector.
func NewVolumeCollector(trades TradeFetcher, regions *region.Table, delay time.Duration) *VolumeCollector {
	return &VolumeCollector{Trades: trades, Regions: regions, Delay: delay}
}

// Collect fetches every district sequentially. A failed district is logged,
// listed in Skipped and left out of the counts.
func (v *VolumeCollector) Collect(ctx context.Context, yearMonth string) (*model.VolumeSummary, error) {
	var districts []model.DistrictVolume
	var skipped []string

	first := true
	for _, city := range v.Regions.Cities {
		for _, d := range city.Districts {
			if !first {
				if err := sleep(ctx, v.Delay); err != nil {
					return nil, err
				}
			}
			first = false

			logger := log.With().Str("city", city.Name).Str("district", d.Name).
				Str("region", d.Code).Str("year_month", yearMonth).Logger()

			raw, err := v.Trades.FetchTradeItems(ctx, d.Code, yearMonth)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Error().Err(err).Msg("district fetch failed")
				skipped = append(skipped, city.Name+" "+d.Name)
				continue
			}
			items, dropped := normalize.TradeItems(raw, d.Code, yearMonth)
			if dropped > 0 {
				v.Metrics.AddDropped("trade", dropped)
				logger.Warn().Int("dropped", dropped).Msg("trade items dropped")
			}
			logger.Debug().Int("count", len(items)).Msg("district collected")
			districts = append(districts, model.DistrictVolume{
				City:     city.Name,
				District: d.Name,
				Code:     d.Code,
				Count:    len(items),
			})
		}
	}

	summary := volume.Aggregate(yearMonth, districts)
	summary.Skipped = skipped
	for _, c := range summary.Cities {
		v.Metrics.SetTradeVolume(c.City, c.Count)
	}
	log.Info().Str("year_month", yearMonth).Int("national", summary.National).
		Int("skipped", len(skipped)).Msg("volume collected")
	return &summary, nil
}
