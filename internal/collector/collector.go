package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalize"
	"MarketPulse/internal/series"
	"MarketPulse/internal/store"
	"MarketPulse/internal/strategy"
)

// Collector runs the stock pipeline for one symbol at a time: incremental
// daily fetch, daily and weekly MACD, and signal detection on the latest
// weekly rows.
type Collector struct {
	Prices    PriceFetcher
	Directory Directory
	Store     store.TableStore
	Metrics   *metrics.Metrics

	Daily         calculator.Params
	Weekly        calculator.Params
	Pages         int
	LookbackWeeks int
	ReportWeeks   int

	Now func() time.Time
}

// NewCollector creates a Collector with the default windows and parameters.
func NewCollector(prices PriceFetcher, dir Directory, st store.TableStore) *Collector {
	return &Collector{
		Prices:        prices,
		Directory:     dir,
		Store:         st,
		Daily:         calculator.DailyParams(),
		Weekly:        calculator.WeeklyParams(),
		Pages:         200,
		LookbackWeeks: 30,
		ReportWeeks:   4,
		Now:           time.Now,
	}
}

// Collect resolves name, refreshes its tables and returns the weekly analysis.
func (c *Collector) Collect(ctx context.Context, name string) (*model.Analysis, error) {
	code, err := c.Directory.Lookup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	logger := log.With().Str("symbol", name).Str("code", code).Logger()

	daily, err := c.refreshDaily(ctx, code)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("rows", len(daily)).Msg("daily table ready")

	cutoff := model.Date(c.now().AddDate(0, 0, -7*c.LookbackWeeks))
	window := series.Since(daily, cutoff)
	weekly, err := c.refreshWeekly(ctx, code, model.Bars(window))
	if err != nil {
		return nil, err
	}
	logger.Info().Int("rows", len(weekly)).Msg("weekly table ready")

	recent := series.Tail(weekly, c.ReportWeeks)
	signals := strategy.DetectSignals(recent)
	if last := len(recent) - 1; last >= 0 {
		c.Metrics.ObserveWeekly(name, recent[last].Close, recent[last].MACDHist)
	}
	for _, s := range signals {
		c.Metrics.IncSignal(name, string(s.Kind))
		logger.Info().Str("signal", string(s.Kind)).Str("reason", s.Reason).Msg("signal detected")
	}

	return &model.Analysis{Name: name, Code: code, Weekly: recent, Signals: signals}, nil
}

// refreshDaily returns the daily table, fetching new pages only when the
// persisted table is missing or stale on a weekday.
func (c *Collector) refreshDaily(ctx context.Context, code string) ([]model.IndicatorRow, error) {
	key := model.TableKey(code, model.CadenceDaily)
	persisted, err := c.Store.Load(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("table", key).Msg("load failed, starting from empty table")
		persisted = nil
	}

	today := model.Date(c.now())
	if len(persisted) > 0 && !(series.Latest(persisted).Before(today) && isTradingDay(today)) {
		log.Debug().Str("table", key).Msg("daily table up to date")
		return persisted, nil
	}

	raw, err := c.Prices.FetchDailyPages(ctx, code, c.Pages)
	if err != nil {
		return nil, err
	}
	fresh, dropped := normalize.PriceBars(raw, normalize.NaverPriceColumns)
	if dropped > 0 {
		c.Metrics.AddDropped("price", dropped)
		log.Warn().Str("code", code).Int("dropped", dropped).Err(normalize.ErrCoercion).Msg("rows dropped")
	}

	merged := series.MergeByDate(model.Bars(persisted), fresh)
	rows, err := calculator.ComputeMACD(merged, c.Daily)
	if err != nil {
		return nil, fmt.Errorf("daily macd for %s: %w", code, err)
	}
	c.save(ctx, key, rows)
	return rows, nil
}

func (c *Collector) refreshWeekly(ctx context.Context, code string, window []model.Bar) ([]model.IndicatorRow, error) {
	key := model.TableKey(code, model.CadenceWeekly)
	persisted, err := c.Store.Load(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("table", key).Msg("load failed, starting from empty table")
		persisted = nil
	}

	bars := series.MergeWeekly(model.Bars(persisted), series.ResampleWeekly(window))
	series.RecomputeDiff(bars)
	rows, err := calculator.ComputeMACD(bars, c.Weekly)
	if err != nil {
		return nil, fmt.Errorf("weekly macd for %s: %w", code, err)
	}
	c.save(ctx, key, rows)
	return rows, nil
}

// save logs persistence failures; the in-memory rows stay valid.
func (c *Collector) save(ctx context.Context, key string, rows []model.IndicatorRow) {
	if err := c.Store.Save(ctx, key, rows); err != nil {
		if !errors.Is(err, store.ErrPersistence) {
			err = fmt.Errorf("%w: %v", store.ErrPersistence, err)
		}
		log.Error().Err(err).Str("table", key).Msg("save failed")
	}
}

func (c *Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// isTradingDay excludes weekends only.
func isTradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
