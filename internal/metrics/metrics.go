// Package metrics exposes pipeline counters and gauges to Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline activity.
type Metrics struct {
	fetches     *prometheus.CounterVec
	droppedRows *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	signals     *prometheus.CounterVec
	lastClose   *prometheus.GaugeVec
	lastHist    *prometheus.GaugeVec
	tradeVolume *prometheus.GaugeVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_fetches_total",
				Help: "Upstream fetches by source and result",
			},
			[]string{"source", "result"},
		),
		droppedRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_dropped_rows_total",
				Help: "Rows dropped during normalization",
			},
			[]string{"kind"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_runs_total",
				Help: "Pipeline runs by job and result",
			},
			[]string{"job", "result"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_run_duration_seconds",
				Help:    "Duration of pipeline runs in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"job"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_signals_total",
				Help: "Detected MACD sign-change signals",
			},
			[]string{"symbol", "kind"},
		),
		lastClose: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_weekly_close",
				Help: "Latest weekly close per symbol",
			},
			[]string{"symbol"},
		),
		lastHist: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_weekly_macd_hist",
				Help: "Latest weekly MACD histogram per symbol",
			},
			[]string{"symbol"},
		),
		tradeVolume: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_apt_trade_volume",
				Help: "Apartment transactions per city for the last collected month",
			},
			[]string{"city"},
		),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveFetch counts one upstream request.
func (m *Metrics) ObserveFetch(source string, err error) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(source, result(err)).Inc()
}

// AddDropped counts rows dropped by the normalizer.
func (m *Metrics) AddDropped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedRows.WithLabelValues(kind).Add(float64(n))
}

// ObserveRun records a finished job run.
func (m *Metrics) ObserveRun(job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job, result(err)).Inc()
	m.runDuration.WithLabelValues(job).Observe(d.Seconds())
}

// ObserveWeekly records the latest weekly row of a symbol.
func (m *Metrics) ObserveWeekly(symbol string, close int64, hist float64) {
	if m == nil {
		return
	}
	m.lastClose.WithLabelValues(symbol).Set(float64(close))
	m.lastHist.WithLabelValues(symbol).Set(hist)
}

// IncSignal counts a detected signal.
func (m *Metrics) IncSignal(symbol, kind string) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(symbol, kind).Inc()
}

// SetTradeVolume records a city total.
func (m *Metrics) SetTradeVolume(city string, count int) {
	if m == nil {
		return
	}
	m.tradeVolume.WithLabelValues(city).Set(float64(count))
}
