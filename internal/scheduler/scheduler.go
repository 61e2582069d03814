package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/store"
	"MarketPulse/internal/volume"
)

// ErrJobRunning is returned when a job is triggered while it is still running.
var ErrJobRunning = errors.New("job already running")

// StockCollector runs the stock pipeline for one symbol.
type StockCollector interface {
	Collect(ctx context.Context, name string) (*model.Analysis, error)
}

// VolumeCollector runs the apartment pipeline for one contract month.
type VolumeCollector interface {
	Collect(ctx context.Context, yearMonth string) (*model.VolumeSummary, error)
}

// Scheduler manages the cron jobs and on-demand runs.
type Scheduler struct {
	Cron     *cron.Cron
	Stocks   StockCollector
	Volume   VolumeCollector
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Ctx      context.Context

	Symbols      []string
	VolumeMonths int
	SummaryDir   string
	Retries      int
	Now          func() time.Time

	stockMu  sync.Mutex
	volumeMu sync.Mutex
}

// NewScheduler creates a new Scheduler. vc may be nil when the apartment job
// is not configured.
func NewScheduler(ctx context.Context, sc StockCollector, vc VolumeCollector, n notifier.Notifier, rec recorder.Recorder) *Scheduler {
	if n == nil {
		n = notifier.Noop{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Stocks:       sc,
		Volume:       vc,
		Notifier:     n,
		Recorder:     rec,
		Ctx:          ctx,
		VolumeMonths: 1,
		Retries:      3,
		Now:          time.Now,
	}
}

// RegisterAll registers the stock job and, when configured, the volume job.
func (s *Scheduler) RegisterAll(stockCron, volumeCron string) error {
	if _, err := s.Cron.AddFunc(stockCron, func() { s.RunStocksNow(s.Ctx) }); err != nil {
		return fmt.Errorf("register stock task: %w", err)
	}
	if s.Volume == nil {
		return nil
	}
	if _, err := s.Cron.AddFunc(volumeCron, func() { s.RunVolumeNow(s.Ctx) }); err != nil {
		return fmt.Errorf("register volume task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunStocksNow analyzes every configured symbol. Failures are isolated per
// symbol and reported in the summary.
func (s *Scheduler) RunStocksNow(ctx context.Context) (notifier.RunSummary, error) {
	if !s.stockMu.TryLock() {
		log.Warn().Msg("stock job still running, skipping")
		return notifier.RunSummary{}, ErrJobRunning
	}
	defer s.stockMu.Unlock()

	start := time.Now()
	runID := recorder.NewRunID()
	log.Info().Str("run_id", runID).Strs("symbols", s.Symbols).Msg("running stock task")

	var summary notifier.RunSummary
	for _, name := range s.Symbols {
		if ctx.Err() != nil {
			break
		}
		a, err := s.analyze(ctx, runID, name)
		if err != nil {
			summary.Failed = append(summary.Failed, name)
			continue
		}
		summary.Analyzed = append(summary.Analyzed, name)
		if len(a.Signals) > 0 {
			summary.WithSignals = append(summary.WithSignals, name)
		}
	}

	if len(summary.Analyzed) > 0 {
		s.trySend(ctx, notifier.FormatRunSummary(summary))
	}

	var runErr error
	if len(summary.Failed) > 0 {
		runErr = fmt.Errorf("%d of %d symbols failed", len(summary.Failed), len(s.Symbols))
	}
	s.Metrics.ObserveRun("stocks", time.Since(start), runErr)
	log.Info().Str("run_id", runID).Int("analyzed", len(summary.Analyzed)).
		Int("failed", len(summary.Failed)).Strs("signals", summary.WithSignals).Msg("stock task finished")
	return summary, ctx.Err()
}

func (s *Scheduler) analyze(ctx context.Context, runID, name string) (*model.Analysis, error) {
	a, err := s.Stocks.Collect(ctx, name)
	if err != nil {
		log.Error().Err(err).Str("symbol", name).Msg("analysis failed")
		s.trySend(ctx, notifier.FormatError(name, err))
		return nil, err
	}

	for _, r := range a.Weekly {
		log.Info().Str("symbol", name).Str("code", a.Code).
			Str("week", r.Date.Format("2006-01-02")).Int64("close", r.Close).
			Int64("diff", r.Diff).Int64("volume", r.Volume).Float64("macd_hist", r.MACDHist).
			Msg("weekly row")
	}
	s.trySend(ctx, notifier.FormatWeeklyReport(a))
	if err := s.Recorder.RecordAnalysis(ctx, runID, a); err != nil {
		log.Error().Err(err).Str("symbol", name).Msg("record analysis failed")
	}
	return a, nil
}

// RunVolumeNow collects apartment volume for the given months, or for the
// configured number of months before now when none are given.
func (s *Scheduler) RunVolumeNow(ctx context.Context, months ...string) error {
	if s.Volume == nil {
		return fmt.Errorf("volume job not configured")
	}
	if !s.volumeMu.TryLock() {
		log.Warn().Msg("volume job still running, skipping")
		return ErrJobRunning
	}
	defer s.volumeMu.Unlock()

	if len(months) == 0 {
		months = volume.YearMonths(s.now(), s.VolumeMonths)
	}
	start := time.Now()
	runID := recorder.NewRunID()
	log.Info().Str("run_id", runID).Strs("months", months).Msg("running volume task")

	var errs []error
	for _, ym := range months {
		summary, err := s.Volume.Collect(ctx, ym)
		if err != nil {
			log.Error().Err(err).Str("year_month", ym).Msg("volume collection failed")
			s.trySend(ctx, fmt.Sprintf("⚠️ **오류 발생**\n%s 거래량 수집 중 오류 발생: %v", ym, err))
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if s.SummaryDir != "" {
			if path, err := store.WriteVolumeSummary(s.SummaryDir, *summary); err != nil {
				log.Error().Err(err).Str("year_month", ym).Msg("write summary failed")
			} else {
				log.Info().Str("path", path).Msg("summary written")
			}
		}
		if err := s.Recorder.RecordVolume(ctx, runID, summary); err != nil {
			log.Error().Err(err).Str("year_month", ym).Msg("record volume failed")
		}
		s.trySend(ctx, notifier.FormatVolumeSummary(summary))
	}

	err := errors.Join(errs...)
	s.Metrics.ObserveRun("volume", time.Since(start), err)
	return err
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/stocks", "/분석":
		if _, err := s.RunStocksNow(ctx); errors.Is(err, ErrJobRunning) {
			return "⏳ 분석이 이미 진행 중입니다."
		}
		return ""
	case "/stock", "/종목":
		if len(fields) < 2 {
			return "사용법: /stock 종목명"
		}
		name := strings.Join(fields[1:], " ")
		a, err := s.Stocks.Collect(ctx, name)
		if err != nil {
			return notifier.FormatError(name, err)
		}
		return notifier.FormatWeeklyReport(a)
	case "/volume", "/거래량":
		if s.Volume == nil {
			return "거래량 수집이 설정되지 않았습니다."
		}
		for _, ym := range fields[1:] {
			if _, err := time.Parse("200601", ym); err != nil {
				return "사용법: /volume [YYYYMM]"
			}
		}
		if err := s.RunVolumeNow(ctx, fields[1:]...); errors.Is(err, ErrJobRunning) {
			return "⏳ 거래량 수집이 이미 진행 중입니다."
		}
		return ""
	default:
		return helpText
	}
}

const helpText = "사용 가능한 명령:\n• /stocks 전체 종목 분석\n• /stock 종목명 단일 종목 분석\n• /volume [YYYYMM] 아파트 거래량"

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := notifier.SendWithRetry(ctx, s.Notifier, text, s.Retries); err != nil {
		log.Error().Err(err).Msg("send notification failed")
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
