package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"MarketPulse/internal/cache"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/config"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/region"
	"MarketPulse/internal/scheduler"
	"MarketPulse/internal/store"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	job := flag.String("job", "", "run one job and exit: stocks, volume or all")
	month := flag.String("month", "", "contract month for the volume job (YYYYMM)")
	flag.Parse()

	if err := run(cfgPath, *job, *month); err != nil {
		log.Fatal().Err(err).Msg("MarketPulse exited")
	}
}

func run(cfgPath, job, month string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log.Info().Str("config", cfgPath).Strs("symbols", cfg.Stocks.Names).Msg("MarketPulse starting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server listening")
	}

	c, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	tables, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Stock pipeline
	naver := collector.NewNaverFetcher(cfg.Stocks.NaverBaseURL, cfg.Proxy, cfg.Stocks.RequestDelay)
	naver.Metrics = m
	krx := collector.NewKRXDirectory(cfg.Stocks.KRXBaseURL, cfg.Proxy, c)
	krx.Metrics = m

	col := collector.NewCollector(naver, krx, tables)
	col.Metrics = m
	col.Daily = cfg.Indicator.Daily
	col.Weekly = cfg.Indicator.Weekly
	col.Pages = cfg.Stocks.Pages
	col.LookbackWeeks = cfg.Stocks.LookbackWeeks
	col.ReportWeeks = cfg.Stocks.ReportWeeks

	// Apartment pipeline, only with an API key
	var vc scheduler.VolumeCollector
	if cfg.Apt.APIKey != "" {
		regions, err := region.Load(cfg.Apt.RegionFile)
		if err != nil {
			return fmt.Errorf("load regions: %w", err)
		}
		apt := collector.NewAptTradeFetcher(cfg.Apt.BaseURL, cfg.Apt.APIKey, cfg.Proxy, c)
		apt.RowsPerPage = cfg.Apt.RowsPerPage
		apt.Delay = cfg.Apt.RequestDelay
		apt.CacheTTL = cfg.Apt.CacheTTL
		apt.Metrics = m
		v := collector.NewVolumeCollector(apt, regions, cfg.Apt.RequestDelay)
		v.Metrics = m
		vc = v
	} else {
		log.Warn().Msg("APT_API_KEY not set, apartment volume job disabled")
	}

	var channels notifier.Multi
	if cfg.Discord.WebhookURL != "" {
		channels = append(channels, notifier.NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Discord.Username, cfg.Discord.AvatarURL, cfg.Proxy))
	}
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		channels = append(channels, tn)
	}
	var n notifier.Notifier = notifier.Noop{}
	if len(channels) > 0 {
		n = channels
	} else {
		log.Warn().Msg("no notification channel configured, reports are logged only")
	}

	var rec recorder.Recorder
	if cfg.Storage.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, col, vc, n, rec)
	sched.Metrics = m
	sched.Symbols = cfg.Stocks.Names
	sched.VolumeMonths = cfg.Apt.Months
	sched.SummaryDir = cfg.Storage.SummaryDir

	if job != "" {
		return runOnce(ctx, cfg, sched, job, month)
	}

	if err := sched.RegisterAll(cfg.Schedule.StockCron, cfg.Schedule.VolumeCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run on start enabled, executing stock task now")
		go sched.RunStocksNow(ctx)
	}

	log.Info().Msg("MarketPulse is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")
	return nil
}

func runOnce(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, job, month string) error {
	var months []string
	if month != "" {
		if _, err := time.Parse("200601", month); err != nil {
			return fmt.Errorf("invalid -month %q: want YYYYMM", month)
		}
		months = []string{month}
	}

	switch job {
	case "stocks":
		_, err := sched.RunStocksNow(ctx)
		return err
	case "volume":
		if err := cfg.ValidateVolume(); err != nil {
			return err
		}
		return sched.RunVolumeNow(ctx, months...)
	case "all":
		_, err := sched.RunStocksNow(ctx)
		if sched.Volume == nil {
			return err
		}
		return errors.Join(err, sched.RunVolumeNow(ctx, months...))
	default:
		return fmt.Errorf("unknown job %q: want stocks, volume or all", job)
	}
}

func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, func() { rc.Close() }, nil
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir, cfg.Apt.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache dir: %w", err)
		}
		return fc, func() {}, nil
	}
}

func openStore(cfg *config.Config) (store.TableStore, func(), error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		s, err := store.NewCSVStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}
