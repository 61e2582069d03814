package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketPulse/internal/calculator"
)

// Config holds all application configuration.
type Config struct {
	Discord struct {
		WebhookURL string `yaml:"webhook_url" validate:"omitempty,url"`
		Username   string `yaml:"username" default:"주식 알리미"`
		AvatarURL  string `yaml:"avatar_url"`
	} `yaml:"discord"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Stocks struct {
		Names         []string      `yaml:"names"`
		Pages         int           `yaml:"pages" default:"200" validate:"min=1"`
		LookbackWeeks int           `yaml:"lookback_weeks" default:"30" validate:"min=1"`
		ReportWeeks   int           `yaml:"report_weeks" default:"4" validate:"min=2"`
		RequestDelay  time.Duration `yaml:"request_delay" default:"200ms"`
		NaverBaseURL  string        `yaml:"naver_base_url" default:"https://finance.naver.com/item/sise_day.naver" validate:"url"`
		KRXBaseURL    string        `yaml:"krx_base_url" default:"http://data.krx.co.kr/comm/bldAttendant/getJsonData.cmd" validate:"url"`
	} `yaml:"stocks"`
	Indicator struct {
		Daily  calculator.Params `yaml:"daily"`
		Weekly calculator.Params `yaml:"weekly"`
	} `yaml:"indicator"`
	Apt struct {
		APIKey       string        `yaml:"api_key"`
		BaseURL      string        `yaml:"base_url" default:"https://apis.data.go.kr/1613000/RTMSDataSvcAptTradeDev/getRTMSDataSvcAptTradeDev" validate:"url"`
		RowsPerPage  int           `yaml:"rows_per_page" default:"1000" validate:"min=1,max=1000"`
		RequestDelay time.Duration `yaml:"request_delay" default:"500ms"`
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"24h"`
		RegionFile   string        `yaml:"region_file"`
		Months       int           `yaml:"months" default:"1" validate:"min=1"`
	} `yaml:"apt"`
	Storage struct {
		Backend    string `yaml:"backend" default:"csv" validate:"oneof=csv sqlite"`
		DataDir    string `yaml:"data_dir" default:"stock_data"`
		SQLitePath string `yaml:"sqlite_path" default:"data/market_pulse.db"`
		SummaryDir string `yaml:"summary_dir" default:"apt_data"`
	} `yaml:"storage"`
	Cache struct {
		Backend string `yaml:"backend" default:"file" validate:"oneof=file redis"`
		Dir     string `yaml:"dir" default:"cache"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Schedule struct {
		StockCron  string `yaml:"stock_cron" default:"0 0 18 * * 1-5"`
		VolumeCron string `yaml:"volume_cron" default:"0 0 9 2 * *"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

var validate = validator.New()

// Load reads config from a YAML file and a .env file in the working
// directory, then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	cfg.Indicator.Daily = calculator.DailyParams()
	cfg.Indicator.Weekly = calculator.WeeklyParams()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Stocks.Names) == 0 {
		cfg.Stocks.Names = []string{"티웨이홀딩스"}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("STOCK_NAME"); v != "" {
		cfg.Stocks.Names = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("DATA_DAYS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DATA_DAYS: %w", err)
		}
		cfg.Stocks.Pages = n
	}
	if v := os.Getenv("APT_API_KEY"); v != "" {
		cfg.Apt.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Backend = "redis"
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("CRON_STOCK"); v != "" {
		cfg.Schedule.StockCron = v
	}
	if v := os.Getenv("CRON_VOLUME"); v != "" {
		cfg.Schedule.VolumeCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_ON_START: %w", err)
		}
		cfg.Schedule.RunOnStart = b
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// ValidateVolume checks the settings the apartment job needs.
func (c *Config) ValidateVolume() error {
	if c.Apt.APIKey == "" {
		return fmt.Errorf("apt.api_key is required")
	}
	return nil
}
