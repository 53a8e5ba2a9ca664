package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/waxaddict/wti-wave-dashboard/internal/strategy"
)

// SupportedTimeframes lists the intervals the data sources can serve.
var SupportedTimeframes = []string{"1h", "2h", "4h", "1d", "1wk"}

// defaultCron holds a six-field (with seconds) cron expression per timeframe,
// firing shortly after each bar closes.
var defaultCron = map[string]string{
	"1h":  "0 5 * * * 1-5",
	"2h":  "0 5 */2 * * 1-5",
	"4h":  "0 5 */4 * * 1-5",
	"1d":  "0 30 22 * * 1-5",
	"1wk": "0 0 9 * * 6",
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider          string `yaml:"provider"` // yahoo, rest or mock; empty picks rest when base_url is set
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		Symbol            string `yaml:"symbol"`
		Period            string `yaml:"period"`
		RequestsPerSecond int    `yaml:"requests_per_second"`
	} `yaml:"data_source"`
	Detector struct {
		MinBars         int     `yaml:"min_bars"`
		Separation      *int    `yaml:"separation"`
		MinRange        float64 `yaml:"min_range"`
		RetraceMin      float64 `yaml:"retrace_min"`
		RetraceMax      float64 `yaml:"retrace_max"`
		EMASpan         int     `yaml:"ema_span"`
		VolumeWindow    int     `yaml:"volume_window"`
		EMATolerance    float64 `yaml:"ema_tolerance"`
		LowOrder        string  `yaml:"low_order"`
		AuditRoundTrips bool    `yaml:"audit_round_trips"`
	} `yaml:"detector"`
	Schedule struct {
		Timeframes []string          `yaml:"timeframes"`
		Cron       map[string]string `yaml:"cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Dashboard struct {
		Addr         string   `yaml:"addr"`
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"dashboard"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("WAVE_SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("WAVE_TIMEFRAMES"); v != "" {
		cfg.Schedule.Timeframes = splitList(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Dashboard.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MIN_RANGE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detector.MinRange = f
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "CL=F"
	}
	if c.DataSource.Period == "" {
		c.DataSource.Period = "60d"
	}
	if c.DataSource.Provider == "" {
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = "rest"
		} else {
			c.DataSource.Provider = "yahoo"
		}
	}
	if c.DataSource.RequestsPerSecond == 0 {
		c.DataSource.RequestsPerSecond = 2
	}

	def := strategy.DefaultOptions()
	if c.Detector.MinBars == 0 {
		c.Detector.MinBars = def.MinBars
	}
	if c.Detector.Separation == nil {
		sep := def.Separation
		c.Detector.Separation = &sep
	}
	if c.Detector.MinRange == 0 {
		c.Detector.MinRange = def.MinRange
	}
	if c.Detector.RetraceMin == 0 {
		c.Detector.RetraceMin = def.RetraceMin
	}
	if c.Detector.RetraceMax == 0 {
		c.Detector.RetraceMax = def.RetraceMax
	}
	if c.Detector.EMASpan == 0 {
		c.Detector.EMASpan = def.EMASpan
	}
	if c.Detector.VolumeWindow == 0 {
		c.Detector.VolumeWindow = def.VolumeWindow
	}
	if c.Detector.EMATolerance == 0 {
		c.Detector.EMATolerance = def.EMATolerance
	}

	if len(c.Schedule.Timeframes) == 0 {
		c.Schedule.Timeframes = []string{"2h", "4h", "1d"}
	}
	if c.Schedule.Cron == nil {
		c.Schedule.Cron = map[string]string{}
	}
	for _, tf := range c.Schedule.Timeframes {
		if c.Schedule.Cron[tf] == "" {
			c.Schedule.Cron[tf] = defaultCron[tf]
		}
	}

	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/wave_scans.db"
	}
	if c.Dashboard.Addr == "" {
		c.Dashboard.Addr = ":8080"
	}
	if len(c.Dashboard.AllowOrigins) == 0 {
		c.Dashboard.AllowOrigins = []string{"*"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// DetectorOptions converts the detector section into strategy options.
func (c *Config) DetectorOptions() (strategy.Options, error) {
	order, err := strategy.ParseLowOrder(c.Detector.LowOrder)
	if err != nil {
		return strategy.Options{}, err
	}
	opts := strategy.Options{
		MinBars:         c.Detector.MinBars,
		MinRange:        c.Detector.MinRange,
		RetraceMin:      c.Detector.RetraceMin,
		RetraceMax:      c.Detector.RetraceMax,
		EMASpan:         c.Detector.EMASpan,
		VolumeWindow:    c.Detector.VolumeWindow,
		EMATolerance:    c.Detector.EMATolerance,
		LowOrder:        order,
		AuditRoundTrips: c.Detector.AuditRoundTrips,
	}
	if c.Detector.Separation != nil {
		opts.Separation = *c.Detector.Separation
	}
	return opts, nil
}

// TelegramEnabled reports whether alerts and commands can be delivered.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	if c.DataSource.RequestsPerSecond < 0 {
		return fmt.Errorf("data_source.requests_per_second must not be negative")
	}
	opts, err := c.DetectorOptions()
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	for _, tf := range c.Schedule.Timeframes {
		if !IsSupportedTimeframe(tf) {
			return fmt.Errorf("schedule: unsupported timeframe %q", tf)
		}
		if c.Schedule.Cron[tf] == "" {
			return fmt.Errorf("schedule: no cron expression for %s", tf)
		}
	}
	return nil
}

// IsSupportedTimeframe reports whether tf is one of SupportedTimeframes.
func IsSupportedTimeframe(tf string) bool {
	for _, s := range SupportedTimeframes {
		if s == tf {
			return true
		}
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
