package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waxaddict/wti-wave-dashboard/internal/collector"
	"github.com/waxaddict/wti-wave-dashboard/internal/config"
	"github.com/waxaddict/wti-wave-dashboard/internal/dashboard"
	"github.com/waxaddict/wti-wave-dashboard/internal/metrics"
	"github.com/waxaddict/wti-wave-dashboard/internal/notifier"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/scanner"
	"github.com/waxaddict/wti-wave-dashboard/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogging(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("symbol", cfg.DataSource.Symbol).Strs("timeframes", cfg.Schedule.Timeframes).Msg("wavebot starting")

	opts, err := cfg.DetectorOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("detector options")
	}

	fetcher := newFetcher(cfg)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Period)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	m := metrics.New(nil)
	sc := scanner.New(col, opts, rec, m)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tn *notifier.TelegramNotifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	} else {
		log.Warn().Msg("telegram not configured, alerts disabled")
	}

	crons := make(map[string]string, len(cfg.Schedule.Timeframes))
	for _, tf := range cfg.Schedule.Timeframes {
		crons[tf] = cfg.Schedule.Cron[tf]
	}
	sched := scheduler.NewScheduler(ctx, sc, n, rec, m)
	if err := sched.RegisterAll(crons); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	srv := dashboard.NewServer(sc, rec, m, cfg.Schedule.Timeframes, cfg.Dashboard.AllowOrigins)
	go func() {
		if err := srv.Run(cfg.Dashboard.Addr); err != nil {
			log.Error().Err(err).Msg("dashboard stopped")
			cancel()
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning all timeframes now")
		go sched.RunAllNow()
	}

	log.Info().Msg("wavebot is running, press Ctrl+C to stop")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown")
	}
	log.Info().Msg("wavebot stopped")
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "mock":
		return &collector.MockFetcher{Price: 70}
	case "rest":
		f := collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
		f.HTTP = collector.NewHTTPClient(cfg.Proxy, cfg.DataSource.RequestsPerSecond)
		return f
	default:
		f := collector.NewYahooFetcher(cfg.Proxy)
		f.HTTP = collector.NewHTTPClient(cfg.Proxy, cfg.DataSource.RequestsPerSecond)
		return f
	}
}

// setupLogging configures the global logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}
