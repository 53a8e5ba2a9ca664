package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/waxaddict/wti-wave-dashboard/internal/metrics"
	"github.com/waxaddict/wti-wave-dashboard/internal/notifier"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/scanner"
)

const historyLimit = 10

// WaveScanner runs one wave scan for a timeframe.
type WaveScanner interface {
	Scan(ctx context.Context, interval string) (*scanner.Report, error)
}

// Scheduler runs a wave scan per timeframe on its cron schedule and alerts on new waves.
type Scheduler struct {
	Cron       *cron.Cron
	Scanner    WaveScanner
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Timeframes []string
	Ctx        context.Context

	mu        sync.Mutex
	lastAlert map[string]string // interval -> wave key
}

// NewScheduler creates a new Scheduler. n, rec and m may be nil.
func NewScheduler(ctx context.Context, sc WaveScanner, n notifier.Notifier, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Scanner:   sc,
		Notifier:  n,
		Recorder:  rec,
		Metrics:   m,
		Ctx:       ctx,
		lastAlert: make(map[string]string),
	}
}

// RegisterAll registers one scan task per timeframe. crons maps timeframe to a
// six-field cron expression.
func (s *Scheduler) RegisterAll(crons map[string]string) error {
	tfs := make([]string, 0, len(crons))
	for tf := range crons {
		tfs = append(tfs, tf)
	}
	sort.Strings(tfs)
	for _, tf := range tfs {
		interval := tf
		if _, err := s.Cron.AddFunc(crons[tf], func() { s.scanTask(interval) }); err != nil {
			return fmt.Errorf("register %s scan: %w", tf, err)
		}
	}
	s.Timeframes = tfs
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Strs("timeframes", s.Timeframes).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running scans.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunAllNow scans every registered timeframe immediately (RUN_ON_START).
func (s *Scheduler) RunAllNow() {
	for _, tf := range s.Timeframes {
		s.scanTask(tf)
	}
}

func (s *Scheduler) scanTask(interval string) {
	if _, err := s.ScanAndAlert(s.Ctx, interval); err != nil {
		log.Error().Err(err).Str("interval", interval).Msg("scheduled scan failed")
	}
}

// ScanAndAlert scans interval and sends an alert when a confirmed wave differs
// from the last one alerted for that interval.
func (s *Scheduler) ScanAndAlert(ctx context.Context, interval string) (*scanner.Report, error) {
	rep, err := s.Scanner.Scan(ctx, interval)
	if err != nil {
		return nil, err
	}
	if !rep.Detection.Confirmed() {
		return rep, nil
	}

	key := waveKey(rep)
	s.mu.Lock()
	if s.lastAlert[interval] == key {
		s.mu.Unlock()
		log.Debug().Str("interval", interval).Str("wave", key).Msg("wave already alerted")
		return rep, nil
	}
	s.lastAlert[interval] = key
	s.mu.Unlock()

	if err := s.Notifier.SendWithRetry(ctx, notifier.FormatReport(rep), 3); err != nil {
		log.Error().Err(err).Str("interval", interval).Msg("send wave alert")
		s.mu.Lock()
		if s.lastAlert[interval] == key {
			delete(s.lastAlert, interval)
		}
		s.mu.Unlock()
		return rep, nil
	}
	if s.Metrics != nil {
		s.Metrics.AlertsSent.Inc()
	}
	log.Info().Str("interval", interval).Str("wave", key).Msg("wave alert sent")
	return rep, nil
}

// waveKey identifies a wave by its three swing prices so a rolling window
// that shifts bar indices still maps to the same wave.
func waveKey(rep *scanner.Report) string {
	c := rep.Detection.Result.Candidate
	return fmt.Sprintf("%.4f/%.4f/%.4f", c.Wave1Low.Price, c.Wave1High.Price, c.Wave2Low.Price)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Timeframes)
	}
	// Strip the "@botname" suffix Telegram adds in group chats.
	cmd, _, _ := strings.Cut(fields[0], "@")

	switch cmd {
	case "/wave":
		interval := "4h"
		if len(s.Timeframes) > 0 {
			interval = s.Timeframes[0]
		}
		if len(fields) > 1 {
			interval = strings.ToLower(fields[1])
		}
		rep, err := s.Scanner.Scan(ctx, interval)
		if err != nil {
			return fmt.Sprintf("❌ scan %s failed: %v", interval, err)
		}
		return notifier.FormatReport(rep)
	case "/history":
		scans, err := s.Recorder.RecentScans(historyLimit)
		if err != nil {
			return fmt.Sprintf("❌ load history: %v", err)
		}
		return notifier.FormatHistory(scans)
	default:
		return notifier.FormatHelp(s.Timeframes)
	}
}
