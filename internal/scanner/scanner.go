package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/waxaddict/wti-wave-dashboard/internal/calculator"
	"github.com/waxaddict/wti-wave-dashboard/internal/collector"
	"github.com/waxaddict/wti-wave-dashboard/internal/metrics"
	"github.com/waxaddict/wti-wave-dashboard/internal/model"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/strategy"
)

// Report is the outcome of scanning one timeframe.
type Report struct {
	ID           string
	Symbol       string
	Interval     string
	ScannedAt    time.Time
	BarCount     int
	CurrentPrice float64
	PeriodHigh   float64
	PeriodLow    float64
	Detection    *model.Detection
}

// Scanner runs collect -> detect -> record for a symbol.
type Scanner struct {
	Collector *collector.Collector
	Options   strategy.Options
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
}

// New creates a Scanner. rec and m may be nil.
func New(col *collector.Collector, opts strategy.Options, rec recorder.Recorder, m *metrics.Metrics) *Scanner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scanner{Collector: col, Options: opts, Recorder: rec, Metrics: m}
}

// Scan fetches the interval's bars and runs the wave detector over them. The
// returned error only covers data retrieval; detector outcomes live in the report.
func (s *Scanner) Scan(ctx context.Context, interval string) (*Report, error) {
	start := time.Now()
	series, err := s.Collector.Collect(ctx, interval)
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.ScanErrors.WithLabelValues(interval).Inc()
		}
		return nil, fmt.Errorf("scan %s: %w", interval, err)
	}

	opts := s.Options
	if opts.Trace == nil {
		opts.Trace = debugTrace(interval)
	}
	det := strategy.Detect(series.Bars, opts)

	rep := &Report{
		ID:           uuid.NewString(),
		Symbol:       series.Symbol,
		Interval:     interval,
		ScannedAt:    time.Now(),
		BarCount:     len(series.Bars),
		CurrentPrice: series.CurrentPrice(),
		Detection:    det,
	}
	if h, l, err := calculator.CalculateCloseRange(series.Bars); err == nil {
		rep.PeriodHigh, rep.PeriodLow = h, l
	}

	outcome := recorder.Outcome(det)
	if s.Metrics != nil {
		s.Metrics.ObserveScan(interval, outcome, len(det.Audit), rep.CurrentPrice, time.Since(start))
	}
	log.Info().
		Str("scan_id", rep.ID).
		Str("interval", interval).
		Int("bars", rep.BarCount).
		Int("candidates", len(det.Audit)).
		Str("outcome", outcome).
		Msg("wave scan finished")

	if err := s.Recorder.RecordScan(&recorder.ScanRecord{
		ID:           rep.ID,
		Symbol:       rep.Symbol,
		Interval:     interval,
		ScannedAt:    rep.ScannedAt,
		BarCount:     rep.BarCount,
		CurrentPrice: rep.CurrentPrice,
		Detection:    det,
	}); err != nil {
		log.Error().Err(err).Str("scan_id", rep.ID).Msg("record scan")
	}
	return rep, nil
}

func debugTrace(interval string) func(strategy.TraceEvent) {
	return func(ev strategy.TraceEvent) {
		e := log.Debug().
			Str("interval", interval).
			Str("stage", string(ev.Stage)).
			Int("low_idx", ev.Low.Index).
			Float64("low", ev.Low.Price).
			Int("high_idx", ev.High.Index).
			Float64("high", ev.High.Price)
		if ev.Stage != strategy.StageRangeTooSmall && ev.Stage != strategy.StageNoWave2 {
			e = e.Int("wave2_idx", ev.Wave2.Index).Float64("retrace", ev.Candidate.RetraceRatio)
		}
		if ev.Err != nil {
			e = e.Err(ev.Err)
		}
		e.Msg("wave candidate")
	}
}
