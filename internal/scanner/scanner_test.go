package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/waxaddict/wti-wave-dashboard/internal/collector"
	"github.com/waxaddict/wti-wave-dashboard/internal/metrics"
	"github.com/waxaddict/wti-wave-dashboard/internal/model"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/strategy"
)

type memRecorder struct {
	recorder.NoopRecorder
	records []*recorder.ScanRecord
}

func (m *memRecorder) RecordScan(rec *recorder.ScanRecord) error {
	m.records = append(m.records, rec)
	return nil
}

// waveBars mirrors the detector fixture: low 10 @10, high 25 @14, engulfing low 17.5 @19.
func waveBars() []model.OHLCV {
	t0 := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, 30)
	for i := range bars {
		bars[i] = model.OHLCV{Time: t0.Add(time.Duration(i) * 4 * time.Hour), Open: 18.5, High: 19, Low: 18, Close: 18.5, Volume: 100}
	}
	bars[10].Low = 10
	bars[14].High = 25
	bars[18].Open, bars[18].Close = 18.55, 18.45
	bars[19].Open, bars[19].Close, bars[19].Low, bars[19].Volume = 18.4, 18.6, 17.5, 500
	return bars
}

func TestScan_Confirmed(t *testing.T) {
	rec := &memRecorder{}
	m := metrics.New(nil)
	col := collector.NewCollector(&collector.MockFetcher{Bars: waveBars()}, "CL=F", "60d")
	s := New(col, strategy.DefaultOptions(), rec, m)

	rep, err := s.Scan(context.Background(), "4h")
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Detection.Confirmed() {
		t.Fatalf("expected confirmed wave, got %q", rep.Detection.Diagnostic)
	}
	if rep.ID == "" || rep.BarCount != 30 || rep.CurrentPrice != 18.5 {
		t.Errorf("unexpected report %+v", rep)
	}
	if rep.PeriodHigh != 18.6 || rep.PeriodLow != 18.45 {
		t.Errorf("unexpected close range %.2f/%.2f", rep.PeriodHigh, rep.PeriodLow)
	}
	if len(rec.records) != 1 || rec.records[0].ID != rep.ID {
		t.Fatalf("expected scan to be recorded once, got %d", len(rec.records))
	}
	if got := testutil.ToFloat64(m.ScansTotal.WithLabelValues("4h", recorder.OutcomeConfirmed)); got != 1 {
		t.Errorf("expected confirmed scan metric, got %.0f", got)
	}
}

func TestScan_FetchError(t *testing.T) {
	m := metrics.New(nil)
	col := collector.NewCollector(&collector.MockFetcher{Err: errors.New("offline")}, "CL=F", "60d")
	s := New(col, strategy.DefaultOptions(), nil, m)

	if _, err := s.Scan(context.Background(), "1d"); err == nil {
		t.Fatal("expected error")
	}
	if got := testutil.ToFloat64(m.ScanErrors.WithLabelValues("1d")); got != 1 {
		t.Errorf("expected scan error metric, got %.0f", got)
	}
}

func TestScan_DiagnosticIsNotAnError(t *testing.T) {
	col := collector.NewCollector(&collector.MockFetcher{Bars: waveBars()[:10]}, "CL=F", "60d")
	rep, err := New(col, strategy.DefaultOptions(), nil, nil).Scan(context.Background(), "2h")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Detection.Diagnostic != model.DiagInsufficientData {
		t.Errorf("expected insufficient data, got %q", rep.Detection.Diagnostic)
	}
}

func TestScan_CustomTraceKept(t *testing.T) {
	var events int
	opts := strategy.DefaultOptions()
	opts.Trace = func(strategy.TraceEvent) { events++ }
	col := collector.NewCollector(&collector.MockFetcher{Bars: waveBars()}, "CL=F", "60d")
	if _, err := New(col, opts, nil, nil).Scan(context.Background(), "4h"); err != nil {
		t.Fatal(err)
	}
	if events == 0 {
		t.Error("expected caller trace to receive events")
	}
}
