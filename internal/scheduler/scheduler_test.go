package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/waxaddict/wti-wave-dashboard/internal/metrics"
	"github.com/waxaddict/wti-wave-dashboard/internal/model"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/scanner"
)

type fakeScanner struct {
	reports map[string]*scanner.Report
	err     error
	calls   []string
}

func (f *fakeScanner) Scan(_ context.Context, interval string) (*scanner.Report, error) {
	f.calls = append(f.calls, interval)
	if f.err != nil {
		return nil, f.err
	}
	rep, ok := f.reports[interval]
	if !ok {
		return &scanner.Report{Interval: interval, Detection: &model.Detection{Diagnostic: model.DiagInsufficientData}}, nil
	}
	return rep, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	return f.SendWithRetry(ctx, text, 0)
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

type historyRecorder struct {
	recorder.NoopRecorder
	scans []recorder.ScanSummary
}

func (h *historyRecorder) RecentScans(limit int) ([]recorder.ScanSummary, error) {
	return h.scans, nil
}

func waveReport(interval string, w2 float64) *scanner.Report {
	return &scanner.Report{
		Symbol:    "CL=F",
		Interval:  interval,
		ScannedAt: time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
		Detection: &model.Detection{Result: &model.WaveResult{
			Candidate: model.WaveCandidate{
				Wave1Low:  model.SwingPoint{Price: 10},
				Wave1High: model.SwingPoint{Price: 25},
				Wave2Low:  model.SwingPoint{Price: w2},
				Confirmed: true,
			},
			Projection: model.FibProjection{Low: 10, High: 25, Range: 15},
		}},
	}
}

func TestScanAndAlert_Dedupes(t *testing.T) {
	sc := &fakeScanner{reports: map[string]*scanner.Report{"4h": waveReport("4h", 17.5)}}
	n := &fakeNotifier{}
	m := metrics.New(nil)
	s := NewScheduler(context.Background(), sc, n, nil, m)

	for i := 0; i < 2; i++ {
		if _, err := s.ScanAndAlert(context.Background(), "4h"); err != nil {
			t.Fatal(err)
		}
	}
	if len(n.sent) != 1 {
		t.Fatalf("expected one alert for the same wave, got %d", len(n.sent))
	}

	sc.reports["4h"] = waveReport("4h", 16)
	if _, err := s.ScanAndAlert(context.Background(), "4h"); err != nil {
		t.Fatal(err)
	}
	if len(n.sent) != 2 {
		t.Errorf("expected a new alert for a different wave, got %d", len(n.sent))
	}
	if got := testutil.ToFloat64(m.AlertsSent); got != 2 {
		t.Errorf("expected 2 alerts counted, got %.0f", got)
	}

	// Same wave on another timeframe is alerted separately.
	sc.reports["1d"] = waveReport("1d", 16)
	if _, err := s.ScanAndAlert(context.Background(), "1d"); err != nil {
		t.Fatal(err)
	}
	if len(n.sent) != 3 {
		t.Errorf("expected per-timeframe alerts, got %d", len(n.sent))
	}
}

func TestScanAndAlert_NoAlertWithoutWave(t *testing.T) {
	n := &fakeNotifier{}
	s := NewScheduler(context.Background(), &fakeScanner{}, n, nil, nil)
	rep, err := s.ScanAndAlert(context.Background(), "2h")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Detection.Confirmed() || len(n.sent) != 0 {
		t.Errorf("expected no alert, sent %d", len(n.sent))
	}
}

func TestScanAndAlert_RetriesAfterFailedSend(t *testing.T) {
	sc := &fakeScanner{reports: map[string]*scanner.Report{"4h": waveReport("4h", 17.5)}}
	n := &fakeNotifier{err: errors.New("down")}
	s := NewScheduler(context.Background(), sc, n, nil, nil)

	if _, err := s.ScanAndAlert(context.Background(), "4h"); err != nil {
		t.Fatal(err)
	}
	n.err = nil
	if _, err := s.ScanAndAlert(context.Background(), "4h"); err != nil {
		t.Fatal(err)
	}
	if len(n.sent) != 1 {
		t.Errorf("expected the wave to be alerted once delivery recovers, got %d", len(n.sent))
	}
}

func TestScanAndAlert_ScanError(t *testing.T) {
	s := NewScheduler(context.Background(), &fakeScanner{err: errors.New("offline")}, nil, nil, nil)
	if _, err := s.ScanAndAlert(context.Background(), "4h"); err == nil {
		t.Error("expected scan error")
	}
}

func TestRegisterAll(t *testing.T) {
	sc := &fakeScanner{}
	s := NewScheduler(context.Background(), sc, nil, nil, nil)
	if err := s.RegisterAll(map[string]string{"4h": "0 5 */4 * * *", "1d": "0 30 22 * * *"}); err != nil {
		t.Fatal(err)
	}
	if len(s.Cron.Entries()) != 2 {
		t.Errorf("expected 2 cron entries, got %d", len(s.Cron.Entries()))
	}
	s.RunAllNow()
	if strings.Join(sc.calls, ",") != "1d,4h" {
		t.Errorf("unexpected scan order %v", sc.calls)
	}

	bad := NewScheduler(context.Background(), sc, nil, nil, nil)
	if err := bad.RegisterAll(map[string]string{"4h": "not a cron"}); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestHandleCommand(t *testing.T) {
	sc := &fakeScanner{reports: map[string]*scanner.Report{"1d": waveReport("1d", 17.5)}}
	rec := &historyRecorder{scans: []recorder.ScanSummary{{Interval: "4h", Outcome: "insufficient data"}}}
	s := NewScheduler(context.Background(), sc, nil, rec, nil)
	s.Timeframes = []string{"2h", "4h", "1d"}

	if reply := s.HandleCommand(context.Background(), "/wave 1D"); !strings.Contains(reply, "Wave 1 Low") {
		t.Errorf("expected wave report, got %q", reply)
	}
	if reply := s.HandleCommand(context.Background(), "/wave"); !strings.Contains(reply, "insufficient data") || sc.calls[len(sc.calls)-1] != "2h" {
		t.Errorf("expected default timeframe scan, got %q (calls %v)", reply, sc.calls)
	}
	if reply := s.HandleCommand(context.Background(), "/history@wavebot"); !strings.Contains(reply, "4H: insufficient data") {
		t.Errorf("unexpected history reply %q", reply)
	}
	if reply := s.HandleCommand(context.Background(), "hello"); !strings.Contains(reply, "/wave <2h|4h|1d>") {
		t.Errorf("unexpected help %q", reply)
	}

	sc.err = errors.New("offline")
	if reply := s.HandleCommand(context.Background(), "/wave 4h"); !strings.Contains(reply, "offline") {
		t.Errorf("expected scan error in reply, got %q", reply)
	}
}
