package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/waxaddict/wti-wave-dashboard/internal/metrics"
	"github.com/waxaddict/wti-wave-dashboard/internal/model"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/scanner"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubScanner struct {
	rep *scanner.Report
	err error
}

func (s *stubScanner) Scan(_ context.Context, interval string) (*scanner.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	rep := *s.rep
	rep.Interval = interval
	return &rep, nil
}

type stubRecorder struct {
	recorder.NoopRecorder
	gotLimit int
}

func (s *stubRecorder) RecentScans(limit int) ([]recorder.ScanSummary, error) {
	s.gotLimit = limit
	return []recorder.ScanSummary{{
		ID: "abc", Interval: "4h", Outcome: recorder.OutcomeConfirmed,
		CurrentPrice: 18.499, Wave1Low: 10, Wave1High: 25, Wave2Low: 17.5,
	}}, nil
}

func confirmed() *scanner.Report {
	return &scanner.Report{
		ID:           "scan-1",
		Symbol:       "CL=F",
		ScannedAt:    time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
		BarCount:     30,
		CurrentPrice: 18.5,
		Detection: &model.Detection{
			Result: &model.WaveResult{
				Candidate: model.WaveCandidate{
					Wave1Low:     model.SwingPoint{Index: 10, Price: 10},
					Wave1High:    model.SwingPoint{Index: 14, Price: 25},
					Wave2Low:     model.SwingPoint{Index: 19, Price: 17.5},
					RetraceRatio: 0.5,
					Pattern:      model.PatternHammer,
					Confirmed:    true,
				},
				Projection: model.FibProjection{
					Low: 10, High: 25, Range: 15,
					RetraceZone: model.FibZone{Lower: 15.729999, Upper: 19.27},
					Targets: []model.FibTarget{
						{Multiplier: 1.618, Price: 34.27},
						{Multiplier: 2.0, Price: 40},
						{Multiplier: 2.618, Price: 49.27},
					},
				},
				CurrentPrice: 18.5,
				InEntryZone:  true,
			},
			Audit: []model.WaveCandidate{{RetraceRatio: 0.5, Confirmed: true, Pattern: model.PatternHammer}},
		},
	}
}

func newTestServer(sc WaveScanner, rec recorder.Recorder) *Server {
	return NewServer(sc, rec, metrics.New(nil), []string{"2h", "4h", "1d"}, []string{"*"})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGetWave_Confirmed(t *testing.T) {
	w := get(t, newTestServer(&stubScanner{rep: confirmed()}, nil), "/api/wave?interval=1d")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["interval"] != "1d" || body["confirmed"] != true || body["in_entry_zone"] != true {
		t.Errorf("unexpected body %v", body)
	}
	if body["retrace_low"] != "15.73" || body["wave1_high"] != "25" {
		t.Errorf("expected 2-dp prices, got retrace_low=%v wave1_high=%v", body["retrace_low"], body["wave1_high"])
	}
	targets, _ := body["targets"].([]any)
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %v", body["targets"])
	}
	first := targets[0].(map[string]any)
	if first["label"] != "1.618x" || first["price"] != "34.27" {
		t.Errorf("unexpected first target %v", first)
	}
	if cands, _ := body["candidates"].([]any); len(cands) != 1 {
		t.Errorf("expected audit candidates in response, got %v", body["candidates"])
	}
}

func TestGetWave_Diagnostic(t *testing.T) {
	rep := confirmed()
	rep.Detection = &model.Detection{Diagnostic: model.DiagInsufficientSwingPoints}
	w := get(t, newTestServer(&stubScanner{rep: rep}, nil), "/api/wave")
	if w.Code != http.StatusOK {
		t.Fatalf("a diagnostic is a normal outcome, got %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["confirmed"] != false || body["error"] != "insufficient swing points" || body["interval"] != "4h" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["wave1_low"]; ok {
		t.Error("wave levels must be omitted without a confirmed wave")
	}
}

func TestGetWave_Errors(t *testing.T) {
	s := newTestServer(&stubScanner{err: errors.New("yahoo down")}, nil)
	if w := get(t, s, "/api/wave?interval=3h"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported interval, got %d", w.Code)
	}
	if w := get(t, s, "/api/wave?interval=2h"); w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "yahoo down") {
		t.Errorf("expected 502 with cause, got %d %s", w.Code, w.Body)
	}
}

func TestGetHistory(t *testing.T) {
	rec := &stubRecorder{}
	s := newTestServer(&stubScanner{rep: confirmed()}, rec)
	w := get(t, s, "/api/history?limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if rec.gotLimit != 5 {
		t.Errorf("expected limit 5, got %d", rec.gotLimit)
	}
	if !strings.Contains(w.Body.String(), `"current_price":"18.5"`) {
		t.Errorf("expected rounded price, got %s", w.Body)
	}
	if w := get(t, s, "/api/history?limit=0"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestIndex(t *testing.T) {
	w := get(t, newTestServer(&stubScanner{rep: confirmed()}, nil), "/?interval=2h")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	html := w.Body.String()
	for _, want := range []string{
		"2H Chart Analysis",
		"Wave 1 Low: <b>10</b>",
		`<option value="2h" selected>`,
		"15.73 &rarr; 19.27",
		"2.0x",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(&stubScanner{rep: confirmed()}, nil)
	if w := get(t, s, "/healthz"); w.Code != http.StatusOK {
		t.Errorf("healthz: %d", w.Code)
	}
	if w := get(t, s, "/metrics"); w.Code != http.StatusOK {
		t.Errorf("metrics: %d", w.Code)
	}
}

func TestCORSConfig(t *testing.T) {
	if cfg := corsConfig([]string{"*"}); !cfg.AllowAllOrigins || len(cfg.AllowOrigins) != 0 {
		t.Errorf("wildcard should allow all origins: %+v", cfg)
	}
	if cfg := corsConfig([]string{"http://localhost:3000"}); cfg.AllowAllOrigins || cfg.AllowOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
