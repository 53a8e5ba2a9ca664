package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

func confirmedDetection() *model.Detection {
	cand := model.WaveCandidate{
		Wave1Low:      model.SwingPoint{Index: 10, Price: 10, Kind: model.SwingLow},
		Wave1High:     model.SwingPoint{Index: 14, Price: 25, Kind: model.SwingHigh},
		Wave2Low:      model.SwingPoint{Index: 19, Price: 17.5, Kind: model.SwingLow},
		RetraceRatio:  0.5,
		Pattern:       model.PatternBullishEngulfing,
		VolumeSurge:   true,
		EMAConfluence: true,
		Confirmed:     true,
	}
	return &model.Detection{
		Result: &model.WaveResult{
			Candidate: cand,
			Projection: model.FibProjection{
				Low: 10, High: 25, Range: 15,
				RetraceZone: model.FibZone{Lower: 15.73, Upper: 19.27},
				Targets: []model.FibTarget{
					{Multiplier: 1.618, Price: 34.27},
					{Multiplier: 2.0, Price: 40},
					{Multiplier: 2.618, Price: 49.27},
				},
			},
			CurrentPrice: 18.5,
			InEntryZone:  true,
		},
		Audit: []model.WaveCandidate{
			{Wave1Low: cand.Wave1Low, Wave1High: cand.Wave1High, Wave2Low: cand.Wave2Low, RetraceRatio: 1.2, RoundTrip: true},
			cand,
		},
	}
}

func TestSQLiteRecorder_RecordAndList(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "waves.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	now := time.Now()
	if err := r.RecordScan(&ScanRecord{
		ID: "scan-1", Symbol: "CL=F", Interval: "4h", ScannedAt: now, BarCount: 30, CurrentPrice: 18.5,
		Detection: &model.Detection{Diagnostic: model.DiagNoConfirmedStructure},
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordScan(&ScanRecord{
		ID: "scan-2", Symbol: "CL=F", Interval: "4h", ScannedAt: now, BarCount: 30, CurrentPrice: 18.5,
		Detection: confirmedDetection(),
	}); err != nil {
		t.Fatal(err)
	}

	scans, err := r.RecentScans(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 2 {
		t.Fatalf("expected 2 scans, got %d", len(scans))
	}
	latest := scans[0]
	if latest.ID != "scan-2" || !latest.Confirmed() {
		t.Fatalf("expected confirmed scan-2 first, got %+v", latest)
	}
	if latest.Wave1Low != 10 || latest.Wave1High != 25 || latest.Wave2Low != 17.5 || !latest.InEntryZone {
		t.Errorf("unexpected wave fields %+v", latest)
	}
	if latest.Candidates != 2 {
		t.Errorf("expected 2 audited candidates, got %d", latest.Candidates)
	}
	if scans[1].Outcome != "no valid structure found" || scans[1].Confirmed() {
		t.Errorf("unexpected outcome for scan-1: %+v", scans[1])
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM wave_candidates WHERE scan_id = ?`, "scan-2").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 candidate rows, got %d", n)
	}
}

func TestSQLiteRecorder_DuplicateIDRollsBack(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "waves.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	rec := &ScanRecord{ID: "dup", Symbol: "CL=F", Interval: "1d", ScannedAt: time.Now(), Detection: confirmedDetection()}
	if err := r.RecordScan(rec); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordScan(rec); err == nil {
		t.Fatal("expected primary key violation")
	}
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM wave_candidates`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("failed insert must not leave candidate rows, got %d", n)
	}
}

func TestOutcome(t *testing.T) {
	if got := Outcome(confirmedDetection()); got != OutcomeConfirmed {
		t.Errorf("expected confirmed, got %q", got)
	}
	if got := Outcome(&model.Detection{Diagnostic: model.DiagInsufficientData}); got != "insufficient data" {
		t.Errorf("unexpected outcome %q", got)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordScan(&ScanRecord{Detection: confirmedDetection()}); err != nil {
		t.Fatal(err)
	}
	scans, err := r.RecentScans(5)
	if err != nil || len(scans) != 0 {
		t.Errorf("noop recorder should return nothing, got %v %v", scans, err)
	}
}
