package recorder

import (
	"time"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// ScanRecord holds everything produced by one detector run.
type ScanRecord struct {
	ID           string
	Symbol       string
	Interval     string
	ScannedAt    time.Time
	BarCount     int
	CurrentPrice float64
	Detection    *model.Detection
}

// ScanSummary is one row of scan history.
type ScanSummary struct {
	ID           string
	ScannedAt    time.Time
	Symbol       string
	Interval     string
	Outcome      string // "confirmed" or the diagnostic text
	CurrentPrice float64
	Wave1Low     float64
	Wave1High    float64
	Wave2Low     float64
	Retrace      float64
	InEntryZone  bool
	Candidates   int
}

// Confirmed reports whether the scan found a wave.
func (s ScanSummary) Confirmed() bool { return s.Outcome == OutcomeConfirmed }

// OutcomeConfirmed is the outcome label of a scan that found a wave.
const OutcomeConfirmed = "confirmed"

// Outcome returns the outcome label for a detection.
func Outcome(det *model.Detection) string {
	if det.Confirmed() {
		return OutcomeConfirmed
	}
	return det.Diagnostic.String()
}

// Recorder persists scan history for later review.
type Recorder interface {
	RecordScan(rec *ScanRecord) error
	RecentScans(limit int) ([]ScanSummary, error)
	Close() error
}
