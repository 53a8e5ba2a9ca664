package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
	"github.com/waxaddict/wti-wave-dashboard/internal/notifier"
	"github.com/waxaddict/wti-wave-dashboard/internal/recorder"
	"github.com/waxaddict/wti-wave-dashboard/internal/scanner"
)

func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// TargetView is one projected extension level.
type TargetView struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// CandidateView is one audited wave candidate.
type CandidateView struct {
	Wave1Low      decimal.Decimal `json:"wave1_low"`
	Wave1High     decimal.Decimal `json:"wave1_high"`
	Wave2Low      decimal.Decimal `json:"wave2_low"`
	Retrace       decimal.Decimal `json:"retrace"`
	Pattern       string          `json:"pattern"`
	VolumeSurge   bool            `json:"volume_surge"`
	EMAConfluence bool            `json:"ema_confluence"`
	Confirmed     bool            `json:"confirmed"`
	RoundTrip     bool            `json:"round_trip,omitempty"`
}

// WaveView is the JSON and HTML view of a scan report, prices rounded to 2 dp.
type WaveView struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Interval     string          `json:"interval"`
	ScannedAt    time.Time       `json:"scanned_at"`
	Bars         int             `json:"bars"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Confirmed    bool            `json:"confirmed"`
	Error        string          `json:"error,omitempty"`

	Wave1Low    *decimal.Decimal `json:"wave1_low,omitempty"`
	Wave1High   *decimal.Decimal `json:"wave1_high,omitempty"`
	Wave2Low    *decimal.Decimal `json:"wave2_low,omitempty"`
	RetraceLow  *decimal.Decimal `json:"retrace_low,omitempty"`
	RetraceHigh *decimal.Decimal `json:"retrace_high,omitempty"`
	InEntryZone bool             `json:"in_entry_zone"`
	Pattern     string           `json:"pattern,omitempty"`
	Targets     []TargetView     `json:"targets,omitempty"`

	Candidates []CandidateView `json:"candidates"`
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// NewWaveView builds the view of rep.
func NewWaveView(rep *scanner.Report) WaveView {
	det := rep.Detection
	v := WaveView{
		ID:           rep.ID,
		Symbol:       rep.Symbol,
		Interval:     rep.Interval,
		ScannedAt:    rep.ScannedAt,
		Bars:         rep.BarCount,
		CurrentPrice: round2(rep.CurrentPrice),
		Confirmed:    det.Confirmed(),
		Candidates:   make([]CandidateView, 0, len(det.Audit)),
	}
	for _, c := range det.Audit {
		v.Candidates = append(v.Candidates, newCandidateView(c))
	}
	if !det.Confirmed() {
		v.Error = det.Diagnostic.String()
		return v
	}

	res := det.Result
	c := res.Candidate
	v.CurrentPrice = round2(res.CurrentPrice)
	v.Wave1Low = ptr(round2(c.Wave1Low.Price))
	v.Wave1High = ptr(round2(c.Wave1High.Price))
	v.Wave2Low = ptr(round2(c.Wave2Low.Price))
	v.RetraceLow = ptr(round2(res.Projection.RetraceZone.Lower))
	v.RetraceHigh = ptr(round2(res.Projection.RetraceZone.Upper))
	v.InEntryZone = res.InEntryZone
	v.Pattern = c.Pattern.String()
	for _, t := range res.Projection.Targets {
		v.Targets = append(v.Targets, TargetView{Label: notifier.Multiplier(t.Multiplier), Price: round2(t.Price)})
	}
	return v
}

func newCandidateView(c model.WaveCandidate) CandidateView {
	return CandidateView{
		Wave1Low:      round2(c.Wave1Low.Price),
		Wave1High:     round2(c.Wave1High.Price),
		Wave2Low:      round2(c.Wave2Low.Price),
		Retrace:       decimal.NewFromFloat(c.RetraceRatio).Round(3),
		Pattern:       c.Pattern.String(),
		VolumeSurge:   c.VolumeSurge,
		EMAConfluence: c.EMAConfluence,
		Confirmed:     c.Confirmed,
		RoundTrip:     c.RoundTrip,
	}
}

// HistoryView is one row of /api/history.
type HistoryView struct {
	ID           string          `json:"id"`
	ScannedAt    time.Time       `json:"scanned_at"`
	Symbol       string          `json:"symbol"`
	Interval     string          `json:"interval"`
	Outcome      string          `json:"outcome"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Wave1Low     decimal.Decimal `json:"wave1_low"`
	Wave1High    decimal.Decimal `json:"wave1_high"`
	Wave2Low     decimal.Decimal `json:"wave2_low"`
	InEntryZone  bool            `json:"in_entry_zone"`
	Candidates   int             `json:"candidates"`
}

func newHistoryView(s recorder.ScanSummary) HistoryView {
	return HistoryView{
		ID:           s.ID,
		ScannedAt:    s.ScannedAt,
		Symbol:       s.Symbol,
		Interval:     s.Interval,
		Outcome:      s.Outcome,
		CurrentPrice: round2(s.CurrentPrice),
		Wave1Low:     round2(s.Wave1Low),
		Wave1High:    round2(s.Wave1High),
		Wave2Low:     round2(s.Wave2Low),
		InEntryZone:  s.InEntryZone,
		Candidates:   s.Candidates,
	}
}
