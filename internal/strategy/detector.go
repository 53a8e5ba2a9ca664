package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/waxaddict/wti-wave-dashboard/internal/calculator"
	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// LowOrder selects the order in which wave-1 low candidates are tried.
type LowOrder int

const (
	// OrderByPrice tries the deepest low first.
	OrderByPrice LowOrder = iota
	// OrderChronological tries lows in bar order.
	OrderChronological
)

// ParseLowOrder maps a config value to a LowOrder.
func ParseLowOrder(s string) (LowOrder, error) {
	switch s {
	case "", "price":
		return OrderByPrice, nil
	case "chronological", "time":
		return OrderChronological, nil
	default:
		return OrderByPrice, fmt.Errorf("unknown low order %q", s)
	}
}

// TraceStage names the point of the scan a TraceEvent was emitted from.
type TraceStage string

const (
	StageRangeTooSmall TraceStage = "range_too_small"
	StageNoWave2       TraceStage = "no_wave2"
	StageRoundTrip     TraceStage = "round_trip"
	StageFault         TraceStage = "fault"
	StageEvaluated     TraceStage = "evaluated"
	StageConfirmed     TraceStage = "confirmed"
)

// TraceEvent describes one step of the scan. Wave2 and Candidate are zero
// when the stage did not get that far.
type TraceEvent struct {
	Stage     TraceStage
	Low       model.SwingPoint
	High      model.SwingPoint
	Wave2     model.SwingPoint
	Candidate model.WaveCandidate
	Err       error
}

// Options parameterizes the detector.
type Options struct {
	MinBars      int
	Separation   int
	MinRange     float64
	RetraceMin   float64
	RetraceMax   float64
	EMASpan      int
	VolumeWindow int
	EMATolerance float64
	LowOrder     LowOrder
	// AuditRoundTrips keeps triples with retrace > 1.0 in the audit log, flagged RoundTrip.
	AuditRoundTrips bool
	// Trace, when set, receives every scan step.
	Trace func(TraceEvent)
}

// DefaultOptions returns the standard detector parameters.
func DefaultOptions() Options {
	return Options{
		MinBars:      20,
		Separation:   3,
		MinRange:     2.0,
		RetraceMin:   calculator.RetraceShallow,
		RetraceMax:   0.786,
		EMASpan:      21,
		VolumeWindow: 10,
		EMATolerance: 0.01,
		LowOrder:     OrderByPrice,
	}
}

// Validate checks that the options describe a usable scan.
func (o Options) Validate() error {
	if o.MinBars < 3 {
		return errors.New("min bars must be at least 3")
	}
	if o.Separation < 0 {
		return errors.New("separation must not be negative")
	}
	if o.MinRange <= 0 {
		return errors.New("min range must be positive")
	}
	if o.RetraceMin < 0 || o.RetraceMax > 1 || o.RetraceMin > o.RetraceMax {
		return fmt.Errorf("invalid retrace band [%.3f, %.3f]", o.RetraceMin, o.RetraceMax)
	}
	if o.EMASpan <= 0 || o.VolumeWindow <= 0 {
		return errors.New("ema span and volume window must be positive")
	}
	if o.EMATolerance <= 0 {
		return errors.New("ema tolerance must be positive")
	}
	return nil
}

func (o Options) trace(ev TraceEvent) {
	if o.Trace != nil {
		o.Trace(ev)
	}
}

// Detect scans bars for a confirmed wave-1/wave-2 structure. It stops at the
// first confirmed triple; every evaluated triple is kept in the audit log.
func Detect(bars []model.OHLCV, opts Options) *model.Detection {
	det := &model.Detection{}
	if len(bars) < opts.MinBars {
		det.Diagnostic = model.DiagInsufficientData
		return det
	}

	lows, highs := FindSwingPoints(bars)
	if len(lows) < 2 || len(highs) < 1 {
		det.Diagnostic = model.DiagInsufficientSwingPoints
		return det
	}

	// A failed EMA only disables confluence; the scan still runs.
	ema, _ := calculator.CalculateEMASeries(bars, opts.EMASpan)

	for _, low := range orderLows(lows, opts.LowOrder) {
		for _, high := range highs {
			if high.Index <= low.Index+opts.Separation {
				continue
			}
			rng := high.Price - low.Price
			if rng < opts.MinRange || rng <= 0 {
				opts.trace(TraceEvent{Stage: StageRangeTooSmall, Low: low, High: high})
				continue
			}
			w2, ok := firstLowAfter(lows, high.Index+opts.Separation)
			if !ok {
				opts.trace(TraceEvent{Stage: StageNoWave2, Low: low, High: high})
				continue
			}

			cand, err := evaluateTriple(bars, ema, low, high, w2, opts)
			if err != nil {
				opts.trace(TraceEvent{Stage: StageFault, Low: low, High: high, Wave2: w2, Err: err})
				continue
			}
			if cand.RoundTrip {
				if opts.AuditRoundTrips {
					det.Audit = append(det.Audit, cand)
				}
				opts.trace(TraceEvent{Stage: StageRoundTrip, Low: low, High: high, Wave2: w2, Candidate: cand})
				continue
			}

			det.Audit = append(det.Audit, cand)
			if !cand.Confirmed {
				opts.trace(TraceEvent{Stage: StageEvaluated, Low: low, High: high, Wave2: w2, Candidate: cand})
				continue
			}

			res, err := buildResult(bars, cand)
			if err != nil {
				opts.trace(TraceEvent{Stage: StageFault, Low: low, High: high, Wave2: w2, Candidate: cand, Err: err})
				continue
			}
			opts.trace(TraceEvent{Stage: StageConfirmed, Low: low, High: high, Wave2: w2, Candidate: cand})
			det.Result = res
			return det
		}
	}

	det.Diagnostic = model.DiagNoConfirmedStructure
	return det
}

func orderLows(lows []model.SwingPoint, order LowOrder) []model.SwingPoint {
	out := make([]model.SwingPoint, len(lows))
	copy(out, lows)
	if order == OrderByPrice {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	}
	return out
}

// evaluateTriple scores one (low, high, wave2) triple. An error means the
// triple could not be scored and should be dropped.
func evaluateTriple(bars []model.OHLCV, ema []float64, low, high, w2 model.SwingPoint, opts Options) (model.WaveCandidate, error) {
	cand := model.WaveCandidate{Wave1Low: low, Wave1High: high, Wave2Low: w2}

	rng := high.Price - low.Price
	if rng <= 0 || !finite(rng) {
		return cand, fmt.Errorf("degenerate wave-1 range %.4f", rng)
	}
	cand.RetraceRatio = (high.Price - w2.Price) / rng
	if !finite(cand.RetraceRatio) {
		return cand, errors.New("non-finite retrace ratio")
	}
	if cand.RetraceRatio > 1.0 {
		cand.RoundTrip = true
		return cand, nil
	}

	if w2.Index < 1 || w2.Index >= len(bars) {
		return cand, fmt.Errorf("wave-2 index %d has no preceding bar", w2.Index)
	}
	prev, cur := bars[w2.Index-1], bars[w2.Index]
	if !finiteBar(prev) || !finiteBar(cur) {
		return cand, fmt.Errorf("malformed bar near index %d", w2.Index)
	}

	cand.Pattern = ClassifyReversal(prev, cur)

	if avg, err := calculator.TrailingVolumeSMA(bars, w2.Index, opts.VolumeWindow); err == nil {
		cand.VolumeSurge = cur.Volume > avg
	}

	if w2.Index < len(ema) && cur.Close != 0 {
		cand.EMAConfluence = math.Abs(cur.Close-ema[w2.Index])/cur.Close < opts.EMATolerance
	}

	cand.Confirmed = cand.Pattern != model.PatternNone &&
		cand.VolumeSurge &&
		cand.EMAConfluence &&
		cand.RetraceRatio >= opts.RetraceMin &&
		cand.RetraceRatio <= opts.RetraceMax
	return cand, nil
}

func buildResult(bars []model.OHLCV, cand model.WaveCandidate) (*model.WaveResult, error) {
	proj, err := calculator.ProjectFibonacci(cand.Wave1Low.Price, cand.Wave1High.Price)
	if err != nil {
		return nil, err
	}
	current := bars[len(bars)-1].Close
	return &model.WaveResult{
		Candidate:    cand,
		Projection:   proj,
		CurrentPrice: current,
		InEntryZone:  proj.RetraceZone.Contains(current),
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteBar(b model.OHLCV) bool {
	return finite(b.Open) && finite(b.High) && finite(b.Low) && finite(b.Close) && finite(b.Volume)
}
