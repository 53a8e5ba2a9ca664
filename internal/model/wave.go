package model

// SwingKind distinguishes local lows from local highs.
type SwingKind int

const (
	SwingLow SwingKind = iota
	SwingHigh
)

func (k SwingKind) String() string {
	if k == SwingHigh {
		return "high"
	}
	return "low"
}

// SwingPoint is a local extremum. Index is the bar position within the series.
type SwingPoint struct {
	Index int
	Price float64
	Kind  SwingKind
}

// ReversalPattern is the candlestick shape found at a wave-2 low.
type ReversalPattern int

const (
	PatternNone ReversalPattern = iota
	PatternBullishEngulfing
	PatternHammer
)

func (p ReversalPattern) String() string {
	switch p {
	case PatternBullishEngulfing:
		return "Bullish Engulfing"
	case PatternHammer:
		return "Hammer"
	default:
		return "None"
	}
}

// WaveCandidate is one evaluated (wave1 low, wave1 high, wave2 low) triple.
type WaveCandidate struct {
	Wave1Low      SwingPoint
	Wave1High     SwingPoint
	Wave2Low      SwingPoint
	RetraceRatio  float64
	Pattern       ReversalPattern
	VolumeSurge   bool
	EMAConfluence bool
	Confirmed     bool
	// RoundTrip marks a triple whose retrace exceeded 1.0. Such triples only
	// reach the audit log when the detector is asked to keep them.
	RoundTrip bool
}

// Range returns the wave-1 price range.
func (c WaveCandidate) Range() float64 {
	return c.Wave1High.Price - c.Wave1Low.Price
}

// FibZone is an inclusive (lower, upper) price band.
type FibZone struct {
	Lower float64
	Upper float64
}

// Contains reports whether price lies inside the zone, bounds included.
func (z FibZone) Contains(price float64) bool {
	return price >= z.Lower && price <= z.Upper
}

// FibTarget is an extension level at Multiplier times the wave-1 range.
type FibTarget struct {
	Multiplier float64
	Price      float64
}

// FibProjection holds the retracement zone and extension targets for a low/high pair.
type FibProjection struct {
	Low         float64
	High        float64
	Range       float64
	RetraceZone FibZone
	Targets     []FibTarget
}

// WaveResult is a confirmed wave enriched with its Fibonacci projection.
type WaveResult struct {
	Candidate    WaveCandidate
	Projection   FibProjection
	CurrentPrice float64
	InEntryZone  bool
}

// Diagnostic explains why no wave was returned.
type Diagnostic int

const (
	DiagNone Diagnostic = iota
	DiagInsufficientData
	DiagInsufficientSwingPoints
	DiagNoConfirmedStructure
)

func (d Diagnostic) String() string {
	switch d {
	case DiagInsufficientData:
		return "insufficient data"
	case DiagInsufficientSwingPoints:
		return "insufficient swing points"
	case DiagNoConfirmedStructure:
		return "no valid structure found"
	default:
		return ""
	}
}

// Detection is the outcome of one detector run. Exactly one of Result and
// Diagnostic is set; Audit lists every candidate evaluated, in scan order.
type Detection struct {
	Result     *WaveResult
	Diagnostic Diagnostic
	Audit      []WaveCandidate
}

// Confirmed reports whether the run produced a wave.
func (d *Detection) Confirmed() bool { return d.Result != nil }
