package calculator

import (
	"errors"
	"math"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// Retracement and extension ratios.
const (
	RetraceShallow = 0.382
	RetraceDeep    = 0.618
)

// ExtensionMultipliers are the wave-3/5 target levels, in ascending order.
var ExtensionMultipliers = []float64{1.618, 2.0, 2.618}

// ErrInvertedRange is returned when the high does not sit above the low.
var ErrInvertedRange = errors.New("fibonacci: high must be greater than low")

// ProjectFibonacci computes the retracement zone and extension targets of a low/high pair.
func ProjectFibonacci(low, high float64) (model.FibProjection, error) {
	if math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0) {
		return model.FibProjection{}, errors.New("fibonacci: non-finite price")
	}
	if high <= low {
		return model.FibProjection{}, ErrInvertedRange
	}
	r := high - low
	p := model.FibProjection{
		Low:   low,
		High:  high,
		Range: r,
		RetraceZone: model.FibZone{
			Lower: high - r*RetraceDeep,
			Upper: high - r*RetraceShallow,
		},
		Targets: make([]model.FibTarget, len(ExtensionMultipliers)),
	}
	for i, m := range ExtensionMultipliers {
		p.Targets[i] = model.FibTarget{Multiplier: m, Price: low + r*m}
	}
	return p, nil
}

// CalculateCloseRange returns the highest and lowest close in the series.
func CalculateCloseRange(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	closes := extractCloses(bars)
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return high, low, nil
}
