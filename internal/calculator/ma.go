package calculator

import (
	"errors"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// TrailingVolumeSMA returns the average volume of the period bars ending at (and including) index.
func TrailingVolumeSMA(bars []model.OHLCV, index, period int) (float64, error) {
	if index < 0 || index >= len(bars) {
		return 0, errors.New("index out of range")
	}
	return CalculateSMA(extractVolumes(bars[:index+1]), period)
}

// CalculateEMASeries returns the exponential moving average of closes with the given span.
// The series is seeded with the first close and uses alpha = 2/(span+1), so every bar has a value.
func CalculateEMASeries(bars []model.OHLCV, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	if len(bars) == 0 {
		return nil, errors.New("no bars provided")
	}
	alpha := 2.0 / float64(span+1)
	ema := make([]float64, len(bars))
	ema[0] = bars[0].Close
	for i := 1; i < len(bars); i++ {
		ema[i] = alpha*bars[i].Close + (1-alpha)*ema[i-1]
	}
	return ema, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
