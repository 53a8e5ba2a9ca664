package strategy

import "github.com/waxaddict/wti-wave-dashboard/internal/model"

// FindSwingPoints returns the local lows and local highs of bars in chronological order.
// A bar is a local low when both neighbours have a strictly greater low, and a local high
// when both neighbours have a strictly lesser high. The first and last bars never qualify.
func FindSwingPoints(bars []model.OHLCV) (lows, highs []model.SwingPoint) {
	for i := 1; i < len(bars)-1; i++ {
		prev, cur, next := bars[i-1], bars[i], bars[i+1]
		if prev.Low > cur.Low && next.Low > cur.Low {
			lows = append(lows, model.SwingPoint{Index: i, Price: cur.Low, Kind: model.SwingLow})
		}
		if prev.High < cur.High && next.High < cur.High {
			highs = append(highs, model.SwingPoint{Index: i, Price: cur.High, Kind: model.SwingHigh})
		}
	}
	return lows, highs
}

// firstLowAfter returns the chronologically first low whose index is strictly greater than after.
func firstLowAfter(lows []model.SwingPoint, after int) (model.SwingPoint, bool) {
	for _, l := range lows {
		if l.Index > after {
			return l, true
		}
	}
	return model.SwingPoint{}, false
}
