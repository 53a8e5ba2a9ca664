package strategy

import "github.com/waxaddict/wti-wave-dashboard/internal/model"

// ClassifyReversal checks cur against the bar before it for a bullish reversal shape.
// Engulfing takes precedence when both shapes match.
func ClassifyReversal(prev, cur model.OHLCV) model.ReversalPattern {
	if prev.Bearish() && cur.Bullish() && cur.Open <= prev.Close && cur.Close >= prev.Open {
		return model.PatternBullishEngulfing
	}
	body := cur.Close - cur.Open
	if cur.Low < prev.Low && cur.Bullish() && cur.High-cur.Low > 2*body {
		return model.PatternHammer
	}
	return model.PatternNone
}
