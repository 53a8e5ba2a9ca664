package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Bullish reports whether the bar closed above its open.
func (b OHLCV) Bullish() bool { return b.Close > b.Open }

// Bearish reports whether the bar closed below its open.
func (b OHLCV) Bearish() bool { return b.Close < b.Open }

// PriceSeries holds raw price data for one symbol and timeframe.
type PriceSeries struct {
	Symbol    string
	Interval  string
	Period    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// CurrentPrice returns the close of the most recent bar, or 0 for an empty series.
func (s *PriceSeries) CurrentPrice() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}
