package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _, interval, period string) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	step, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}
	count, err := barsInPeriod(period, step)
	if err != nil {
		return nil, err
	}
	return generateMockBars(m.Price, count, step), nil
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().UTC().Truncate(step).Add(-time.Duration(count) * step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/5))
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches price series for one symbol.
type Collector struct {
	Fetcher Fetcher
	Symbol  string
	Period  string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, period string) *Collector {
	return &Collector{Fetcher: fetcher, Symbol: symbol, Period: period}
}

// Collect fetches bars for interval and drops gaps, so every returned bar has
// finite, non-zero prices and the series is in chronological order.
func (c *Collector) Collect(ctx context.Context, interval string) (*model.PriceSeries, error) {
	raw, err := c.Fetcher.FetchBars(ctx, c.Symbol, interval, c.Period)
	if err != nil {
		return nil, fmt.Errorf("fetch %s bars: %w", interval, err)
	}

	bars := make([]model.OHLCV, 0, len(raw))
	for _, b := range raw {
		if !usableBar(b) {
			continue
		}
		bars = append(bars, b)
	}
	if dropped := len(raw) - len(bars); dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("interval", interval).Msg("dropped incomplete bars")
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch %s bars: no usable data", interval)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return &model.PriceSeries{
		Symbol:    c.Symbol,
		Interval:  interval,
		Period:    c.Period,
		Bars:      bars,
		FetchedAt: time.Now(),
	}, nil
}

func usableBar(b model.OHLCV) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Open != 0 && b.High != 0 && b.Low != 0 && b.Close != 0
}
