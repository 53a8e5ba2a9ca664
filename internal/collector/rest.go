package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// RESTFetcher implements Fetcher against a generic bars REST API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	HTTP    *HTTPClient
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    NewHTTPClient(proxyURL, 5),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchBars(ctx context.Context, symbol, interval, period string) ([]model.OHLCV, error) {
	step, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}
	limit, err := barsInPeriod(period, step)
	if err != nil {
		return nil, err
	}
	bars, err := f.fetchBars(ctx, symbol, interval, limit)
	if err == nil {
		return bars, nil
	}

	// Fallback: intraday multiples of 1h can be built from hourly bars.
	var statusErr *StatusError
	if step <= time.Hour || step >= 24*time.Hour || !errors.As(err, &statusErr) {
		return nil, err
	}
	log.Warn().Err(err).Str("interval", interval).Msg("interval fetch failed, aggregating hourly bars")
	hourly, hourlyErr := f.fetchBars(ctx, symbol, "1h", limit*int(step/time.Hour))
	if hourlyErr != nil {
		return nil, fmt.Errorf("%s fetch failed: %w; hourly fallback also failed: %w", interval, err, hourlyErr)
	}
	return aggregateBars(hourly, step), nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	body, err := f.HTTP.Get(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	var raw []restBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// intervalDuration returns the bar length of a timeframe.
func intervalDuration(interval string) (time.Duration, error) {
	switch interval {
	case "1h", "60m":
		return time.Hour, nil
	case "2h":
		return 2 * time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	case "1wk":
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%q: %w", interval, ErrUnsupportedInterval)
	}
}

// barsInPeriod converts a period such as "60d", "3mo" or "1y" into a bar count.
func barsInPeriod(period string, step time.Duration) (int, error) {
	units := []struct {
		suffix string
		d      time.Duration
	}{
		{"mo", 30 * 24 * time.Hour},
		{"wk", 7 * 24 * time.Hour},
		{"d", 24 * time.Hour},
		{"y", 365 * 24 * time.Hour},
	}
	for _, u := range units {
		if !strings.HasSuffix(period, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(period, u.suffix))
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid period %q", period)
		}
		count := int(time.Duration(n) * u.d / step)
		if count < 1 {
			count = 1
		}
		return count, nil
	}
	return 0, fmt.Errorf("invalid period %q", period)
}
