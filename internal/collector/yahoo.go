package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	HTTP      *HTTPClient
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		HTTP:    NewHTTPClient(proxyURL, 2),
		SymbolMap: map[string]string{
			"WTI":   "CL=F",
			"CL":    "CL=F",
			"BRENT": "BZ=F",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooInterval maps a requested timeframe to the Yahoo interval to download
// and the bucket the result has to be aggregated into (0 means none).
func yahooInterval(interval string) (string, time.Duration, error) {
	switch interval {
	case "1h", "60m":
		return "1h", 0, nil
	case "2h":
		return "1h", 2 * time.Hour, nil
	case "4h":
		return "1h", 4 * time.Hour, nil
	case "1d":
		return "1d", 0, nil
	case "1wk":
		return "1wk", 0, nil
	default:
		return "", 0, fmt.Errorf("yahoo %q: %w", interval, ErrUnsupportedInterval)
	}
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func valueAt(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0")
	body, err := f.HTTP.Get(ctx, u, header)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, okO := valueAt(quote.Open, i)
		h, okH := valueAt(quote.High, i)
		l, okL := valueAt(quote.Low, i)
		c, okC := valueAt(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // skip null bars (holidays, halted sessions)
		}
		v, _ := valueAt(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol, interval, period string) ([]model.OHLCV, error) {
	yInterval, bucket, err := yahooInterval(interval)
	if err != nil {
		return nil, err
	}
	bars, err := f.fetchChart(ctx, symbol, yInterval, period)
	if err != nil {
		return nil, err
	}
	if bucket > 0 {
		bars = aggregateBars(bars, bucket)
	}
	return bars, nil
}
