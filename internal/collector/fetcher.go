package collector

import (
	"context"
	"errors"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// ErrUnsupportedInterval is returned for a timeframe the data source cannot serve.
var ErrUnsupportedInterval = errors.New("unsupported interval")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns chronologically ordered bars for symbol at the given
	// interval ("1h", "2h", "4h", "1d", "1wk") covering period (e.g. "60d").
	FetchBars(ctx context.Context, symbol, interval, period string) ([]model.OHLCV, error)
	Name() string
}
