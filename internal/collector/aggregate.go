package collector

import (
	"time"

	"github.com/waxaddict/wti-wave-dashboard/internal/model"
)

// aggregateBars merges chronologically ordered bars into fixed buckets aligned to
// the Unix epoch (UTC). Each output bar is stamped with its bucket start.
func aggregateBars(bars []model.OHLCV, bucket time.Duration) []model.OHLCV {
	if len(bars) == 0 || bucket <= 0 {
		return bars
	}
	var out []model.OHLCV
	var cur model.OHLCV
	var started bool

	for _, b := range bars {
		key := b.Time.UTC().Truncate(bucket)
		if !started || !key.Equal(cur.Time) {
			if started {
				out = append(out, cur)
			}
			cur = model.OHLCV{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if started {
		out = append(out, cur)
	}
	return out
}
