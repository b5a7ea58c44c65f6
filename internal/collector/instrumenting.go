package collector

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"

	"ChartDataset/internal/model"
)

// instrumentingFetcher wraps a Fetcher and records request metrics.
type instrumentingFetcher struct {
	reqCount    metrics.Counter
	reqDuration metrics.Histogram
	next        Fetcher
}

// NewInstrumentingFetcher wraps next with a request counter and a duration
// histogram, both labelled by provider and error.
func NewInstrumentingFetcher(reqCount metrics.Counter, reqDuration metrics.Histogram, next Fetcher) Fetcher {
	return &instrumentingFetcher{
		reqCount:    reqCount,
		reqDuration: reqDuration,
		next:        next,
	}
}

func (f *instrumentingFetcher) Name() string { return f.next.Name() }

func (f *instrumentingFetcher) FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) (bars []model.OHLCV, err error) {
	defer func(begin time.Time) {
		labels := []string{
			"provider", f.next.Name(),
			"error", strconv.FormatBool(err != nil),
		}
		f.reqCount.With(labels...).Add(1)
		f.reqDuration.With(labels...).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return f.next.FetchDailyRange(ctx, symbol, start, end)
}
