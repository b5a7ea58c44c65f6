package collector

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"ChartDataset/internal/model"
)

// loggingFetcher wraps a Fetcher and logs every call.
type loggingFetcher struct {
	logger log.Logger
	next   Fetcher
}

// NewLoggingFetcher wraps next with call logging. Successful calls log at
// debug, failures at warn.
func NewLoggingFetcher(logger log.Logger, next Fetcher) Fetcher {
	return &loggingFetcher{logger: logger, next: next}
}

func (f *loggingFetcher) Name() string { return f.next.Name() }

func (f *loggingFetcher) FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) (bars []model.OHLCV, err error) {
	defer func(begin time.Time) {
		_ = f.wrap(err).Log(
			"method", "FetchDailyRange",
			"provider", f.next.Name(),
			"symbol", symbol,
			"bars", len(bars),
			"err", err,
			"elapsed", time.Since(begin),
		)
	}(time.Now())
	return f.next.FetchDailyRange(ctx, symbol, start, end)
}

func (f *loggingFetcher) wrap(err error) log.Logger {
	if err != nil {
		return level.Warn(f.logger)
	}
	return level.Debug(f.logger)
}
