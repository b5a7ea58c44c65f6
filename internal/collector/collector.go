package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"ChartDataset/internal/model"
	"ChartDataset/internal/quiet"
)

// Fixed history range requested from the provider.
var (
	HistoryStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	HistoryEnd   = time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC)
)

// ErrSymbolUnavailable means no usable series could be obtained for a symbol.
// It is a per-symbol condition: callers skip the symbol and carry on.
var ErrSymbolUnavailable = errors.New("symbol unavailable")

// Loader returns per-symbol series from the local cache, falling back to the
// remote fetcher and populating the cache on a miss.
type Loader struct {
	Fetcher Fetcher
	Cache   *Cache
	Start   time.Time
	End     time.Time
	Logger  log.Logger
}

// NewLoader creates a Loader over the fixed history range.
func NewLoader(fetcher Fetcher, cache *Cache, logger log.Logger) *Loader {
	return &Loader{
		Fetcher: fetcher,
		Cache:   cache,
		Start:   HistoryStart,
		End:     HistoryEnd,
		Logger:  logger,
	}
}

// Load returns the series for symbol. Any failure is reported as
// ErrSymbolUnavailable wrapping the cause.
func (l *Loader) Load(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	var (
		bars   []model.OHLCV
		err    error
		cached = l.Cache.Exists(symbol)
	)
	if cached {
		bars, err = l.Cache.Read(symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: read cache: %v", ErrSymbolUnavailable, symbol, err)
		}
	} else {
		err = quiet.Stdout(func() error {
			var ferr error
			bars, ferr = l.Fetcher.FetchDailyRange(ctx, symbol, l.Start, l.End)
			return ferr
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSymbolUnavailable, symbol, err)
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: empty series", ErrSymbolUnavailable, symbol)
	}

	series := &model.PriceSeries{Symbol: symbol, Bars: bars}
	series.Normalize()

	if !cached {
		if err := l.Cache.Write(symbol, series.Bars); err != nil {
			// The series is still usable for this run.
			_ = level.Warn(l.Logger).Log("msg", "cache write failed", "symbol", symbol, "err", err)
		}
	}
	return series, nil
}
