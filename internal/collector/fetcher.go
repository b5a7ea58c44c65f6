package collector

import (
	"context"
	"time"

	"ChartDataset/internal/model"
)

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	// FetchDailyRange returns the daily bars in [start, end), oldest first.
	FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}
