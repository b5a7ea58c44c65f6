package collector

import (
	"context"
	"fmt"
	"time"

	"ChartDataset/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	// Bars maps a symbol to the series returned for it. Symbols without an
	// entry get a generated weekday series around Price.
	Bars  map[string][]model.OHLCV
	Fail  map[string]error
	Price float64
	Calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyRange(_ context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	m.Calls = append(m.Calls, symbol)
	if err, ok := m.Fail[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("mock: no data for %s", symbol)
	}
	return GenerateBars(m.Price, start, end), nil
}

// GenerateBars builds a weekday-only daily series in [start, end) with a
// gentle oscillation so that candles, averages and volume all vary.
func GenerateBars(basePrice float64, start, end time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		step := float64(i%20-10) * 0.002
		p := basePrice * (1 + step)
		open := p * 0.999
		if i%2 == 0 {
			open = p * 1.001
		}
		bars = append(bars, model.OHLCV{
			Time:     d,
			Open:     open,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			AdjClose: p,
			Volume:   float64(1000000 + (i%7)*25000),
		})
		i++
	}
	return bars
}
