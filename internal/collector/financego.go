package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"ChartDataset/internal/model"
)

// FinanceGoFetcher implements Fetcher on top of the piquette/finance-go
// chart client. It owns its backend, so the proxy and timeout stay local to
// this fetcher instead of the library's package-level client.
type FinanceGoFetcher struct {
	Backend *finance.BackendConfiguration
}

// NewFinanceGoFetcher creates a fetcher backed by finance-go with optional
// proxy support.
func NewFinanceGoFetcher(proxyURL string, timeout time.Duration) *FinanceGoFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FinanceGoFetcher{
		Backend: &finance.BackendConfiguration{
			Type: finance.YFinBackend,
			URL:  finance.YFinURL,
			HTTPClient: &http.Client{
				Timeout:   timeout,
				Transport: transport,
			},
		},
	}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) FetchDailyRange(ctx context.Context, symbol string, start, end time.Time) (bars []model.OHLCV, err error) {
	// The chart client indexes the first result without checking for one.
	defer func() {
		if r := recover(); r != nil {
			bars, err = nil, fmt.Errorf("financego chart: malformed response: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	params.Context = &ctx

	iter := chart.Client{B: f.Backend}.Get(params)

	for iter.Next() {
		b := iter.Bar()
		bar := model.OHLCV{
			Open:     decimalFloat(b.Open),
			High:     decimalFloat(b.High),
			Low:      decimalFloat(b.Low),
			Close:    decimalFloat(b.Close),
			AdjClose: decimalFloat(b.AdjClose),
			Volume:   float64(b.Volume),
		}
		if bar.Open == 0 && bar.High == 0 && bar.Low == 0 && bar.Close == 0 {
			continue
		}
		bar.Time = tradingDay(int64(b.Timestamp), int64(iter.Meta().Gmtoffset))
		bars = append(bars, bar)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("financego chart: %w", err)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func decimalFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
