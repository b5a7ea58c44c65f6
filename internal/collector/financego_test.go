package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two bars out of order plus a null holiday bar, in New York time.
const financeGoBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL","gmtoffset":-18000},
"timestamp":[1262701800,1262615400,1262788200],
"indicators":{"quote":[{"open":[30.66,30.49,null],"high":[30.80,30.64,null],"low":[30.46,30.34,null],"close":[30.63,30.57,null],"volume":[150476200,123432400,null]}],
"adjclose":[{"adjclose":[26.25,26.20,null]}]}}],"error":null}}`

func newFinanceGoTestFetcher(url string) *FinanceGoFetcher {
	f := NewFinanceGoFetcher("", 5*time.Second)
	f.Backend.URL = url
	return f
}

func TestFinanceGoFetcher_FetchDailyRange(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "946684800", r.URL.Query().Get("period1"))
		_, _ = w.Write([]byte(financeGoBody))
	}))
	defer srv.Close()

	bars, err := newFinanceGoTestFetcher(srv.URL).FetchDailyRange(context.Background(), "AAPL", HistoryStart, HistoryEnd)
	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)

	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2010, 1, 4, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, time.Date(2010, 1, 5, 0, 0, 0, 0, time.UTC), bars[1].Time)

	assert.InDelta(t, 30.49, bars[0].Open, 1e-9)
	assert.InDelta(t, 30.64, bars[0].High, 1e-9)
	assert.InDelta(t, 30.34, bars[0].Low, 1e-9)
	assert.InDelta(t, 30.57, bars[0].Close, 1e-9)
	assert.InDelta(t, 26.20, bars[0].AdjClose, 1e-9)
	assert.Equal(t, 123432400.0, bars[0].Volume)
	assert.InDelta(t, 26.25, bars[1].AdjClose, 1e-9)
}

func TestFinanceGoFetcher_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newFinanceGoTestFetcher(srv.URL).FetchDailyRange(context.Background(), "GONE", HistoryStart, HistoryEnd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "financego chart")
}

func TestFinanceGoFetcher_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	_, err := newFinanceGoTestFetcher(srv.URL).FetchDailyRange(context.Background(), "NONE", HistoryStart, HistoryEnd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed response")
}

func TestFinanceGoFetcher_HonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte(financeGoBody))
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	begin := time.Now()
	_, err := newFinanceGoTestFetcher(srv.URL).FetchDailyRange(ctx, "SLOW", HistoryStart, HistoryEnd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(begin), time.Second)
}

func TestNewFinanceGoFetcher_Client(t *testing.T) {
	f := NewFinanceGoFetcher("http://proxy.local:3128", 7*time.Second)
	assert.Equal(t, 7*time.Second, f.Backend.HTTPClient.Timeout)

	tr, ok := f.Backend.HTTPClient.Transport.(*http.Transport)
	require.True(t, ok)
	req, err := http.NewRequest(http.MethodGet, "https://query2.finance.yahoo.com/v8/finance/chart/AAPL", nil)
	require.NoError(t, err)
	proxy, err := tr.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", proxy.Host)
}
