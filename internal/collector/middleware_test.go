package collector

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartDataset/internal/metrics"
)

func TestLoggingFetcher(t *testing.T) {
	var buf bytes.Buffer
	mock := &MockFetcher{Price: 100, Fail: map[string]error{"GONE": errors.New("delisted")}}
	f := NewLoggingFetcher(log.NewLogfmtLogger(&buf), mock)
	assert.Equal(t, "mock", f.Name())

	bars, err := f.FetchDailyRange(context.Background(), "AAPL", HistoryStart, HistoryEnd)
	require.NoError(t, err)
	ok := buf.String()
	assert.Contains(t, ok, "level=debug")
	assert.Contains(t, ok, "symbol=AAPL")
	assert.Contains(t, ok, "provider=mock")
	assert.Contains(t, ok, "err=null")
	assert.Contains(t, ok, "bars="+strconv.Itoa(len(bars)))

	buf.Reset()
	_, err = f.FetchDailyRange(context.Background(), "GONE", HistoryStart, HistoryEnd)
	require.Error(t, err)
	failed := buf.String()
	assert.Contains(t, failed, "level=warn")
	assert.Contains(t, failed, "symbol=GONE")
	assert.Contains(t, failed, "err=delisted")
	assert.Equal(t, []string{"AAPL", "GONE"}, mock.Calls)
}

func TestInstrumentingFetcher(t *testing.T) {
	m := metrics.New()
	mock := &MockFetcher{Price: 100, Fail: map[string]error{"GONE": errors.New("delisted")}}
	f := NewInstrumentingFetcher(m.FetchCount, m.FetchDuration, mock)
	assert.Equal(t, "mock", f.Name())

	for _, sym := range []string{"AAPL", "MSFT", "GONE"} {
		_, _ = f.FetchDailyRange(context.Background(), sym, HistoryStart, HistoryEnd)
	}

	path := filepath.Join(t.TempDir(), "fetch.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `dataprep_fetch_request_count{error="false",provider="mock"} 2`)
	assert.Contains(t, text, `dataprep_fetch_request_count{error="true",provider="mock"} 1`)
	assert.Contains(t, text, `dataprep_fetch_request_duration_seconds_count{error="false",provider="mock"} 2`)
	assert.Contains(t, text, `dataprep_fetch_request_duration_seconds_count{error="true",provider="mock"} 1`)
}
