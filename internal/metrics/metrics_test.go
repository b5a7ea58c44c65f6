package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.Samples.Add(3)
	m.WindowSkips.With("reason", "too_short").Add(2)
	m.Chunks.With("state", "written").Add(1)
	m.FetchCount.With("provider", "mock", "error", "false").Add(1)
	m.FetchDuration.With("provider", "mock", "error", "false").Observe(0.25)

	path := filepath.Join(t.TempDir(), "dataprep.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "dataprep_samples_total 3")
	assert.Contains(t, out, `dataprep_window_skips_total{reason="too_short"} 2`)
	assert.Contains(t, out, `dataprep_chunks_total{state="written"} 1`)
	assert.Contains(t, out, "dataprep_fetch_request_duration_seconds_count")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
