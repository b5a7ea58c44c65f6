// Package metrics holds the run counters. They are exposed to the rest of
// the code as go-kit metrics and backed by a private Prometheus registry.
package metrics

import (
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dataprep"

// Metrics is the set of counters updated during a run.
type Metrics struct {
	Registry *prometheus.Registry

	Samples        metrics.Counter
	WindowSkips    metrics.Counter // reason
	SymbolFailures metrics.Counter
	Chunks         metrics.Counter // state: written, skipped
	FetchCount     metrics.Counter // provider, error
	FetchDuration  metrics.Histogram
}

// New registers all counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	samples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_total",
		Help:      "Training samples produced.",
	}, nil)
	skips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "window_skips_total",
		Help:      "Buckets that did not produce a sample, by reason.",
	}, []string{"reason"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "symbol_failures_total",
		Help:      "Symbols whose series could not be loaded.",
	}, nil)
	chunks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_total",
		Help:      "Chunks handled, by state.",
	}, []string{"state"})
	fetchCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fetch",
		Name:      "request_count",
		Help:      "Series fetch requests.",
	}, []string{"provider", "error"})
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "fetch",
		Name:      "request_duration_seconds",
		Help:      "Series fetch duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "error"})

	reg.MustRegister(samples, skips, failures, chunks, fetchCount, fetchDuration)

	return &Metrics{
		Registry:       reg,
		Samples:        kitprometheus.NewCounter(samples),
		WindowSkips:    kitprometheus.NewCounter(skips),
		SymbolFailures: kitprometheus.NewCounter(failures),
		Chunks:         kitprometheus.NewCounter(chunks),
		FetchCount:     kitprometheus.NewCounter(fetchCount),
		FetchDuration:  kitprometheus.NewHistogram(fetchDuration),
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
