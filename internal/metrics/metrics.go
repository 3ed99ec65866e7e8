// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchOutcomesTotal *prometheus.CounterVec
	sinkWritesTotal    *prometheus.CounterVec
	runDurationSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call
// multiple times.
func Init() {
	once.Do(func() {
		fetchOutcomesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipcrawl_fetch_outcomes_total",
				Help: "Fetch outcomes per run, labeled by outcome class.",
			},
			[]string{"status"},
		)

		sinkWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clipcrawl_sink_writes_total",
				Help: "Sink store calls, labeled by result.",
			},
			[]string{"result"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "clipcrawl_run_duration_seconds",
				Help:    "Duration of one full pipeline pass.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		)
	})
}

// ObserveFetchOutcome counts one fetch outcome by class.
func ObserveFetchOutcome(status string) {
	if fetchOutcomesTotal == nil {
		return
	}
	fetchOutcomesTotal.WithLabelValues(status).Inc()
}

// ObserveSinkWrite counts one sink store call.
func ObserveSinkWrite(err error) {
	if sinkWritesTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	sinkWritesTotal.WithLabelValues(result).Inc()
}

// ObserveRunDuration records the duration of one pipeline pass.
func ObserveRunDuration(d time.Duration) {
	if runDurationSeconds == nil {
		return
	}
	runDurationSeconds.Observe(d.Seconds())
}
