package aggregator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/oakmund/crier/pkg/source"
)

var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crier",
		Subsystem: "aggregator",
		Name:      "fetches_total",
		Help:      "Context fetches by descriptor kind and outcome.",
	}, []string{"kind", "result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crier",
		Subsystem: "aggregator",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of individual context fetches.",
		Buckets:   prometheus.DefBuckets,
	})
)

func observeFetch(kind source.Kind, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	fetchesTotal.WithLabelValues(kind.String(), result).Inc()
	fetchDuration.Observe(elapsed.Seconds())
}
