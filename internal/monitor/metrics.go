package monitor

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "buildwatch"

var (
	refreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of pipeline refreshes in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"pipeline", "state"},
	)

	refreshFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_failures_total",
			Help:      "Number of failed pipeline refreshes.",
		},
		[]string{"pipeline"},
	)

	storedBuilds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stored_builds",
			Help:      "Number of builds stored for a pipeline after the last successful refresh.",
		},
		[]string{"pipeline"},
	)
)

// RegisterMetrics registers the refresh collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for name, c := range map[string]prometheus.Collector{
		"refreshDuration": refreshDuration,
		"refreshFailures": refreshFailures,
		"storedBuilds":    storedBuilds,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register %s metric: %w", name, err)
		}
	}
	return nil
}

func observeRefresh(pipeline string, seconds float64, builds int, err error) {
	if err != nil {
		refreshDuration.WithLabelValues(pipeline, "failed").Observe(seconds)
		refreshFailures.WithLabelValues(pipeline).Inc()
		return
	}
	refreshDuration.WithLabelValues(pipeline, "succeeded").Observe(seconds)
	storedBuilds.WithLabelValues(pipeline).Set(float64(builds))
}
