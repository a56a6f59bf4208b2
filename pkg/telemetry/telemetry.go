// Package telemetry collects per-run pipeline metrics in a private Prometheus
// registry. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/featsel/pkg/errors"
)

const namespace = "featsel"

// Metrics holds the collectors of one process.
type Metrics struct {
	registry         *prometheus.Registry
	stageDuration    *prometheus.HistogramVec
	featuresDropped  *prometheus.CounterVec
	subsetsEvaluated *prometheus.CounterVec
}

// New creates the collectors and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		featuresDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_dropped_total",
			Help:      "Feature columns removed, by stage.",
		}, []string{"stage"}),
		subsetsEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subsets_evaluated_total",
			Help:      "Feature subsets scored, by search.",
		}, []string{"search"}),
	}
	m.registry.MustRegister(m.stageDuration, m.featuresDropped, m.subsetsEvaluated)
	return m
}

// ObserveStage records the duration of stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddDropped adds n dropped columns for stage.
func (m *Metrics) AddDropped(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.featuresDropped.WithLabelValues(stage).Add(float64(n))
}

// IncSubsets counts one scored subset for search ("sequential" or
// "exhaustive").
func (m *Metrics) IncSubsets(search string) {
	if m == nil {
		return
	}
	m.subsetsEvaluated.WithLabelValues(search).Inc()
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteToTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return errors.New("telemetry: no metrics collected")
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "telemetry: write %s", path)
	}
	return nil
}
