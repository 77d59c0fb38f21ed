package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jacksonlee411/attainment-reports/pkg/eventbus"
)

// Metrics counts generation outcomes from the events of a run.
type Metrics struct {
	written  *prometheus.CounterVec
	skipped  prometheus.Counter
	failed   prometheus.Counter
	duration prometheus.Histogram
}

func NewMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		written: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attainment",
			Name:      "reports_written_total",
			Help:      "Total number of manager reports written broken down by region.",
		}, []string{"region"}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "attainment",
			Name:      "reports_skipped_total",
			Help:      "Total number of manager labels without matched records.",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "attainment",
			Name:      "reports_failed_total",
			Help:      "Total number of manager reports that failed to render or persist.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "attainment",
			Name:      "generation_seconds",
			Help:      "Wall time of a report generation run.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (m *Metrics) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(func(e *ReportWritten) {
		m.written.WithLabelValues(e.Artifact.Region).Inc()
	})
	bus.Subscribe(func(e *ReportSkipped) {
		m.skipped.Inc()
	})
	bus.Subscribe(func(e *ReportFailed) {
		m.failed.Inc()
	})
	bus.Subscribe(func(e *RunFinished) {
		m.duration.Observe(e.Duration.Seconds())
	})
}
