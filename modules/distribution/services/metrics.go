package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	drafts *prometheus.CounterVec
	emails *prometheus.CounterVec
}

func NewMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		drafts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attainment",
			Name:      "drafts_total",
			Help:      "Total number of draft creations broken down by result.",
		}, []string{"result"}),
		emails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attainment",
			Name:      "emails_total",
			Help:      "Total number of draft sends broken down by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) draft(result string) {
	if m == nil {
		return
	}
	m.drafts.WithLabelValues(result).Inc()
}

func (m *Metrics) email(result string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(result).Inc()
}
