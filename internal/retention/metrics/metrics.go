package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecordsDeleted *prometheus.CounterVec
	SweepsTotal    *prometheus.CounterVec
	SweepDuration  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		RecordsDeleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_retention_records_deleted_total",
			Help: "Total number of records deleted by retention sweeps, by category",
		}, []string{"category"}),
		SweepsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_retention_sweeps_total",
			Help: "Total number of retention sweeps by outcome",
		}, []string{"outcome"}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "grantgate_retention_sweep_duration_seconds",
			Help:    "Duration of retention sweeps",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) AddDeleted(category string, n int) {
	m.RecordsDeleted.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) IncrementSweeps(outcome string) {
	m.SweepsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSweepDuration(seconds float64) {
	m.SweepDuration.Observe(seconds)
}
