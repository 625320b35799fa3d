package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuditEventsAppended *prometheus.CounterVec
	AuditAppendFailures prometheus.Counter
	AuditQueryDuration  prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		AuditEventsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_audit_events_appended_total",
			Help: "Total number of audit events appended",
		}, []string{"action", "status"}),
		AuditAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "grantgate_audit_append_failures_total",
			Help: "Total number of audit event appends that failed at the store",
		}),
		AuditQueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "grantgate_audit_query_duration_seconds",
			Help:    "Duration of audit store queries",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementAppended(action, status string) {
	m.AuditEventsAppended.WithLabelValues(action, status).Inc()
}

func (m *Metrics) IncrementAppendFailures() {
	m.AuditAppendFailures.Inc()
}

func (m *Metrics) ObserveQueryDuration(seconds float64) {
	m.AuditQueryDuration.Observe(seconds)
}
