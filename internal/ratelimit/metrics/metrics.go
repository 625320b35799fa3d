package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitChecksTotal   *prometheus.CounterVec
	RateLimitStoreFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RateLimitChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_ratelimit_checks_total",
			Help: "Total number of rate limit checks by outcome",
		}, []string{"outcome"}),
		RateLimitStoreFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "grantgate_ratelimit_store_failures_total",
			Help: "Total number of counter store failures during rate limit checks",
		}),
	}
}

func (m *Metrics) IncrementChecks(outcome string) {
	m.RateLimitChecksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementStoreFailures() {
	m.RateLimitStoreFailures.Inc()
}
