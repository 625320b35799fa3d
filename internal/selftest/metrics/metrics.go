package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TestResultsTotal *prometheus.CounterVec
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		TestResultsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_selftest_results_total",
			Help: "Total number of self-test results by status",
		}, []string{"status"}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_selftest_runs_total",
			Help: "Total number of self-test runs by outcome",
		}, []string{"outcome"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "grantgate_selftest_run_duration_seconds",
			Help:    "Duration of full self-test runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementResults(status string) {
	m.TestResultsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementRuns(outcome string) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRunDuration(seconds float64) {
	m.RunDuration.Observe(seconds)
}
