package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	FailedLoginsRecorded prometheus.Counter
	AccountLockoutsTotal prometheus.Counter
	AlertsEmitted        *prometheus.CounterVec
	ActivityRecorded     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		FailedLoginsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "grantgate_security_failed_logins_recorded_total",
			Help: "Total number of failed login attempts recorded",
		}),
		AccountLockoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "grantgate_security_account_lockouts_total",
			Help: "Total number of account lockouts",
		}),
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grantgate_security_alerts_emitted_total",
			Help: "Total number of security alerts emitted by type",
		}, []string{"type"}),
		ActivityRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "grantgate_security_activity_entries_total",
			Help: "Total number of activity log entries recorded",
		}),
	}
}

func (m *Metrics) IncrementFailedLogins() {
	m.FailedLoginsRecorded.Inc()
}

func (m *Metrics) IncrementLockouts() {
	m.AccountLockoutsTotal.Inc()
}

func (m *Metrics) IncrementAlerts(alertType string) {
	m.AlertsEmitted.WithLabelValues(alertType).Inc()
}

func (m *Metrics) IncrementActivity() {
	m.ActivityRecorded.Inc()
}
