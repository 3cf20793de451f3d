package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan outcomes per record
const (
	OutcomeNotified     = "notified"
	OutcomeDeduplicated = "deduplicated"
	OutcomeOutOfWindow  = "out_of_window"
	OutcomeNoExpiration = "no_expiration"
	OutcomeMissingOwner = "missing_owner"
	OutcomeFailed       = "failed"
)

// Metrics provides observability for notification dispatch and the
// expiration scan. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Notifications persisted, by type
	NotificationsCreated *prometheus.CounterVec

	// Creations skipped because an unread one already exists, by type
	NotificationsDeduplicated *prometheus.CounterVec

	BroadcastFailures prometheus.Counter
	EmailFailures     prometheus.Counter

	// Records examined by the scanner, by outcome
	ScanRecords *prometheus.CounterVec

	ScanDuration prometheus.Histogram
}

// New registers every metric on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NotificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_notifications_created_total",
			Help: "Notifications persisted by type",
		}, []string{"type"}),

		NotificationsDeduplicated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_notifications_deduplicated_total",
			Help: "Notification creations skipped because an unread one already exists",
		}, []string{"type"}),

		BroadcastFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_notification_broadcast_failures_total",
			Help: "Real-time publishes that returned an error",
		}),

		EmailFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_notification_email_failures_total",
			Help: "Critical alert e-mails that could not be sent",
		}),

		ScanRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_expiration_scan_records_total",
			Help: "Documents examined by the expiration scan by outcome",
		}, []string{"outcome"}),

		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "backoffice_expiration_scan_duration_seconds",
			Help:    "Duration of a full expiration scan",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncCreated(notificationType string) {
	if m != nil {
		m.NotificationsCreated.WithLabelValues(notificationType).Inc()
	}
}

func (m *Metrics) IncDeduplicated(notificationType string) {
	if m != nil {
		m.NotificationsDeduplicated.WithLabelValues(notificationType).Inc()
	}
}

func (m *Metrics) IncBroadcastFailure() {
	if m != nil {
		m.BroadcastFailures.Inc()
	}
}

func (m *Metrics) IncEmailFailure() {
	if m != nil {
		m.EmailFailures.Inc()
	}
}

// IncScanRecord records the outcome of one document in a scan.
func (m *Metrics) IncScanRecord(outcome string) {
	if m != nil {
		m.ScanRecords.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveScan(d time.Duration) {
	if m != nil {
		m.ScanDuration.Observe(d.Seconds())
	}
}
