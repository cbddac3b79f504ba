package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authentication metrics
var (
	LoginCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_auth_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_auth_register_total",
			Help: "Total number of principal registrations",
		},
	)

	AuthErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_tenant_context_missing_total",
			Help: "Total number of requests that could not resolve a tenant",
		},
	)
)

// Domain metrics
var (
	NumbersAllocatedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_sequence_numbers_allocated_total",
			Help: "Total number of document numbers issued",
		},
		[]string{"type"},
	)

	PaymentOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_payment_operations_total",
			Help: "Total number of payment operations",
		},
		[]string{"operation"},
	)

	AttendanceTransitionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_attendance_transitions_total",
			Help: "Attendance state machine transitions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	GatewayRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_gateway_requests_total",
			Help: "Generic model gateway requests by model and verb",
		},
		[]string{"model", "verb"},
	)

	OdooOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_odoo_operations_total",
			Help: "Odoo import/export operations by direction and outcome",
		},
		[]string{"operation", "outcome"},
	)

	MailFailuresCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "erp_mail_failures_total",
			Help: "Emails that could not be delivered",
		},
	)

	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erp_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthError increments the authentication error counter
func RecordAuthError(errorType string) {
	AuthErrorCounter.WithLabelValues(errorType).Inc()
}

// RecordPaymentOperation increments the counter for payment operations
func RecordPaymentOperation(operation string) {
	PaymentOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordAttendance records a check-in/check-out attempt
func RecordAttendance(action, outcome string) {
	AttendanceTransitionsCounter.WithLabelValues(action, outcome).Inc()
}

// RecordGatewayRequest records a generic gateway call
func RecordGatewayRequest(model, verb string) {
	GatewayRequestsCounter.WithLabelValues(model, verb).Inc()
}

// RecordOdooOperation records an Odoo import/export
func RecordOdooOperation(operation, outcome string) {
	OdooOperationsCounter.WithLabelValues(operation, outcome).Inc()
}
