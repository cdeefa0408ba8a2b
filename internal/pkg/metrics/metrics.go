// Package metrics registers the ledger's Prometheus collectors on the default
// registry and exposes small helpers so callers never touch label order.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eduserv/ledger/internal/pkg/apperrors"
)

var (
	paymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_payments_recorded_total",
		Help: "Payments appended to the log, by target kind",
	}, []string{"target"})

	paymentMinorUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_payment_minor_units_total",
		Help: "Sum of recorded payment amounts in minor units, by target kind",
	}, []string{"target"})

	expensesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_expenses_recorded_total",
		Help: "Expenses appended to the log",
	})

	studentsEnrolled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_students_enrolled_total",
		Help: "Students enrolled",
	})

	balanceDerivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_balance_derivations_total",
		Help: "Balances derived by replaying a payment log",
	})

	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operation_errors_total",
		Help: "Failed service operations, by operation and error kind",
	}, []string{"operation", "kind"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests served, by method, route and status",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "route"})

	viewPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_viewsync_polls_total",
		Help: "View refresh polls, by view and result",
	}, []string{"view", "result"})

	viewPollLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_viewsync_poll_duration_seconds",
		Help:    "Duration of view refresh polls",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"view"})
)

// PaymentRecorded counts one appended payment.
func PaymentRecorded(tuition bool, minor int64) {
	target := "fee"
	if tuition {
		target = "tuition"
	}
	paymentsRecorded.WithLabelValues(target).Inc()
	paymentMinorUnits.WithLabelValues(target).Add(float64(minor))
}

// ExpenseRecorded counts one appended expense.
func ExpenseRecorded() { expensesRecorded.Inc() }

// StudentEnrolled counts one enrollment.
func StudentEnrolled() { studentsEnrolled.Inc() }

// BalancesDerived counts n balance replays.
func BalancesDerived(n int) { balanceDerivations.Add(float64(n)) }

// OperationFailed counts a failed operation under its apperrors kind.
func OperationFailed(operation string, err error) {
	operationErrors.WithLabelValues(operation, apperrors.Kind(err)).Inc()
}

// HTTPRequest records one served request.
func HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ViewPolled records one view refresh.
func ViewPolled(view string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	viewPolls.WithLabelValues(view, result).Inc()
	viewPollLatency.WithLabelValues(view).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
