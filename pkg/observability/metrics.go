package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for sign-in activity.
// All recorders are safe to call on a nil *Metrics.
type Metrics struct {
	AuthOperationsTotal   *prometheus.CounterVec
	AuthOperationDuration *prometheus.HistogramVec
	SessionRequestsTotal  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registerer
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signon_auth_operations_total",
				Help: "Total number of authentication operations",
			},
			[]string{"operation", "strategy", "result"},
		),
		AuthOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signon_auth_operation_duration_seconds",
				Help:    "Authentication operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "strategy"},
		),
		SessionRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signon_session_requests_total",
				Help: "Total number of session backend requests",
			},
			[]string{"operation", "status"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.AuthOperationsTotal,
			m.AuthOperationDuration,
			m.SessionRequestsTotal,
		)
	}

	return m
}

// RecordAuthOperation records the outcome and latency of one facade operation
func (m *Metrics) RecordAuthOperation(operation, strategy string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.AuthOperationsTotal.WithLabelValues(operation, strategy, resultLabel(err)).Inc()
	m.AuthOperationDuration.WithLabelValues(operation, strategy).Observe(duration.Seconds())
}

// RecordSessionRequest records one session backend call. status is the HTTP
// status code as text, or "error" when no response was received.
func (m *Metrics) RecordSessionRequest(operation, status string) {
	if m == nil {
		return
	}
	m.SessionRequestsTotal.WithLabelValues(operation, status).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

// MetricsHandler serves the metrics gathered by gatherer in the Prometheus
// exposition format
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
