package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	// HTTP requests by method, route and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP latency by method and route.
	HTTPRequestDuration *prometheus.HistogramVec

	// Reservation writes by operation (create, update, delete) and outcome
	// (success, conflict, invalid, not_found, error).
	ReservationsTotal *prometheus.CounterVec

	// Requests rejected by the rate limiter.
	RateLimitedTotal prometheus.Counter

	// Transaction retries after a transient storage error.
	TxRetriesTotal prometheus.Counter
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of reservation write attempts",
			},
			[]string{"operation", "outcome"},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rate_limited_requests_total",
				Help: "Requests rejected by the rate limiter",
			},
		),
		TxRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "db_tx_retries_total",
				Help: "Transactions retried after a transient storage error",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.RateLimitedTotal,
		m.TxRetriesTotal,
	)

	return m
}

// ObserveReservation records the outcome of a reservation write. Safe on a nil receiver.
func (m *Metrics) ObserveReservation(operation, outcome string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveRetry counts one transaction retry. Safe on a nil receiver.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.TxRetriesTotal.Inc()
}
