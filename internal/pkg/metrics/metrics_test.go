package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.ReservationsTotal)
	assert.NotNil(t, m.RateLimitedTotal)
	assert.NotNil(t, m.TxRetriesTotal)
}

func TestHTTPRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/reservations", "200").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/reservations", "201").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/reservations", "409").Inc()

	assert.Equal(t, 3, testutil.CollectAndCount(m.HTTPRequestsTotal))
}

func TestObserveReservation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ObserveReservation("create", "success")
	m.ObserveReservation("create", "success")
	m.ObserveReservation("create", "conflict")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ReservationsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReservationsTotal.WithLabelValues("create", "conflict")))
}

func TestObserve_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReservation("create", "success")
		m.ObserveRetry()
	})
}

func TestObserveRetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ObserveRetry()
	m.ObserveRetry()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.TxRetriesTotal))
}

func TestHTTPRequestDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestDuration.WithLabelValues("GET", "/v1/reservations").Observe(0.025)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "http_request_duration_seconds" {
			found = true
		}
	}
	assert.True(t, found, "http_request_duration_seconds metric not found")
}
