package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/restaurant-console/internal/metrics"
)

func TestObserveRequest_StatusClasses(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveRequest("GET", 200, time.Millisecond)
	m.ObserveRequest("GET", 204, time.Millisecond)
	m.ObserveRequest("POST", 401, time.Millisecond)
	m.ObserveRequest("POST", 0, time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "2xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.APIRequests.WithLabelValues("POST", "4xx")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.APIRequests.WithLabelValues("POST", "error")))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveRequest("GET", 200, time.Millisecond)
		m.SessionTransition("ready")
		m.RefreshResult("ok")
		m.HydrationResult("failed")
		m.GuardDecision("deny")
	})
}
