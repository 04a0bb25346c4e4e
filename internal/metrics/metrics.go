// Package metrics holds the Prometheus instruments of the console.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "restaurant_console"

// Metrics holds all Prometheus metrics for the console.
// Pass to components that need to record metrics. A nil *Metrics records
// nothing.
type Metrics struct {
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	SessionTransitions *prometheus.CounterVec
	Refreshes          *prometheus.CounterVec
	Hydrations         *prometheus.CounterVec
	GuardDecisions     *prometheus.CounterVec
}

// New creates and registers all metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		APIRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of requests sent to the restaurant API",
			},
			[]string{"method", "code"}, // code=2xx/4xx/5xx/error
		),
		APIRequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "Restaurant API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		SessionTransitions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_transitions_total",
				Help:      "Session status changes by resulting status",
			},
			[]string{"status"},
		),
		Refreshes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Access token refresh attempts by result",
			},
			[]string{"result"}, // result=ok/failed/no_refresh_token
		),
		Hydrations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "profile_hydrations_total",
				Help:      "Profile fetches for held tokens by result",
			},
			[]string{"result"}, // result=ok/failed
		),
		GuardDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Access guard decisions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRequest records one API call. status 0 means no response was received.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(method, statusClass(status)).Inc()
	m.APIRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) SessionTransition(status string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) RefreshResult(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) HydrationResult(result string) {
	if m == nil {
		return
	}
	m.Hydrations.WithLabelValues(result).Inc()
}

func (m *Metrics) GuardDecision(outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(outcome).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
