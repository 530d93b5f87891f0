package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TokenRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stkrelay",
			Name:      "token_refreshes_total",
			Help:      "Client-credentials exchanges against the gateway token endpoint.",
		},
		[]string{"result"},
	)

	STKPushTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stkrelay",
			Name:      "stk_push_total",
			Help:      "Payment initiation attempts by outcome.",
		},
		[]string{"result"},
	)

	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stkrelay",
			Name:      "callbacks_total",
			Help:      "Gateway callbacks received by outcome.",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stkrelay",
			Name:      "http_request_duration_seconds",
			Help:      "Inbound HTTP request latency.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(TokenRefreshesTotal, STKPushTotal, CallbacksTotal, HTTPRequestDuration)
}

// ObserveTokenRefresh matches payment.TokenCache.OnRefresh.
func ObserveTokenRefresh(err error) {
	TokenRefreshesTotal.WithLabelValues(resultLabel(err)).Inc()
}

func IncSTKPush(result string) {
	STKPushTotal.WithLabelValues(result).Inc()
}

func IncCallback(result string) {
	CallbacksTotal.WithLabelValues(result).Inc()
}

func ObserveHTTP(method, route, status string, seconds float64) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
