// Package observability holds prometheus collectors shared across the gateway.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	cacheOpTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Cache backend operations by op and status.",
		},
		[]string{"op", "status"},
	)

	cacheOpDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_op_duration_seconds",
			Help:    "Duration of cache backend operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	cacheResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	predictorOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictor_outcomes_total",
			Help: "Predictor invocations by domain and outcome.",
		},
		[]string{"domain", "outcome"},
	)

	gatewayResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_resolutions_total",
			Help: "Resolved requests by domain and answer source.",
		},
		[]string{"domain", "source"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	cacheOpTotal.WithLabelValues(op, status).Inc()
	cacheOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncCacheHit()  { cacheResultsTotal.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheResultsTotal.WithLabelValues("miss").Inc() }

func IncPredictorOutcome(domain, outcome string) {
	predictorOutcomesTotal.WithLabelValues(domain, outcome).Inc()
}

func IncResolution(domain, source string) {
	gatewayResolutionsTotal.WithLabelValues(domain, source).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
