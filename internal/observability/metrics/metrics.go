package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connectcoach_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connectcoach_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "connectcoach_completion_duration_seconds",
		Help:    "Duration of completion provider calls",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"tool_type", "result"})

	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connectcoach_auth_events_total",
		Help: "Count of signup and login attempts by outcome",
	}, []string{"event", "result"})

	invitesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connectcoach_invites_created_total",
		Help: "Count of invite codes minted by admins",
	})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connectcoach_provider_breaker_state",
		Help: "Completion provider circuit breaker state (0 closed, 1 open, 2 half-open)",
	})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connectcoach_rate_limited_total",
		Help: "Count of requests rejected by a rate limiter",
	}, []string{"scope"})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "connectcoach_cache_evictions_total",
		Help: "Count of expired in-memory cache entries removed by the sweeper",
	})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connectcoach_cache_entries",
		Help: "Entries held by the in-memory cache after the last sweep",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveCompletion records the duration of one provider call
func ObserveCompletion(toolType, result string, duration time.Duration) {
	completionDuration.WithLabelValues(toolType, result).Observe(duration.Seconds())
}

// ObserveAuth counts a signup or login outcome
func ObserveAuth(event, result string) {
	authEvents.WithLabelValues(event, result).Inc()
}

func IncrementInvites() {
	invitesCreated.Inc()
}

// SetBreakerState publishes the provider breaker state
func SetBreakerState(state int) {
	breakerState.Set(float64(state))
}

func ObserveRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}

// ObserveCacheEvictions counts entries dropped by one sweep
func ObserveCacheEvictions(n int) {
	cacheEvictions.Add(float64(n))
}

// SetCacheEntries publishes the in-memory cache size
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}
