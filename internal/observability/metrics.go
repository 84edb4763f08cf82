package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Fetch failures by category. Watch for: invalid_api_key (config drift), upstream_5xx bursts.
	WeatherFetchErrorsTotal *prometheus.CounterVec

	// Snapshot cache hits. Hit rate = hits/(hits + weatherApiCallsTotal successes).
	CacheHitsTotal *prometheus.CounterVec

	// Total weather lookups. Watch for: traffic volume, rate() for QPS.
	WeatherQueriesTotal prometheus.Counter

	// Record store mutations by operation (create, update, delete). Watch for: delete spikes.
	RecordMutationsTotal *prometheus.CounterVec

	// Records currently held by the store. Watch for: approaching slot quota.
	RecordCount prometheus.Gauge

	// Store flush failures (quota or I/O). Any non-zero value needs attention.
	StoreFlushErrorsTotal prometheus.Counter

	// Exports produced by format.
	ExportsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherFetchErrorsTotal",
			Help: "Weather fetch failures by error category",
		},
		[]string{"category"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of snapshot cache hits",
		},
		[]string{"cacheType"},
	)
	WeatherQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherQueriesTotal",
			Help: "Total number of weather lookups",
		},
	)
	RecordMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordMutationsTotal",
			Help: "Record store mutations by operation",
		},
		[]string{"operation"},
	)
	RecordCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recordCount",
			Help: "Number of saved weather records currently in the store",
		},
	)
	StoreFlushErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storeFlushErrorsTotal",
			Help: "Failed flushes of the record store to its persisted slot",
		},
	)
	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportsTotal",
			Help: "Exports produced, by format",
		},
		[]string{"format"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherFetchErrorsTotal,
		CacheHitsTotal, WeatherQueriesTotal,
		RecordMutationsTotal, RecordCount, StoreFlushErrorsTotal, ExportsTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
