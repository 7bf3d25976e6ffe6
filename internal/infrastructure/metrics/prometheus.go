package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the listing repricer
var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repricer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repricer_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Cache Metrics
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"cache", "operation", "result"}, // operation: get/set/delete, result: hit/miss/expired/success
	)

	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_cache_evictions_total",
			Help: "Total number of cache entries removed before being read",
		},
		[]string{"cache", "reason"}, // reason: expired/capacity
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repricer_cache_keys",
			Help: "Number of keys currently in cache",
		},
		[]string{"cache"},
	)

	// External API Metrics
	ExternalAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_external_api_requests_total",
			Help: "Total number of external API requests",
		},
		[]string{"service", "endpoint", "status_code"},
	)

	ExternalAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repricer_external_api_request_duration_seconds",
			Help:    "External API request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 15.0},
		},
		[]string{"service", "endpoint"},
	)

	ExternalAPIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_external_api_retries_total",
			Help: "Total number of external API retry attempts",
		},
		[]string{"service", "endpoint", "attempt"},
	)

	ExternalRateLimitDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_external_rate_limit_drops_total",
			Help: "Number of requests rejected by an upstream with 429",
		},
		[]string{"service"},
	)

	// Exchange rate metrics
	RateResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_rate_resolutions_total",
			Help: "Exchange rate lookups by resolving tier",
		},
		[]string{"currency", "source"}, // source: cache/primary/secondary/stale-cache/constant/base
	)

	FallbackActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_rate_fallback_activations_total",
			Help: "Total number of times a rate was served by a non-primary tier",
		},
		[]string{"reason", "currency"},
	)

	CurrentRates = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repricer_current_rates",
			Help: "Current units of currency per USD",
		},
		[]string{"currency"},
	)

	// Catalog metrics
	CatalogLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_catalog_lookups_total",
			Help: "Catalog price lookups by item kind and result",
		},
		[]string{"kind", "result"}, // result: hit/fetched/absent/invalid
	)

	// Scheduler metrics
	RepriceOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_reprice_outcomes_total",
			Help: "Listing reprice attempts by outcome",
		},
		[]string{"outcome"},
	)

	SchedulerCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "repricer_scheduler_cycle_duration_seconds",
			Help:    "Duration of a full scheduler tick",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	SchedulerCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_scheduler_cycles_total",
			Help: "Total number of scheduler ticks",
		},
		[]string{"result"}, // result: completed/panic
	)

	ListingsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repricer_listings",
			Help: "Number of tracked listings",
		},
		[]string{"state"}, // state: total/active/with_prices
	)

	// Persistence and events
	PersistenceOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_persistence_operations_total",
			Help: "State persistence operations",
		},
		[]string{"backend", "operation", "result"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_events_published_total",
			Help: "Reprice events published per sink",
		},
		[]string{"sink", "result"}, // result: success/error/dropped
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repricer_websocket_clients",
			Help: "Connected event stream clients",
		},
	)

	// Rate Limiting Metrics
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repricer_rate_limit_requests_total",
			Help: "Total number of requests processed by rate limiter",
		},
		[]string{"result"}, // result: allowed/blocked
	)

	RateLimitTokensRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repricer_rate_limit_tokens_remaining",
			Help: "Number of tokens remaining in rate limiter buckets",
		},
		[]string{"client_id"},
	)

	// Application Metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repricer_application_info",
			Help: "Application information",
		},
		[]string{"version", "build_time", "go_version"},
	)

	UptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repricer_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// Helper functions for common metric operations

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)

	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(cache, operation, result string) {
	CacheOperationsTotal.WithLabelValues(cache, operation, result).Inc()
}

// RecordCacheEviction records an entry dropped by expiry or capacity
func RecordCacheEviction(cache, reason string) {
	CacheEvictionsTotal.WithLabelValues(cache, reason).Inc()
}

// UpdateCacheKeys updates the cache size gauge
func UpdateCacheKeys(cache string, size int) {
	CacheKeys.WithLabelValues(cache).Set(float64(size))
}

// RecordExternalAPICall records external API call metrics
func RecordExternalAPICall(service, endpoint string, statusCode int, duration float64) {
	ExternalAPIRequestsTotal.WithLabelValues(service, endpoint, strconv.Itoa(statusCode)).Inc()
	ExternalAPIRequestDuration.WithLabelValues(service, endpoint).Observe(duration)
}

// RecordExternalAPIRetry records external API retry attempts
func RecordExternalAPIRetry(service, endpoint string, attempt int) {
	ExternalAPIRetries.WithLabelValues(service, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordExternalRateLimitDrop records requests rejected upstream with 429
func RecordExternalRateLimitDrop(service string) {
	ExternalRateLimitDrops.WithLabelValues(service).Inc()
}

// RecordRateResolution records which tier resolved a rate
func RecordRateResolution(currency, source string) {
	RateResolutionsTotal.WithLabelValues(currency, source).Inc()
}

// RecordFallbackActivation records when a rate falls past the primary source
func RecordFallbackActivation(reason, currency string) {
	FallbackActivationsTotal.WithLabelValues(reason, currency).Inc()
}

// UpdateCurrentRate updates the current rate gauge
func UpdateCurrentRate(currency string, rate float64) {
	CurrentRates.WithLabelValues(currency).Set(rate)
}

// RecordCatalogLookup records catalog price lookups
func RecordCatalogLookup(kind, result string) {
	CatalogLookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordRepriceOutcome records a processed listing
func RecordRepriceOutcome(outcome string) {
	RepriceOutcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordSchedulerCycle records a finished scheduler tick
func RecordSchedulerCycle(result string, duration float64) {
	SchedulerCyclesTotal.WithLabelValues(result).Inc()
	SchedulerCycleDuration.Observe(duration)
}

// UpdateListingCounts updates listing gauges
func UpdateListingCounts(total, active, withPrices int) {
	ListingsGauge.WithLabelValues("total").Set(float64(total))
	ListingsGauge.WithLabelValues("active").Set(float64(active))
	ListingsGauge.WithLabelValues("with_prices").Set(float64(withPrices))
}

// RecordPersistenceOperation records load/save results per backend
func RecordPersistenceOperation(backend, operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PersistenceOperationsTotal.WithLabelValues(backend, operation, result).Inc()
}

// RecordEventPublished records the result of publishing an event to a sink
func RecordEventPublished(sink, result string) {
	EventsPublishedTotal.WithLabelValues(sink, result).Inc()
}

// SetWebSocketClients updates connected stream clients
func SetWebSocketClients(n int) {
	WebSocketClients.Set(float64(n))
}

// RecordRateLimitResult records rate limiting results
func RecordRateLimitResult(allowed bool) {
	result := "blocked"
	if allowed {
		result = "allowed"
	}
	RateLimitRequestsTotal.WithLabelValues(result).Inc()
}

// UpdateRateLimitTokens updates remaining tokens gauge
func UpdateRateLimitTokens(clientID string, tokens float64) {
	RateLimitTokensRemaining.WithLabelValues(clientID).Set(tokens)
}

// SetApplicationInfo sets application information
func SetApplicationInfo(version, buildTime, goVersion string) {
	ApplicationInfo.WithLabelValues(version, buildTime, goVersion).Set(1)
}

// UpdateUptime updates application uptime
func UpdateUptime(seconds float64) {
	UptimeSeconds.Set(seconds)
}
