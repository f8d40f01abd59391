package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	serviceLabels  = []string{"service", "status"}
	upstreamLabels = []string{"target", "outcome"}

	// ServiceRequestsTotal counts proxy requests by service discriminator and HTTP status class.
	ServiceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_gateway_service_requests_total",
			Help: "Total number of proxy requests, labeled by service and status class.",
		},
		serviceLabels,
	)

	// ServiceRequestDurationSeconds observes the time spent handling one proxy request.
	ServiceRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_gateway_service_request_duration_seconds",
			Help:    "Histogram of proxy request durations by service.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"service"},
	)

	// UpstreamRequestsTotal counts outbound relay calls.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_gateway_upstream_requests_total",
			Help: "Total number of outbound relay requests, labeled by target and outcome.",
		},
		upstreamLabels,
	)

	UpstreamRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_gateway_upstream_request_duration_seconds",
			Help:    "Histogram of outbound relay request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_gateway_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"operation", "entity", "status"},
	)

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lead_gateway_rate_limited_total",
		Help: "Total number of requests rejected by the per-client rate limiter.",
	})

	DuplicateSubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lead_gateway_duplicate_submissions_total",
		Help: "Total number of onboarding submissions resolved to an existing row by submission id.",
	})

	CacheChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_gateway_cache_checks_total",
			Help: "Total number of bloom cache lookups, labeled by cache and result.",
		},
		[]string{"cache", "result"},
	)
)

// Conversion worker metrics
var (
	conversionTasksSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conversion_tasks_submitted_total",
		Help: "Total number of conversion tasks submitted to the worker pool.",
	})
	conversionTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversion_tasks_processed_total",
			Help: "Total number of conversion tasks processed, labeled by status.",
		},
		[]string{"status"},
	)
	conversionProcessingDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conversion_processing_duration_seconds",
		Help:    "Histogram of conversion task processing durations.",
		Buckets: prometheus.DefBuckets,
	})
	conversionQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conversion_queue_length",
		Help: "Current number of conversion tasks waiting for a worker.",
	})
)

// Load generator metrics
var (
	loadgenRequestsAttemptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadgen_requests_attempted_total",
			Help: "Total number of requests the load generator attempted.",
		},
		[]string{"service"},
	)
	loadgenRequestsSucceededTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadgen_requests_succeeded_total",
			Help: "Total number of load generator requests answered with success.",
		},
		[]string{"service"},
	)
	loadgenRequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadgen_request_errors_total",
			Help: "Total number of load generator requests that failed, labeled by error kind.",
		},
		[]string{"service", "kind"},
	)
)

// InitMetrics toggles metric collection. Metrics are registered by promauto at
// package init; when disabled the helpers become no-ops.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// Enabled reports whether metric collection is on.
func Enabled() bool {
	return metricsEnabled
}

// StatusClass folds an HTTP status code into a low-cardinality label.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// ObserveServiceRequest records one handled proxy request.
func ObserveServiceRequest(service string, statusCode int, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	service = sanitizeLabel(service)
	ServiceRequestsTotal.WithLabelValues(service, StatusClass(statusCode)).Inc()
	ServiceRequestDurationSeconds.WithLabelValues(service).Observe(duration.Seconds())
}

// ObserveUpstreamRequest records one outbound relay call. A nil err with a
// status code records the status class, otherwise "transport_error".
func ObserveUpstreamRequest(target string, statusCode int, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	outcome := StatusClass(statusCode)
	if err != nil {
		outcome = "transport_error"
	}
	UpstreamRequestsTotal.WithLabelValues(target, outcome).Inc()
	UpstreamRequestDurationSeconds.WithLabelValues(target).Observe(duration.Seconds())
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(duration.Seconds())
}

// IncRateLimited increments the rate limiter rejection counter.
func IncRateLimited() {
	if !metricsEnabled {
		return
	}
	RateLimitedTotal.Inc()
}

// IncDuplicateSubmission counts an onboarding insert that resolved to an existing row.
func IncDuplicateSubmission() {
	if !metricsEnabled {
		return
	}
	DuplicateSubmissionsTotal.Inc()
}

// IncCacheCheck counts one bloom cache lookup.
func IncCacheCheck(cache, result string) {
	if !metricsEnabled {
		return
	}
	CacheChecksTotal.WithLabelValues(cache, result).Inc()
}

// --- Conversion Worker Metric Helpers ---

// IncConversionTasksSubmitted increments the counter for submitted conversion tasks.
func IncConversionTasksSubmitted() {
	if !metricsEnabled {
		return
	}
	conversionTasksSubmittedTotal.Inc()
}

// IncConversionTasksProcessed increments the counter for processed conversion tasks by status.
func IncConversionTasksProcessed(status string) {
	if !metricsEnabled {
		return
	}
	conversionTasksProcessedTotal.WithLabelValues(status).Inc()
}

// ObserveConversionProcessingDuration records the processing time for a conversion task.
func ObserveConversionProcessingDuration(duration time.Duration) {
	if !metricsEnabled {
		return
	}
	conversionProcessingDurationSeconds.Observe(duration.Seconds())
}

// SetConversionQueueLength sets the current conversion queue length.
func SetConversionQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	conversionQueueLength.Set(float64(length))
}

// --- Load Generator Metric Helpers ---

func IncLoadgenRequestsAttempted(service string) {
	if !metricsEnabled {
		return
	}
	loadgenRequestsAttemptedTotal.WithLabelValues(sanitizeLabel(service)).Inc()
}

func IncLoadgenRequestsSucceeded(service string) {
	if !metricsEnabled {
		return
	}
	loadgenRequestsSucceededTotal.WithLabelValues(sanitizeLabel(service)).Inc()
}

func IncLoadgenRequestErrors(service, kind string) {
	if !metricsEnabled {
		return
	}
	loadgenRequestErrorsTotal.WithLabelValues(sanitizeLabel(service), sanitizeLabel(kind)).Inc()
}

// sanitizeLabel ensures the label is non-empty and bounded.
func sanitizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	if len(v) > 64 {
		return v[:64]
	}
	return v
}

// SanitizeErrorType maps specific errors or provides a default category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(lower, "database"), strings.Contains(lower, "sql"), strings.Contains(lower, "duplicate key"), strings.Contains(lower, "constraint"):
		return "database"
	case strings.Contains(lower, "validation failed"), strings.Contains(lower, "bad request"), strings.Contains(lower, "invalid"):
		return "validation"
	case strings.Contains(lower, "not found"), strings.Contains(lower, "no rows"):
		return "not_found"
	case strings.Contains(lower, "upstream"), strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "upstream"
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return "timeout"
	case strings.Contains(lower, "unmarshal"), strings.Contains(lower, "json"):
		return "unmarshal"
	case strings.Contains(lower, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
