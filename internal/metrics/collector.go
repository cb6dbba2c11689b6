package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 Metrics Collector
// =============================================================================

// Collector registers and records all engine metrics.
type Collector struct {
	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Memory pipeline
	interactionsTotal    *prometheus.CounterVec
	analysisDuration     prometheus.Histogram
	topicsDetected       prometheus.Histogram
	personalityUpdates   *prometheus.CounterVec
	sessionMessagesTotal *prometheus.CounterVec
	sessionsActive       prometheus.Gauge

	// Document store
	documentReads  *prometheus.CounterVec
	documentWrites *prometheus.CounterVec
	documentIOTime *prometheus.HistogramVec

	// Cache
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Database
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec
	dbQueryDuration   *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a Collector registering under the given namespace.
// promauto panics on duplicate registration, so build one Collector per
// process (tests use distinct namespaces).
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.interactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Total number of recorded interactions",
		},
		[]string{"type"},
	)

	c.analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Text analysis duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	c.topicsDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_topics_detected",
			Help:      "Number of topics detected per analyzed message",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
	)

	c.personalityUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "personality_updates_total",
			Help:      "Total number of channel personality updates",
		},
		[]string{"source"}, // derived, manual, suggested
	)

	c.sessionMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_messages_total",
			Help:      "Total number of messages appended to sessions",
		},
		[]string{"role"},
	)

	c.sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently on disk",
		},
	)

	c.documentReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_reads_total",
			Help:      "Total number of entity document reads",
		},
		[]string{"kind", "status"},
	)

	c.documentWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_writes_total",
			Help:      "Total number of entity document writes",
		},
		[]string{"kind", "status"},
	)

	c.documentIOTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_io_duration_seconds",
			Help:      "Entity document IO duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 Recorders
// =============================================================================

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordInteraction counts a recorded interaction by type.
func (c *Collector) RecordInteraction(interactionType string) {
	c.interactionsTotal.WithLabelValues(interactionType).Inc()
}

// RecordAnalysis records one pass of the text analyzer.
func (c *Collector) RecordAnalysis(duration time.Duration, topicCount int) {
	c.analysisDuration.Observe(duration.Seconds())
	c.topicsDetected.Observe(float64(topicCount))
}

// RecordPersonalityUpdate counts a channel personality change by source.
func (c *Collector) RecordPersonalityUpdate(source string) {
	c.personalityUpdates.WithLabelValues(source).Inc()
}

// RecordSessionMessage counts one message appended to a session.
func (c *Collector) RecordSessionMessage(role string) {
	c.sessionMessagesTotal.WithLabelValues(role).Inc()
}

// SetActiveSessions publishes the current session count.
func (c *Collector) SetActiveSessions(n int) {
	c.sessionsActive.Set(float64(n))
}

// RecordDocumentRead counts one document read. status is "ok", "miss" or "error".
func (c *Collector) RecordDocumentRead(kind, status string, duration time.Duration) {
	c.documentReads.WithLabelValues(kind, status).Inc()
	c.documentIOTime.WithLabelValues("read").Observe(duration.Seconds())
}

// RecordDocumentWrite counts one document write. status is "ok" or "error".
func (c *Collector) RecordDocumentWrite(kind, status string, duration time.Duration) {
	c.documentWrites.WithLabelValues(kind, status).Inc()
	c.documentIOTime.WithLabelValues("write").Observe(duration.Seconds())
}

// RecordCacheHit counts a cache hit.
func (c *Collector) RecordCacheHit(cacheType string) {
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss counts a cache miss.
func (c *Collector) RecordCacheMiss(cacheType string) {
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordDBConnections publishes pool gauges.
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// RecordDBQuery records a query duration.
func (c *Collector) RecordDBQuery(database, operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
