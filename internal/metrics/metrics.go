// Package metrics provides Prometheus instrumentation for the BlockID trust engine.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockid",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blockid",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ScoresComputedTotal counts trust score computations by risk level.
	ScoresComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockid",
			Name:      "scores_computed_total",
			Help:      "Total trust scores computed by resulting risk level.",
		},
		[]string{"risk_level"},
	)

	// ReasonAnomaliesTotal counts reasons that arrived without a weight.
	ReasonAnomaliesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockid",
		Name:      "reason_anomalies_total",
		Help:      "Total scoring reasons skipped for missing weights.",
	})

	// SnapshotsPersistedTotal counts rolling-stats snapshots written.
	SnapshotsPersistedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockid",
		Name:      "snapshots_persisted_total",
		Help:      "Total rolling statistics snapshots persisted.",
	})

	// BehavioralShiftsTotal counts trend cycles that flagged a shift.
	BehavioralShiftsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockid",
		Name:      "behavioral_shifts_total",
		Help:      "Total trend evaluations that detected a behavioral shift.",
	})

	// AccountsEncodedTotal counts on-chain account updates published.
	AccountsEncodedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockid",
		Name:      "accounts_encoded_total",
		Help:      "Total trust score account updates encoded and published.",
	})

	// AccountDecodeFailuresTotal counts account payloads that failed to parse.
	AccountDecodeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blockid",
		Name:      "account_decode_failures_total",
		Help:      "Total on-chain account payloads rejected by the decoder.",
	})

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blockid",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blockid", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blockid", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blockid", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blockid", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blockid", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "blockid", Name: "goroutines",
		Help: "Current number of goroutines.",
	})

	// ScoreComputeDuration observes end-to-end score pipeline latency.
	ScoreComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "blockid",
		Name:      "score_compute_duration_seconds",
		Help:      "Time to run the full score pipeline for one wallet.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ScoresComputedTotal,
		ReasonAnomaliesTotal,
		SnapshotsPersistedTotal,
		BehavioralShiftsTotal,
		AccountsEncodedTotal,
		AccountDecodeFailuresTotal,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
		ScoreComputeDuration,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
