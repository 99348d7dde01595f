// Package metrics provides Prometheus metrics for the filesmanager server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesmanager_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filesmanager_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	uploadedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filesmanager_uploaded_bytes_total",
			Help: "Total bytes accepted by the upload endpoint",
		},
	)

	// Reconciliation metrics
	syncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filesmanager_sync_duration_seconds",
			Help:    "Duration of a reconciliation pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	syncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesmanager_syncs_total",
			Help: "Total reconciliation passes",
		},
		[]string{"status"},
	)

	syncChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesmanager_sync_changes_total",
			Help: "Index rows changed by reconciliation",
		},
		[]string{"change"},
	)

	// Object store metrics
	storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filesmanager_store_operation_duration_seconds",
			Help:    "Object store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesmanager_store_operations_total",
			Help: "Total object store operations",
		},
		[]string{"backend", "operation", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpload adds n bytes to the upload counter.
func RecordUpload(n int64) {
	if n > 0 {
		uploadedBytes.Add(float64(n))
	}
}

// RecordSync records one reconciliation pass.
func RecordSync(duration time.Duration, added, updated, removed int, success bool) {
	syncDuration.Observe(duration.Seconds())
	syncsTotal.WithLabelValues(status(success)).Inc()
	if !success {
		return
	}
	syncChanges.WithLabelValues("added").Add(float64(added))
	syncChanges.WithLabelValues("updated").Add(float64(updated))
	syncChanges.WithLabelValues("removed").Add(float64(removed))
}

// RecordStoreOperation records an object store call for the given backend.
func RecordStoreOperation(backend, operation string, duration time.Duration, success bool) {
	storeOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	storeOperationsTotal.WithLabelValues(backend, operation, status(success)).Inc()
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}

		RecordHTTPRequest(r.Method, route, code, time.Since(start))
	})
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
