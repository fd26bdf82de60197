package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "staffdir_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "staffdir_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "staffdir_load_duration_seconds",
		Help:    "Duration of directory loads from the backing store",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "result"})

	appendOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "staffdir_append_operations_total",
		Help: "Count of record appends by result",
	}, []string{"result"})

	droppedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "staffdir_dropped_rows_total",
		Help: "Rows dropped while loading, by reason",
	}, []string{"reason"})

	directorySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "staffdir_directory_records",
		Help: "Number of records in the loaded directory",
	})

	filterDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "staffdir_filter_duration_seconds",
		Help:    "Duration of filter evaluations",
		Buckets: []float64{.00001, .0001, .001, .01, .1},
	})

	viewCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "staffdir_view_cache_lookups_total",
		Help: "Filtered view cache lookups by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLoad records the duration of a load with its trigger and result.
func ObserveLoad(source, result string, duration time.Duration) {
	loadDuration.WithLabelValues(source, result).Observe(duration.Seconds())
}

// ObserveAppend increments the append counter for the given result.
func ObserveAppend(result string) {
	appendOperations.WithLabelValues(result).Inc()
}

// ObserveDroppedRows counts rows discarded during a load.
func ObserveDroppedRows(reason string, count int) {
	if count <= 0 {
		return
	}
	droppedRows.WithLabelValues(reason).Add(float64(count))
}

// SetDirectorySize sets the loaded record gauge.
func SetDirectorySize(count int) {
	if count < 0 {
		count = 0
	}
	directorySize.Set(float64(count))
}

// ObserveFilter records how long one filter evaluation took.
func ObserveFilter(duration time.Duration) {
	filterDuration.Observe(duration.Seconds())
}

// ObserveViewCache records a hit or miss of the filtered view cache.
func ObserveViewCache(hit bool) {
	if hit {
		viewCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	viewCacheLookups.WithLabelValues("miss").Inc()
}
