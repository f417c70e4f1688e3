// Package metrics exposes operation counters and latencies of the database
// service through a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder collects service metrics. A nil *Recorder records nothing.
type Recorder struct {
	reg *prometheus.Registry

	operations *prometheus.CounterVec   // "tabledb_operations_total"
	duration   *prometheus.HistogramVec // "tabledb_operation_duration_seconds"
	tables     prometheus.Gauge         // "tabledb_tables"
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabledb_operations_total",
			Help: "Total number of database operations, partitioned by operation and status.",
		},
		[]string{"operation", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tabledb_operation_duration_seconds",
			Help:    "Duration of database operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"operation"},
	)
	tables := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tabledb_tables",
		Help: "Number of tables in the active database.",
	})

	reg.MustRegister(operations, duration, tables)

	return &Recorder{
		reg:        reg,
		operations: operations,
		duration:   duration,
		tables:     tables,
	}
}

// Observe records one finished operation.
func (r *Recorder) Observe(operation, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetTables records the current table count.
func (r *Recorder) SetTables(n int) {
	if r == nil {
		return
	}
	r.tables.Set(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
