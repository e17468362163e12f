// Package apimetrics provides Prometheus instrumentation for MIMDB's REST
// facade: request counts, latency, and table size gauges. The pure
// domain calculations in pkg/metrics never import this package — these
// are metrics about the service, not metrics the service computes.
package apimetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts REST requests by route and outcome.
	// Labels: route (list_tables/create_table/load_csv/scan/metrics), status (ok/error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mimdb_requests_total",
			Help: "Total number of REST requests handled",
		},
		[]string{"route", "status"},
	)

	// RequestLatency tracks request handling latency in nanoseconds.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "mimdb_request_latency_nanoseconds",
			Help: "REST request latency in nanoseconds",
			Buckets: []float64{
				1e4, // 10μs
				1e5, // 100μs
				1e6, // 1ms
				1e7, // 10ms
				1e8, // 100ms
				1e9, // 1s
			},
		},
		[]string{"route"},
	)

	// TableRows tracks the row count of each loaded table.
	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mimdb_table_rows",
			Help: "Row count of a loaded table",
		},
		[]string{"table"},
	)

	// TablesLoaded tracks the number of tables currently registered.
	TablesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mimdb_tables_loaded",
			Help: "Number of tables currently registered in the metastore",
		},
	)

	// LoadThroughputRowsPerSecond tracks the most recent CSV bulk-load
	// throughput for each table, as measured by a ThroughputTracker.
	LoadThroughputRowsPerSecond = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mimdb_load_throughput_rows_per_second",
			Help: "Rows ingested per second by the most recent CSV bulk load",
		},
		[]string{"table"},
	)
)

// Timer measures elapsed handling time for one route and reports it to
// RequestLatency and RequestsTotal when stopped.
type Timer struct {
	start time.Time
	route string
}

// NewTimer starts timing a request to route.
func NewTimer(route string) *Timer {
	return &Timer{start: time.Now(), route: route}
}

// Stop records the elapsed duration and the request's outcome.
func (t *Timer) Stop(ok bool) time.Duration {
	d := time.Since(t.start)
	RequestLatency.WithLabelValues(t.route).Observe(float64(d.Nanoseconds()))
	status := "ok"
	if !ok {
		status = "error"
	}
	RequestsTotal.WithLabelValues(t.route, status).Inc()
	return d
}

// ThroughputTracker tracks rows ingested per second across CSV bulk
// loads. Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	table     string
}

// NewThroughputTracker creates a tracker for bulk loads into table.
func NewThroughputTracker(table string) *ThroughputTracker {
	return &ThroughputTracker{lastReset: time.Now(), table: table}
}

// Increment adds n to the row count processed since the last reset.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset returns rows/second since the last reset and starts a new
// window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}
	throughput := float64(t.count) / elapsed
	t.count = 0
	t.lastReset = time.Now()
	return throughput
}
