package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter mirrors a Collector's counters as Prometheus gauges and
// counters, labeled by session id. It is a separate, optional consumer of
// Collector.Snapshot rather than a replacement for it: Collector stays the
// single source of truth, and PrometheusExporter only republishes it.
type PrometheusExporter struct {
	borrowFailures *prometheus.CounterVec
	flushResults   *prometheus.CounterVec
	retentionDrops *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
}

// NewPrometheusExporter registers the runtime's metric families with the
// default Prometheus registry.
func NewPrometheusExporter() *PrometheusExporter {
	return &PrometheusExporter{
		borrowFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracecore_pool_borrow_failures_total",
				Help: "Buffer slice pool borrow failures by kind.",
			},
			[]string{"session_id", "kind"}, // kind: no_slices_available, cas_exhausted
		),
		flushResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracecore_flush_results_total",
				Help: "Flush queue write outcomes.",
			},
			[]string{"session_id", "result"}, // result: success, failure
		),
		retentionDrops: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tracecore_retention_drops_total",
				Help: "Records dropped for aging past the retention window unflushed.",
			},
			[]string{"session_id"},
		),
		queueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tracecore_flush_queue_depth",
				Help: "Number of records enqueued for flushing since the collector was created; not decremented when records are written or dropped.",
			},
			[]string{"session_id"},
		),
	}
}

// Export republishes snap's counters under snap.SessionID's label.
func (e *PrometheusExporter) Export(snap Snapshot) {
	e.borrowFailures.WithLabelValues(snap.SessionID, "no_slices_available").Add(float64(snap.BorrowNoSlicesAvailable))
	e.borrowFailures.WithLabelValues(snap.SessionID, "cas_exhausted").Add(float64(snap.BorrowCASExhausted))
	e.flushResults.WithLabelValues(snap.SessionID, "success").Add(float64(snap.FlushSuccess))
	e.flushResults.WithLabelValues(snap.SessionID, "failure").Add(float64(snap.FlushFailure))
	e.retentionDrops.WithLabelValues(snap.SessionID).Add(float64(snap.RetentionDrops))
	e.queueDepth.WithLabelValues(snap.SessionID).Set(float64(snap.QueueDepth))
}
