// Package metrics instruments the snapshot store's read path: segment/index
// opens, by-hash and by-ordinal lookups, MPH revalidation mismatches, and
// record-level decode failures. Carried forward from the teacher's
// pkg/metrics (broker.go counters + exporter.go's promhttp server) even
// though spec.md scopes metrics out of the core reader — the ambient
// exporter still belongs at the module's edge.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SegmentOpens = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_segment_opens_total",
		Help: "Total number of segment files mapped via reopen_segment",
	})

	IndexOpens = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_index_opens_total",
		Help: "Total number of index files successfully mapped via reopen_index",
	})

	IndexStaleRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_index_stale_rejections_total",
		Help: "Total number of index opens rejected because the index mtime was older than the segment mtime",
	})

	LookupsByHash = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_lookups_by_hash_total",
		Help: "Total number of by-hash MPH lookups across all typed readers",
	})

	LookupsByOrdinal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_lookups_by_ordinal_total",
		Help: "Total number of by-number/by-id ordinal lookups across all typed readers",
	})

	RevalidationMismatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_revalidation_mismatches_total",
		Help: "Total number of MPH lookups whose decoded record failed key revalidation (false positives caught)",
	})

	DecodeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_decode_failures_total",
		Help: "Total number of record-level decode failures (malformed RLP/word payload)",
	})
)

func init() {
	prometheus.MustRegister(
		SegmentOpens, IndexOpens, IndexStaleRejections,
		LookupsByHash, LookupsByOrdinal, RevalidationMismatches, DecodeFailures,
	)
}

// StartMetricsServer starts the /metrics Prometheus exporter in the
// background.
func StartMetricsServer(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			fmt.Printf("[METRICS] failed to start metrics server: %v\n", err)
		}
	}()
}
