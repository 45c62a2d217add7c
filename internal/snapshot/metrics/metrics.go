// Package metrics exposes snapshot ledger counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SnapshotsCaptured prometheus.Counter
	BatchesProcessed  prometheus.Counter
	FullPasses        prometheus.Counter
	ArchiveErrors     prometheus.Counter
}

// New registers all snapshot metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		SnapshotsCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_snapshots_captured_total",
			Help: "Total number of snapshots appended to the ledger",
		}),
		BatchesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_snapshot_batches_total",
			Help: "Total number of capture batches processed",
		}),
		FullPasses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_snapshot_full_passes_total",
			Help: "Total number of completed capture passes over the registry",
		}),
		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_snapshot_archive_errors_total",
			Help: "Total number of failed writes to the snapshot archive",
		}),
	}
}
