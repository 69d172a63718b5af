// Package metrics exposes the pipeline's Prometheus counters and
// histograms: samples accepted/rejected, shards rolled over, and batch
// commit latency, incremented alongside each driver commit (spec §9).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AcceptedSamples = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mm_ingest_accepted_samples_total",
		Help: "Total samples committed to the manifest store.",
	})

	RejectedSamples = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mm_ingest_rejected_samples_total",
		Help: "Total samples rejected by a filter, the codec, or adapter decode.",
	})

	ShardRollovers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mm_ingest_shard_rollovers_total",
		Help: "Total number of shard rollovers performed by the sink.",
	})

	BatchCommitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mm_ingest_batch_commit_seconds",
		Help:    "Wall time to run and commit one batch (filter + manifest + sink + checkpoint).",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(AcceptedSamples, RejectedSamples, ShardRollovers, BatchCommitSeconds)
}

// ObserveBatchDuration records how long a batch took to commit, called
// with time.Since(start) from the driver around commitBatch.
func ObserveBatchDuration(d time.Duration) {
	BatchCommitSeconds.Observe(d.Seconds())
}
