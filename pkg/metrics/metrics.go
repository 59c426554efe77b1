// Package metrics provides Prometheus collectors for the stacking
// analysis pipeline: per-label classification counts, patch throughput,
// and classification latency distributions.
//
// Example:
//
//	timer := metrics.NewTimer()
//	classifyPatch(patch)
//	metrics.PatchLatency.Observe(float64(timer.Stop().Nanoseconds()))
//	metrics.AtomsClassified.WithLabelValues("AB").Add(42)
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AtomsClassified tracks the total number of target atoms classified,
	// labeled by the resolved stacking label.
	AtomsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackscan_atoms_classified_total",
			Help: "Total number of target atoms classified",
		},
		[]string{"label"},
	)

	// PatchesProcessed tracks the number of spatial patches completed.
	PatchesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stackscan_patches_processed_total",
			Help: "Total number of spatial patches processed",
		},
	)

	// PatchLatency tracks the distribution of per-patch classification
	// latencies in nanoseconds.
	PatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "stackscan_patch_latency_nanoseconds",
			Help: "Per-patch classification latency in nanoseconds",
			Buckets: []float64{
				1e4, // 10μs - near-empty patches
				1e5, // 100μs
				1e6, // 1ms
				1e7, // 10ms
				1e8, // 100ms - dense patches
				1e9, // 1s
				1e10,
			},
		},
	)

	// AtomsLoaded tracks the number of atoms loaded per run, labeled by
	// whether the atom is of the target species.
	AtomsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackscan_atoms_loaded_total",
			Help: "Total number of atoms loaded from input snapshots",
		},
		[]string{"role"},
	)
)

// Timer measures elapsed time for latency observations
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer started
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
