// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the badge engine.
var (
	// Counters.
	UnlockPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_unlock_passes_total",
			Help: "Total unlock pass executions by outcome",
		},
		[]string{"status"},
	)

	BadgesUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_unlocked_total",
			Help: "Total number of badges unlocked",
		},
		[]string{"badge_name", "role"},
	)

	PrunedBadgeRefsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "badge_pruned_refs_total",
			Help: "Total dangling user badge references pruned",
		},
	)

	// Gauges.
	BadgeHolders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "badge_holders",
			Help: "Current number of users holding each badge",
		},
		[]string{"badge_name"},
	)

	// Histograms.
	UnlockPassDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "badge_unlock_pass_duration_seconds",
			Help:    "Time taken to execute one unlock pass",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
	)

	// Sweep job metrics.
	SweepJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badge_sweep_jobs_run_total",
			Help: "Total badge sweep job executions",
		},
		[]string{"status"},
	)

	SweepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "badge_sweep_duration_seconds",
			Help:    "Time taken to execute one full badge sweep",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~1024s
		},
	)
)

// RecordUnlockPass records an unlock pass execution by outcome
// (completed, suppressed, failed, not_found).
func RecordUnlockPass(status string) {
	UnlockPassesTotal.WithLabelValues(status).Inc()
}

// RecordBadgeUnlocked records a badge unlock event.
func RecordBadgeUnlocked(badgeName, role string) {
	BadgesUnlockedTotal.WithLabelValues(badgeName, role).Inc()
}

// RecordPrunedBadgeRefs records pruned dangling badge references.
func RecordPrunedBadgeRefs(count int) {
	PrunedBadgeRefsTotal.Add(float64(count))
}

// SetBadgeHolders sets the number of holders for a badge.
func SetBadgeHolders(badgeName string, count int) {
	BadgeHolders.WithLabelValues(badgeName).Set(float64(count))
}

// RecordSweepJobRun records a sweep job execution.
func RecordSweepJobRun(status string) {
	SweepJobsRunTotal.WithLabelValues(status).Inc()
}

// ObserveSweepDuration observes the duration of a sweep job.
func ObserveSweepDuration(seconds float64) {
	SweepDurationSeconds.Observe(seconds)
}

// ObserveUnlockPassDuration observes the duration of one unlock pass.
func ObserveUnlockPassDuration(seconds float64) {
	UnlockPassDurationSeconds.Observe(seconds)
}
