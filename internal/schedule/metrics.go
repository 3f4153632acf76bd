package schedule

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weathervane"

var (
	schedulerCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Completed scheduler poll cycles",
		},
		[]string{"status"},
	)

	schedulerSubscriptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "subscriptions_total",
			Help:      "Due subscriptions processed, by outcome",
		},
		[]string{"status"},
	)

	schedulerCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Time to process one poll cycle",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// recordCycle records the outcome of a poll cycle.
func recordCycle(status string, duration time.Duration) {
	schedulerCycles.WithLabelValues(status).Inc()
	schedulerCycleDuration.Observe(duration.Seconds())
}

// recordSubscription records the outcome of one due subscription.
func recordSubscription(status string) {
	schedulerSubscriptions.WithLabelValues(status).Inc()
}
