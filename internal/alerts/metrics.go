package alerts

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weathervane"

var (
	filterCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "cycles_total",
			Help:      "Alert filter cycles, by status.",
		},
		[]string{"status"},
	)

	filterUsers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "users_total",
			Help:      "Users checked per alert cycle, by outcome.",
		},
		[]string{"status"},
	)

	alertsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "delivered_total",
			Help:      "Individual alerts delivered to users.",
		},
	)

	filterCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "cycle_duration_seconds",
			Help:      "Alert filter cycle duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

func recordCycle(status string, duration time.Duration) {
	filterCycles.WithLabelValues(status).Inc()
	filterCycleDuration.Observe(duration.Seconds())
}

func recordUser(status string) {
	filterUsers.WithLabelValues(status).Inc()
}

func recordDelivered(count int) {
	alertsDelivered.Add(float64(count))
}
