package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "weathervane"

var (
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Total notification deliveries by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "delivery_duration_seconds",
			Help:      "Time to deliver a notification",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)
)

// recordDelivery records one delivery attempt outcome.
func recordDelivery(channel, status string) {
	deliveriesTotal.WithLabelValues(channel, status).Inc()
}

// recordDeliveryDuration records how long a delivery took.
func recordDeliveryDuration(channel string, duration time.Duration) {
	deliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}
