package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordDBPoolMetrics snapshots the pgx pool state into the
// DBPoolConnections gauge. Called periodically by the app.
func RecordDBPoolMetrics(pool *pgxpool.Pool) {
	s := pool.Stat()

	set := DBPoolConnections.WithLabelValues
	set("in_use").Set(float64(s.AcquiredConns()))
	set("idle").Set(float64(s.IdleConns()))
	set("constructing").Set(float64(s.ConstructingConns()))
	set("max").Set(float64(s.MaxConns()))
}
