package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	maintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_maintenance_runs_total",
			Help: "Total number of maintenance operations",
		},
		[]string{"db"},
	)

	maintenanceOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_maintenance_outcomes_total",
			Help: "Total number of maintenance operations by outcome",
		},
		[]string{"db", "status"},
	)

	maintenanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainindexer_maintenance_duration_seconds",
			Help:    "Duration of maintenance operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"db"},
	)

	walCheckpoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_wal_checkpoint_total",
			Help: "Total number of WAL checkpoint operations",
		},
		[]string{"db", "mode"},
	)

	vacuumRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_vacuum_total",
			Help: "Total number of VACUUM operations",
		},
		[]string{"db"},
	)

	dbSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainindexer_db_size_bytes",
			Help: "Database file size in bytes, including WAL",
		},
		[]string{"db"},
	)
)

func maintenanceRunsInc(db string) {
	maintenanceRuns.WithLabelValues(db).Inc()
}

func maintenanceOutcomeInc(db, status string) {
	maintenanceOutcomes.WithLabelValues(db, status).Inc()
}

func maintenanceDurationLog(db string, duration time.Duration) {
	maintenanceDuration.WithLabelValues(db).Observe(duration.Seconds())
}

func walCheckpointInc(db, mode string) {
	walCheckpoints.WithLabelValues(db, mode).Inc()
}

func vacuumRunsInc(db string) {
	vacuumRuns.WithLabelValues(db).Inc()
}

func dbSizeLog(db string, sizeBytes int64) {
	dbSize.WithLabelValues(db).Set(float64(sizeBytes))
}
