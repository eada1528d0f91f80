package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch metrics
	CursorSlot = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainindexer_index_cursor_slot",
			Help: "Slot of the cursor of each managed index",
		},
		[]string{"index"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_index_events_total",
			Help: "Total number of events handled by each managed index by outcome",
		},
		[]string{"index", "outcome"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainindexer_index_handler_duration_seconds",
			Help:    "Duration of managed index handler calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"index", "handler"},
	)

	IndexStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainindexer_index_status",
			Help: "Lifecycle status of each managed index (1 for the current status)",
		},
		[]string{"index", "status"},
	)

	Regressions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_index_regressions_total",
			Help: "Total number of demotions from the live tail back to backfill",
		},
		[]string{"index", "reason"},
	)

	CursorSaveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_index_cursor_save_failures_total",
			Help: "Total number of failed cursor store writes",
		},
		[]string{"index"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_index_upstream_retries_total",
			Help: "Total number of times a dispatch loop backed off because the upstream was unavailable",
		},
		[]string{"index"},
	)

	IndexFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_index_failures_total",
			Help: "Total number of managed indexes moved to failed by reason",
		},
		[]string{"index", "reason"},
	)

	// System metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainindexer_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainindexer_component_health",
			Help: "Component health status (1=healthy, 0=unhealthy)",
		},
		[]string{"component"},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainindexer_goroutines",
			Help: "Number of active goroutines",
		},
	)

	MemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainindexer_memory_usage_bytes",
			Help: "Memory usage statistics",
		},
		[]string{"type"},
	)

	startTime = time.Now()
)

func CursorSlotSet(index string, slot uint64) {
	CursorSlot.WithLabelValues(index).Set(float64(slot))
}

func EventHandledInc(index, outcome string) {
	EventsHandled.WithLabelValues(index, outcome).Inc()
}

func HandlerDurationLog(index, handler string, duration time.Duration) {
	HandlerDuration.WithLabelValues(index, handler).Observe(duration.Seconds())
}

// IndexStatusSet marks status as the current status of index among all statuses.
func IndexStatusSet(index, status string, all []string) {
	for _, s := range all {
		value := float64(0)
		if s == status {
			value = 1
		}
		IndexStatus.WithLabelValues(index, s).Set(value)
	}
}

func RegressionInc(index, reason string) {
	Regressions.WithLabelValues(index, reason).Inc()
}

func CursorSaveFailureInc(index string) {
	CursorSaveFailures.WithLabelValues(index).Inc()
}

func UpstreamRetryInc(index string) {
	UpstreamRetries.WithLabelValues(index).Inc()
}

func IndexFailureInc(index, reason string) {
	IndexFailures.WithLabelValues(index, reason).Inc()
}

func ComponentHealthSet(component string, healthy bool) {
	boolAsFloat := float64(1)
	if !healthy {
		boolAsFloat = 0
	}

	ComponentHealth.WithLabelValues(component).Set(boolAsFloat)
}

// UpdateSystemMetrics updates runtime system metrics.
// This should be called periodically (e.g., every 15 seconds).
func UpdateSystemMetrics() {
	Uptime.Set(time.Since(startTime).Seconds())
	Goroutines.Set(float64(runtime.NumGoroutine()))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	MemoryUsage.WithLabelValues("alloc").Set(float64(m.Alloc))
	MemoryUsage.WithLabelValues("total_alloc").Set(float64(m.TotalAlloc))
	MemoryUsage.WithLabelValues("sys").Set(float64(m.Sys))
	MemoryUsage.WithLabelValues("heap_inuse").Set(float64(m.HeapInuse))
}
