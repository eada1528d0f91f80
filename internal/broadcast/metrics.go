package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainindexer_broadcast_subscribers",
			Help: "Number of live subscriptions",
		},
	)

	eventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainindexer_broadcast_events_total",
			Help: "Total number of events published to live subscribers",
		},
	)

	evictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_broadcast_evictions_total",
			Help: "Total number of terminated subscriptions by reason",
		},
		[]string{"reason"},
	)

	sourceResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainindexer_broadcast_source_resets_total",
			Help: "Total number of times the live source was reopened",
		},
	)
)

func evictionInc(err error) {
	reason := "closed"
	switch err {
	case ErrOutOfCapacity:
		reason = "out_of_capacity"
	case ErrUnsubscribed:
		reason = "unsubscribed"
	case ErrSourceReset:
		reason = "source_reset"
	}
	evictions.WithLabelValues(reason).Inc()
}
