package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	feedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_feed_messages_total",
			Help: "Total number of messages received from the node bridge by outcome",
		},
		[]string{"outcome"},
	)

	feedReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainindexer_feed_reconnects_total",
			Help: "Total number of reconnects to the node bridge",
		},
	)

	feedConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainindexer_feed_connected",
			Help: "Whether the feed is connected to the node bridge (1) or not (0)",
		},
	)
)

func messageInc(outcome string) {
	feedMessages.WithLabelValues(outcome).Inc()
}

func reconnectInc() {
	feedReconnects.Inc()
}

func connectedSet(connected bool) {
	if connected {
		feedConnected.Set(1)
		return
	}
	feedConnected.Set(0)
}
