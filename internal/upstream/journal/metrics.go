package journal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_journal_events_appended_total",
			Help: "Total number of events appended to the journal by kind",
		},
		[]string{"kind"},
	)

	eventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainindexer_journal_events_rejected_total",
			Help: "Total number of events the journal refused to append",
		},
		[]string{"kind"},
	)

	tipSlot = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chainindexer_journal_tip_slot",
			Help: "Slot of the last event in the journal",
		},
	)

	openReaders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainindexer_journal_open_readers",
			Help: "Number of open journal readers by mode",
		},
		[]string{"mode"},
	)

	retentionEventsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chainindexer_retention_events_pruned_total",
			Help: "Total number of journal events pruned by retention policy",
		},
	)
)

func eventAppendedInc(kind string, slot uint64) {
	eventsAppended.WithLabelValues(kind).Inc()
	tipSlot.Set(float64(slot))
}

func eventRejectedInc(kind string) {
	eventsRejected.WithLabelValues(kind).Inc()
}

func readerOpened(mode string) {
	openReaders.WithLabelValues(mode).Inc()
}

func readerClosed(mode string) {
	openReaders.WithLabelValues(mode).Dec()
}

func retentionEventsPrunedInc(count int64) {
	retentionEventsPruned.Add(float64(count))
}
