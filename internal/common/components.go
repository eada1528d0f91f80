package common

const (
	ComponentChainIndexer = "chain-indexer"
	ComponentDispatch     = "dispatch"
	ComponentBroadcast    = "broadcast"
	ComponentCursorStore  = "cursor-store"
	ComponentJournal      = "journal"
	ComponentFeed         = "feed"
	ComponentProcess      = "process"
	ComponentAPI          = "api"
	ComponentMaintenance  = "maintenance"
	ComponentMetrics      = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentChainIndexer: {},
	ComponentDispatch:     {},
	ComponentBroadcast:    {},
	ComponentCursorStore:  {},
	ComponentJournal:      {},
	ComponentFeed:         {},
	ComponentProcess:      {},
	ComponentAPI:          {},
	ComponentMaintenance:  {},
	ComponentMetrics:      {},
}
