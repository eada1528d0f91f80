package indexer

import (
	"context"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

// ManagedIndex is a consumer of the chain event log.
// The chain indexer drives every managed index from its own cursor, so handlers
// of one index never wait for another.
type ManagedIndex interface {
	// Name is the stable identity of the index, used as its cursor key.
	// It must not change across restarts.
	Name() string

	// HandleTx applies one transaction. Calls arrive in log order, once per
	// transaction at or after the cursor. The same transaction may be delivered
	// again after a restart, so implementations must tolerate redelivery.
	HandleTx(ctx context.Context, block chain.BlockInfo, tx chain.Tx) error

	// HandleRollback reverts every effect of transactions applied after target.
	// It is only called when the cursor of the index is past target.
	HandleRollback(ctx context.Context, target chain.BlockInfo) error
}

// Closer is implemented by managed indexes holding resources.
// The chain indexer closes them after their dispatch loop exits.
type Closer interface {
	Close() error
}

// Base is embedded by managed indexes that only care about some events.
// Both handlers succeed without doing anything.
type Base struct {
	IndexName string
}

// NewBase returns a Base reporting name.
func NewBase(name string) Base {
	return Base{IndexName: name}
}

func (b Base) Name() string { return b.IndexName }

func (Base) HandleTx(context.Context, chain.BlockInfo, chain.Tx) error { return nil }

func (Base) HandleRollback(context.Context, chain.BlockInfo) error { return nil }
