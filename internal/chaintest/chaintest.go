// Package chaintest builds deterministic blocks and events for tests.
package chaintest

import (
	"encoding/binary"
	"fmt"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

// Hash derives a block hash from a slot and a fork number.
func Hash(slot uint64, fork byte) chain.BlockHash {
	var h chain.BlockHash
	binary.BigEndian.PutUint64(h[:8], slot)
	h[31] = fork

	return h
}

// Block returns the canonical test block at slot.
func Block(slot uint64) chain.BlockInfo {
	return ForkBlock(slot, 0)
}

// ForkBlock returns the test block at slot on the given fork.
func ForkBlock(slot uint64, fork byte) chain.BlockInfo {
	return chain.BlockInfo{
		Slot:   slot,
		Hash:   Hash(slot, fork),
		Height: slot,
		Era:    chain.EraConway,
	}
}

// Point is the point of Block(slot).
func Point(slot uint64) chain.Point {
	return Block(slot).Point()
}

// Tx returns a transaction whose body names its block and index.
func Tx(block chain.BlockInfo, index uint32) chain.Tx {
	var h chain.TxHash
	copy(h[:], block.Hash[:])
	binary.BigEndian.PutUint32(h[8:12], index)

	return chain.Tx{
		Hash:  h,
		Index: index,
		Era:   block.Era,
		Body:  []byte(fmt.Sprintf(`{"slot":%d,"index":%d}`, block.Slot, index)),
	}
}

// Apply returns the apply event of transaction index in Block(slot).
func Apply(slot uint64, index uint32) chain.Event {
	block := Block(slot)
	return chain.ApplyEvent(block, Tx(block, index))
}

// Rollback returns a rollback to Block(slot).
func Rollback(slot uint64) chain.Event {
	return chain.RollbackEvent(Block(slot))
}

// Chain returns one apply event per slot, each block holding a single transaction.
func Chain(slots ...uint64) []chain.Event {
	events := make([]chain.Event, 0, len(slots))
	for _, slot := range slots {
		events = append(events, Apply(slot, 0))
	}

	return events
}
