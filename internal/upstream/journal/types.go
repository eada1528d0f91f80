package journal

import (
	"fmt"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

// eventRow represents one journal entry in the database
type eventRow struct {
	Seq       int64           `meddler:"seq,pk"`
	Kind      string          `meddler:"kind"`
	Slot      uint64          `meddler:"slot"`
	BlockHash chain.BlockHash `meddler:"block_hash,blockhash"`
	Height    uint64          `meddler:"height"`
	Epoch     uint64          `meddler:"epoch"`
	BlockTime int64           `meddler:"block_time"`
	Era       string          `meddler:"era"`
	TxHash    *string         `meddler:"tx_hash"`
	TxIndex   *uint32         `meddler:"tx_index"`
	TxEra     *string         `meddler:"tx_era"`
	TxBody    []byte          `meddler:"tx_body"`
	CreatedAt int64           `meddler:"created_at"`

	// PrunedBelow marks rollbacks journaled below the retained history
	PrunedBelow uint64 `meddler:"pruned_below"`
}

// stateRow holds the retention horizon of the journal
type stateRow struct {
	ID          int64  `meddler:"id,pk"`
	PrunedBelow uint64 `meddler:"pruned_below"`
	PrunedSeq   uint64 `meddler:"pruned_seq"`
}

func newEventRow(ev chain.Event) *eventRow {
	row := &eventRow{
		Kind:      string(ev.Kind),
		Slot:      ev.Block.Slot,
		BlockHash: ev.Block.Hash,
		Height:    ev.Block.Height,
		Epoch:     ev.Block.Epoch,
		Era:       string(ev.Block.Era),
		CreatedAt: time.Now().UTC().Unix(),

		PrunedBelow: ev.PrunedBelow,
	}

	if !ev.Block.Timestamp.IsZero() {
		row.BlockTime = ev.Block.Timestamp.UnixNano()
	}

	if ev.Tx != nil {
		hash := ev.Tx.Hash.String()
		index := ev.Tx.Index
		era := string(ev.Tx.Era)
		row.TxHash = &hash
		row.TxIndex = &index
		row.TxEra = &era
		row.TxBody = ev.Tx.Body
	}

	return row
}

func (r *eventRow) event() (chain.Event, error) {
	block := chain.BlockInfo{
		Slot:   r.Slot,
		Hash:   r.BlockHash,
		Height: r.Height,
		Epoch:  r.Epoch,
		Era:    chain.Era(r.Era),
	}
	if r.BlockTime != 0 {
		block.Timestamp = time.Unix(0, r.BlockTime).UTC()
	}

	ev := chain.Event{
		Seq:         uint64(r.Seq),
		Kind:        chain.EventKind(r.Kind),
		Block:       block,
		PrunedBelow: r.PrunedBelow,
	}

	if r.TxHash != nil {
		hash, err := chain.ParseTxHash(*r.TxHash)
		if err != nil {
			return chain.Event{}, fmt.Errorf("journal entry %d: %w", r.Seq, err)
		}

		tx := chain.Tx{Hash: hash, Body: r.TxBody}
		if r.TxIndex != nil {
			tx.Index = *r.TxIndex
		}
		if r.TxEra != nil {
			tx.Era = chain.Era(*r.TxEra)
		}
		ev.Tx = &tx
	}

	if err := ev.Validate(); err != nil {
		return chain.Event{}, fmt.Errorf("journal entry %d: %w", r.Seq, err)
	}

	return ev, nil
}
