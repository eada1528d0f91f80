package chain

import "time"

// Era tags the ledger era a block or transaction belongs to.
type Era string

const (
	EraByron   Era = "byron"
	EraShelley Era = "shelley"
	EraAllegra Era = "allegra"
	EraMary    Era = "mary"
	EraAlonzo  Era = "alonzo"
	EraBabbage Era = "babbage"
	EraConway  Era = "conway"
)

// BlockInfo is the descriptive metadata attached to every event.
type BlockInfo struct {
	Slot      uint64    `json:"slot"`
	Hash      BlockHash `json:"hash"`
	Height    uint64    `json:"height"`
	Epoch     uint64    `json:"epoch,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Era       Era       `json:"era"`
}

// Point returns the chain position of the block.
// The zero BlockInfo, used as the target of a rollback to Origin, maps to Origin.
func (b BlockInfo) Point() Point {
	if b.Slot == 0 && b.Hash == (BlockHash{}) {
		return Origin()
	}

	return Specific(b.Slot, b.Hash)
}

// IsOrigin reports whether the block info stands for Origin.
func (b BlockInfo) IsOrigin() bool {
	return b.Point().IsOrigin()
}

// Tx is an era tagged, opaque transaction payload.
type Tx struct {
	Hash TxHash `json:"hash"`
	// Index is the position of the transaction inside its block.
	Index uint32 `json:"index"`
	Era   Era    `json:"era"`
	Body  []byte `json:"body"`
}
