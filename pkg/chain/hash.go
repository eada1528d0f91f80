package chain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashLength is the size in bytes of block and transaction hashes.
const HashLength = 32

// BlockHash identifies a block (blake2b-256 of its header).
type BlockHash [HashLength]byte

// TxHash identifies a transaction.
type TxHash [HashLength]byte

// ParseBlockHash decodes a hex encoded block hash. A leading 0x is tolerated.
func ParseBlockHash(s string) (BlockHash, error) {
	var h BlockHash
	err := decodeHash(h[:], s)
	return h, err
}

// ParseTxHash decodes a hex encoded transaction hash.
func ParseTxHash(s string) (TxHash, error) {
	var h TxHash
	err := decodeHash(h[:], s)
	return h, err
}

func decodeHash(dst []byte, s string) error {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("expected length %d for hash, but got %d", len(dst), len(raw))
	}
	copy(dst, raw)

	return nil
}

func (h BlockHash) String() string { return hex.EncodeToString(h[:]) }

func (h BlockHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *BlockHash) UnmarshalText(text []byte) error { return decodeHash(h[:], string(text)) }

func (h TxHash) String() string { return hex.EncodeToString(h[:]) }

func (h TxHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *TxHash) UnmarshalText(text []byte) error { return decodeHash(h[:], string(text)) }
