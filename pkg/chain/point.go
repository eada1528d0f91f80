package chain

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const originText = "origin"

// Point is a position on the chain: either Origin, before all history,
// or a specific block identified by slot and hash.
// Points are ordered by slot; equality additionally requires matching hashes.
// The zero value is Origin.
type Point struct {
	slot     uint64
	hash     BlockHash
	specific bool
}

// Origin returns the point before the first block.
func Origin() Point {
	return Point{}
}

// Specific returns the point of the block with the given slot and hash.
func Specific(slot uint64, hash BlockHash) Point {
	return Point{slot: slot, hash: hash, specific: true}
}

func (p Point) IsOrigin() bool { return !p.specific }

// Slot returns the slot of a specific point and 0 for Origin.
func (p Point) Slot() uint64 { return p.slot }

// Hash returns the block hash of a specific point and the zero hash for Origin.
func (p Point) Hash() BlockHash { return p.hash }

// Compare orders points by slot. Origin sorts before every specific point.
// Two specific points at the same slot compare equal even if they sit on competing forks.
func (p Point) Compare(other Point) int {
	switch {
	case p.IsOrigin() && other.IsOrigin():
		return 0
	case p.IsOrigin():
		return -1
	case other.IsOrigin():
		return 1
	}

	return cmp.Compare(p.slot, other.slot)
}

// After reports whether p is strictly past other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// Equal reports whether both points name the same block.
func (p Point) Equal(other Point) bool {
	if p.IsOrigin() || other.IsOrigin() {
		return p.IsOrigin() == other.IsOrigin()
	}

	return p.slot == other.slot && bytes.Equal(p.hash[:], other.hash[:])
}

// String renders "origin" or "<slot>.<hash>".
func (p Point) String() string {
	if p.IsOrigin() {
		return originText
	}

	return strconv.FormatUint(p.slot, 10) + "." + p.hash.String()
}

// ParsePoint is the inverse of Point.String.
func ParsePoint(s string) (Point, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, originText) {
		return Origin(), nil
	}

	slotText, hashText, ok := strings.Cut(s, ".")
	if !ok {
		return Point{}, fmt.Errorf("invalid point %q: expected %q or <slot>.<block hash>", s, originText)
	}

	slot, err := strconv.ParseUint(slotText, 10, 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid point slot %q: %w", slotText, err)
	}

	hash, err := ParseBlockHash(hashText)
	if err != nil {
		return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}

	return Specific(slot, hash), nil
}

func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Point) UnmarshalText(text []byte) error {
	parsed, err := ParsePoint(string(text))
	if err != nil {
		return err
	}
	*p = parsed

	return nil
}

type pointJSON struct {
	Slot uint64    `json:"slot"`
	Hash BlockHash `json:"hash"`
}

// MarshalJSON encodes Origin as the string "origin" and specific points as {"slot":..,"hash":..}.
func (p Point) MarshalJSON() ([]byte, error) {
	if p.IsOrigin() {
		return json.Marshal(originText)
	}

	return json.Marshal(pointJSON{Slot: p.slot, Hash: p.hash})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return p.UnmarshalText([]byte(text))
	}

	var raw pointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid point: %w", err)
	}
	*p = Specific(raw.Slot, raw.Hash)

	return nil
}
