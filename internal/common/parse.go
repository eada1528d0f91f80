package common

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSlot parses a slot number given in decimal or, with a 0x prefix, in hex.
func ParseSlot(val string) (uint64, error) {
	str := strings.TrimSpace(val)
	base := 10

	if rest, ok := strings.CutPrefix(str, "0x"); ok {
		str = rest
		base = 16
	}

	slot, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q: %w", val, err)
	}

	return slot, nil
}

const bytesInMB = 1024 * 1024

func BytesToMB(bytes uint64) uint64 {
	return bytes / bytesInMB
}

func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
