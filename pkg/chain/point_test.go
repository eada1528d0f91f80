package chain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func hashOf(b byte) BlockHash {
	var h BlockHash
	for i := range h {
		h[i] = b
	}
	return h
}

func drawPoint(t *rapid.T, label string) Point {
	if rapid.Bool().Draw(t, label+"-origin") {
		return Origin()
	}

	var h BlockHash
	copy(h[:], rapid.SliceOfN(rapid.Byte(), HashLength, HashLength).Draw(t, label+"-hash"))

	return Specific(rapid.Uint64Range(0, 1_000_000).Draw(t, label+"-slot"), h)
}

func TestPoint_Ordering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    Point
		compare int
		equal   bool
	}{
		{name: "origin equals origin", a: Origin(), b: Origin(), compare: 0, equal: true},
		{name: "origin before slot zero", a: Origin(), b: Specific(0, hashOf(1)), compare: -1},
		{name: "lower slot first", a: Specific(80, hashOf(1)), b: Specific(100, hashOf(2)), compare: -1},
		{name: "same block", a: Specific(12345, hashOf(7)), b: Specific(12345, hashOf(7)), compare: 0, equal: true},
		{name: "competing forks", a: Specific(12345, hashOf(7)), b: Specific(12345, hashOf(8)), compare: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.compare, tt.a.Compare(tt.b))
			require.Equal(t, -tt.compare, tt.b.Compare(tt.a))
			require.Equal(t, tt.equal, tt.a.Equal(tt.b))
			require.Equal(t, tt.compare > 0, tt.a.After(tt.b))
		})
	}
}

func TestPoint_OrderingProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		a, b, c := drawPoint(t, "a"), drawPoint(t, "b"), drawPoint(t, "c")

		require.Equal(t, a.Compare(b), -b.Compare(a))
		if a.Compare(b) <= 0 && b.Compare(c) <= 0 {
			require.LessOrEqual(t, a.Compare(c), 0)
		}
		if a.Equal(b) {
			require.Zero(t, a.Compare(b))
		}
	})
}

func TestPoint_TextRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		p := drawPoint(t, "p")

		parsed, err := ParsePoint(p.String())
		require.NoError(t, err)
		require.True(t, p.Equal(parsed))

		data, err := json.Marshal(p)
		require.NoError(t, err)

		var decoded Point
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.True(t, p.Equal(decoded))
	})
}

func TestParsePoint_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{name: "no separator", input: "12345", msg: "expected"},
		{name: "bad slot", input: "x." + strings.Repeat("ab", 32), msg: "invalid point slot"},
		{name: "short hash", input: "1.abcd", msg: "expected length 32 for hash, but got 2"},
		{name: "not hex", input: "1.zz", msg: "invalid hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParsePoint(tt.input)
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestPoint_JSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Origin())
	require.NoError(t, err)
	require.JSONEq(t, `"origin"`, string(data))

	data, err = json.Marshal(Specific(42, hashOf(0xab)))
	require.NoError(t, err)
	require.JSONEq(t, `{"slot":42,"hash":"`+strings.Repeat("ab", 32)+`"}`, string(data))
}
