package chain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvent_Point(t *testing.T) {
	t.Parallel()

	block := BlockInfo{Slot: 100, Hash: hashOf(1), Height: 10, Era: EraConway}

	apply := ApplyEvent(block, Tx{Index: 2, Era: EraConway, Body: []byte("{}")})
	require.True(t, apply.IsApply())
	require.True(t, apply.Point().Equal(Specific(100, hashOf(1))))
	require.Equal(t, "apply(100."+hashOf(1).String()+", tx 2)", apply.String())

	rollback := RollbackEvent(BlockInfo{Slot: 80, Hash: hashOf(2)})
	require.True(t, rollback.IsRollback())
	require.Equal(t, uint64(80), rollback.Point().Slot())

	require.True(t, RollbackToOrigin().Point().IsOrigin())
	require.Equal(t, "rollback(origin)", RollbackToOrigin().String())

	require.False(t, rollback.BeyondHistory())
	rollback.PrunedBelow = 90
	require.True(t, rollback.BeyondHistory())
	apply.PrunedBelow = 90
	require.False(t, apply.BeyondHistory())
	require.Error(t, apply.Validate())
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	original := ApplyEvent(
		BlockInfo{Slot: 12345, Hash: hashOf(9), Height: 77, Era: EraBabbage},
		Tx{Hash: TxHash(hashOf(3)), Era: EraBabbage, Body: []byte(`{"outputs":[]}`)},
	)
	original.Seq = 5

	data, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	require.Equal(t, original, decoded)

	tests := []struct {
		name string
		data string
	}{
		{name: "unknown kind", data: `{"kind":"fork","block":{"slot":1}}`},
		{name: "apply without tx", data: `{"kind":"apply","block":{"slot":1,"hash":"` + hashOf(1).String() + `"}}`},
		{name: "rollback with tx", data: `{"kind":"rollback","block":{"slot":1},"tx":{"index":0}}`},
		{name: "malformed", data: `{"kind":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeEvent([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestParseBlockHash(t *testing.T) {
	t.Parallel()

	h, err := ParseBlockHash("0x" + hashOf(0x5c).String())
	require.NoError(t, err)
	require.Equal(t, hashOf(0x5c), h)

	_, err = ParseBlockHash("abcd")
	require.EqualError(t, err, "expected length 32 for hash, but got 2")
}
