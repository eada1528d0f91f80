package upstream

import (
	"errors"
	"testing"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/chaintest"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/stretchr/testify/require"
)

func TestBounds_CheckAppend(t *testing.T) {
	t.Parallel()

	tip := Bounds{Tip: chaintest.Point(100), LastSeq: 7}
	pruned := Bounds{Tip: chaintest.Point(100), LastSeq: 7, PrunedBelow: 50}

	tests := []struct {
		name    string
		bounds  Bounds
		event   chain.Event
		wantErr error
	}{
		{name: "first apply on empty log", bounds: Bounds{}, event: chaintest.Apply(1, 0)},
		{name: "apply in a later block", bounds: tip, event: chaintest.Apply(101, 0)},
		{name: "next tx in the tip block", bounds: tip, event: chaintest.Apply(100, 1)},
		{name: "apply behind the tip", bounds: tip, event: chaintest.Apply(99, 0), wantErr: ErrOutOfOrder},
		{
			name:    "competing block at the tip slot",
			bounds:  tip,
			event:   chain.ApplyEvent(chaintest.ForkBlock(100, 1), chaintest.Tx(chaintest.ForkBlock(100, 1), 0)),
			wantErr: ErrOutOfOrder,
		},
		{name: "rollback to an ancestor", bounds: tip, event: chaintest.Rollback(90)},
		{name: "rollback to the tip", bounds: tip, event: chaintest.Rollback(100)},
		{name: "rollback to origin", bounds: tip, event: chain.RollbackToOrigin()},
		{name: "rollback past the tip", bounds: tip, event: chaintest.Rollback(101), wantErr: ErrOutOfOrder},
		{
			name:    "rollback to a competing block at the tip slot",
			bounds:  tip,
			event:   chain.RollbackEvent(chaintest.ForkBlock(100, 1)),
			wantErr: ErrOutOfOrder,
		},
		{name: "rollback inside retained history", bounds: pruned, event: chaintest.Rollback(50)},
		{
			name:    "rollback below retained history",
			bounds:  pruned,
			event:   chaintest.Rollback(49),
			wantErr: ErrRollbackBeyondKnownHistory,
		},
		{
			name:    "rollback to origin after pruning",
			bounds:  pruned,
			event:   chain.RollbackToOrigin(),
			wantErr: ErrRollbackBeyondKnownHistory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.bounds.CheckAppend(tt.event)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBounds_Admit(t *testing.T) {
	t.Parallel()

	pruned := Bounds{Tip: chaintest.Point(100), LastSeq: 7, PrunedBelow: 50}

	ev, err := pruned.Admit(chaintest.Rollback(49))
	require.NoError(t, err)
	require.True(t, ev.BeyondHistory())
	require.Equal(t, uint64(50), ev.PrunedBelow)

	ev, err = pruned.Admit(chain.RollbackToOrigin())
	require.NoError(t, err)
	require.Equal(t, uint64(50), ev.PrunedBelow)

	forged := chaintest.Rollback(60)
	forged.PrunedBelow = 99
	ev, err = pruned.Admit(forged)
	require.NoError(t, err)
	require.False(t, ev.BeyondHistory())

	_, err = pruned.Admit(chaintest.Rollback(101))
	require.ErrorIs(t, err, ErrOutOfOrder)

	_, err = pruned.Admit(chaintest.Apply(99, 0))
	require.ErrorIs(t, err, ErrOutOfOrder)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	notFound := &PointNotFoundError{Point: chaintest.Point(5)}
	require.True(t, IsPointNotFound(notFound))
	require.True(t, IsFatal(notFound))
	require.Contains(t, notFound.Error(), chaintest.Point(5).String())

	beyond := &RollbackBeyondKnownHistoryError{Target: chaintest.Point(1), PrunedBelow: 10}
	require.True(t, IsRollbackBeyondKnownHistory(beyond))
	require.True(t, IsFatal(beyond))

	cause := errors.New("connection refused")
	unavailable := Unavailable(cause)
	require.ErrorIs(t, unavailable, ErrUnavailable)
	require.ErrorIs(t, unavailable, cause)
	require.False(t, IsFatal(unavailable))
	require.NoError(t, Unavailable(nil))
}
