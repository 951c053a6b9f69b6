package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-labs/svault/internal/vault"
)

func TestDistribute_SplitsByShares(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", id, 100))
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 1, nil))

	for _, want := range []struct {
		recipient vault.Principal
		amount    int64
	}{
		{"@bob", 60},
		{"@alice", 40},
		{"@treasury", 0},
	} {
		got, err := rig.engine.Claimable(ctx, id, want.recipient, vault.Native)
		require.NoError(t, err)
		assert.Equal(t, want.amount, got, "recipient %s", want.recipient)
	}
}

func TestDistribute_TruncationRemainderToFallback(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismManual,
		PotentialOutcomes: []int{2},
	})
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", id, 10))
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 2, nil))

	// 33% of 10 truncates to 3 per leg; the 4 left over goes to fallback,
	// so the entitlements sum exactly to the held balance.
	bob, err := rig.engine.Claimable(ctx, id, "@bob", vault.Native)
	require.NoError(t, err)
	carol, err := rig.engine.Claimable(ctx, id, "@carol", vault.Native)
	require.NoError(t, err)
	treasury, err := rig.engine.Claimable(ctx, id, "@treasury", vault.Native)
	require.NoError(t, err)

	assert.Equal(t, int64(3), bob)
	assert.Equal(t, int64(3), carol)
	assert.Equal(t, int64(4), treasury)
	assert.Equal(t, int64(10), bob+carol+treasury)
}

func TestDistribute_NoSharesRoutesToFallback(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismManual,
		PotentialOutcomes: []int{3},
	})
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", id, 75))
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 3, nil))

	treasury, err := rig.engine.Claimable(ctx, id, "@treasury", vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(75), treasury)
}

func TestDistribute_EveryUnitSplitsIndependently(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", id, 100))
	require.NoError(t, rig.engine.DepositUnit(ctx, "@alice", id, "gold", 7))
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 1, nil))

	bobNative, err := rig.engine.Claimable(ctx, id, "@bob", vault.Native)
	require.NoError(t, err)
	bobGold, err := rig.engine.Claimable(ctx, id, "@bob", "gold")
	require.NoError(t, err)
	aliceGold, err := rig.engine.Claimable(ctx, id, "@alice", "gold")
	require.NoError(t, err)
	treasuryGold, err := rig.engine.Claimable(ctx, id, "@treasury", "gold")
	require.NoError(t, err)

	assert.Equal(t, int64(60), bobNative)
	// 60% of 7 is 4, 40% is 2, remainder 1 to fallback.
	assert.Equal(t, int64(4), bobGold)
	assert.Equal(t, int64(2), aliceGold)
	assert.Equal(t, int64(1), treasuryGold)
}

func TestDistribute_EmptyCustodyCreditsNothing(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 1, nil))

	for _, recipient := range []vault.Principal{"@bob", "@alice", "@treasury"} {
		got, err := rig.engine.Claimable(ctx, id, recipient, vault.Native)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got, "recipient %s", recipient)
	}
}

func TestDistribute_LargeBalanceConservesValue(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	const balance = int64(math.MaxInt64)

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", id, balance))
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 1, nil))

	bob, err := rig.engine.Claimable(ctx, id, "@bob", vault.Native)
	require.NoError(t, err)
	alice, err := rig.engine.Claimable(ctx, id, "@alice", vault.Native)
	require.NoError(t, err)
	treasury, err := rig.engine.Claimable(ctx, id, "@treasury", vault.Native)
	require.NoError(t, err)

	// 60% and 40% of MaxInt64, truncating, remainder to fallback.
	assert.Equal(t, int64(5534023222112865484), bob)
	assert.Equal(t, int64(3689348814741910322), alice)
	assert.Equal(t, int64(1), treasury)
	assert.Equal(t, balance, bob+alice+treasury)
}
