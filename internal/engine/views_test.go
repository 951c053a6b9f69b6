package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/vault"
)

func TestSummary_HistoricalStatesQueryable(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 0, nil))

	st, err := rig.engine.Summary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusCollapsed, st.Status)
	assert.Equal(t, 0, st.ChosenOutcome)
}

func TestChosenOutcome_BeforeCollapse(t *testing.T) {
	rig := newTestRig(t)

	id := rig.manualState(t, "@alice")
	_, err := rig.engine.ChosenOutcome(context.Background(), id)
	assert.True(t, vault.IsWrongStatus(err), "expected WRONG_STATUS, got %v", err)
}

func TestChosenOutcome_CancelledHasNone(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.Cancel(ctx, "@alice", id))

	_, err := rig.engine.ChosenOutcome(ctx, id)
	assert.True(t, vault.IsWrongStatus(err), "expected WRONG_STATUS, got %v", err)
}

func TestIsExpired(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismTimeExpiry,
		PotentialOutcomes: []int{0},
		Expiry:            2000,
	})

	expired, err := rig.engine.IsExpired(ctx, id)
	require.NoError(t, err)
	assert.False(t, expired)

	rig.time.Advance(1000)
	expired, err = rig.engine.IsExpired(ctx, id)
	require.NoError(t, err)
	assert.True(t, expired)

	// No deadline never expires.
	noDeadline := rig.manualState(t, "@alice")
	expired, err = rig.engine.IsExpired(ctx, noDeadline)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestMechanismOf_RecordsMechanismActuallyUsed(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	mech, err := rig.engine.MechanismOf(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, vault.MechanismManual, mech)

	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", a, 1, nil))

	// The cascade overwrote the declared mechanism on the partner.
	mech, err = rig.engine.MechanismOf(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, vault.MechanismEntanglementForced, mech)
}

func TestTrace_JournalInLogicalOrder(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", id, 100))
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 1, nil))
	_, err := rig.engine.Claim(ctx, "@bob", id, vault.Native)
	require.NoError(t, err)

	trace, err := rig.engine.Trace(ctx, id)
	require.NoError(t, err)
	require.Len(t, trace, 4)

	wantOps := []journal.Op{
		journal.OpCreate, journal.OpDepositNative, journal.OpResolve, journal.OpClaim,
	}
	for i, e := range trace {
		assert.Equal(t, wantOps[i], e.Op, "entry %d", i)
		assert.Equal(t, int64(i+1), e.Seq, "entry %d", i)
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Receipt)
	}

	assert.Equal(t, vault.Principal("@bob"), trace[3].Actor)
}

func TestTrace_UnknownState(t *testing.T) {
	rig := newTestRig(t)

	_, err := rig.engine.Trace(context.Background(), "missing")
	assert.True(t, vault.IsNotFound(err), "expected STATE_NOT_FOUND, got %v", err)
}

func TestClaimable_UnknownState(t *testing.T) {
	rig := newTestRig(t)

	_, err := rig.engine.Claimable(context.Background(), "missing", "@bob", vault.Native)
	assert.True(t, vault.IsNotFound(err), "expected STATE_NOT_FOUND, got %v", err)
}
