package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/testutil"
	"github.com/tesseract-labs/svault/internal/vault"
)

// noFeePolicyYAML closes the paid manual-resolution path.
const noFeePolicyYAML = `
fallback: "@treasury"
outcomes:
  - index: 0
    name: refund
    shares:
      - to: creator
        percent: 100
  - index: 1
    name: release
    shares:
      - to: "@bob"
        percent: 100
`

func TestResolveManual_Controller(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", id, 100))

	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 1, nil))

	st, err := rig.engine.Summary(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusCollapsed, st.Status)
	assert.Equal(t, 1, st.ChosenOutcome)
	assert.Equal(t, vault.MechanismManual, st.Mechanism)
	assert.Equal(t, int64(0), st.NativeBalance)
}

func TestResolveManual_InvalidOutcome(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")

	// Outcome 2 is in the policy universe but not this state's set.
	err := rig.engine.ResolveManual(ctx, "@alice", id, 2, nil)
	assert.True(t, vault.IsCode(err, vault.ErrCodeInvalidOutcome),
		"expected INVALID_OUTCOME, got %v", err)
}

func TestResolveManual_SingleResolution(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", id, 0, nil))

	err := rig.engine.ResolveManual(ctx, "@alice", id, 1, nil)
	assert.True(t, vault.IsWrongStatus(err), "expected WRONG_STATUS, got %v", err)

	// The first outcome stuck.
	outcome, oerr := rig.engine.ChosenOutcome(ctx, id)
	require.NoError(t, oerr)
	assert.Equal(t, 0, outcome)
}

func TestResolveManual_NonControllerPaysFee(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")

	require.NoError(t, rig.engine.ResolveManual(ctx, "@mallory", id, 1, nil))

	// The fee was collected from the caller in native units.
	transfers := rig.ledger.Transfers()
	require.Len(t, transfers, 1)
	assert.False(t, transfers[0].Out)
	assert.Equal(t, vault.Principal("@mallory"), transfers[0].Principal)
	assert.Equal(t, vault.Native, transfers[0].Unit)
	assert.Equal(t, int64(25), transfers[0].Amount)

	// And credited to the fallback recipient as an entitlement.
	claimable, err := rig.engine.Claimable(ctx, id, "@treasury", vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(25), claimable)
}

func TestResolveManual_NonControllerFeeRejected(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.manualState(t, "@alice")
	rig.ledger.RefuseIn("@mallory", vault.Native)

	err := rig.engine.ResolveManual(ctx, "@mallory", id, 1, nil)
	assert.True(t, vault.IsTransferFailed(err), "expected TRANSFER_FAILED, got %v", err)

	st, serr := rig.engine.Summary(ctx, id)
	require.NoError(t, serr)
	assert.Equal(t, vault.StatusSuperposed, st.Status)
}

func TestResolveManual_NoFeeClosesPaidPath(t *testing.T) {
	s := setupTestStore(t)
	lg := testutil.NewRecordingLedger()
	e := New(s, parseTestPolicy(t, noFeePolicyYAML), lg,
		WithTimeSource(testutil.NewManualTime(1000)),
		WithReceipts(journal.NewFixedGenerator()),
	)
	ctx := context.Background()

	id, err := e.Create(ctx, "@alice", CreateParams{
		Mechanism:         vault.MechanismManual,
		PotentialOutcomes: []int{0, 1},
	})
	require.NoError(t, err)

	err = e.ResolveManual(ctx, "@mallory", id, 1, nil)
	assert.True(t, vault.IsCode(err, vault.ErrCodeNotAuthorized),
		"expected NOT_AUTHORIZED, got %v", err)
	assert.Empty(t, lg.Transfers())
}

func TestResolveOnExpiry(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismTimeExpiry,
		PotentialOutcomes: []int{0, 1, 2},
		Expiry:            2000,
	})

	err := rig.engine.ResolveOnExpiry(ctx, "@anyone", id)
	assert.True(t, vault.IsCode(err, vault.ErrCodeExpiryNotReached),
		"expected EXPIRY_NOT_REACHED, got %v", err)

	rig.time.Advance(1000)

	// Any caller may fire an expiry resolution once the deadline passes;
	// the policy's time_expiry rule is "last".
	require.NoError(t, rig.engine.ResolveOnExpiry(ctx, "@anyone", id))

	outcome, oerr := rig.engine.ChosenOutcome(ctx, id)
	require.NoError(t, oerr)
	assert.Equal(t, 2, outcome)

	mech, merr := rig.engine.MechanismOf(ctx, id)
	require.NoError(t, merr)
	assert.Equal(t, vault.MechanismTimeExpiry, mech)
}

func TestResolveOnExpiry_NoDeadline(t *testing.T) {
	rig := newTestRig(t)

	id := rig.manualState(t, "@alice")
	err := rig.engine.ResolveOnExpiry(context.Background(), "@alice", id)
	assert.True(t, vault.IsCode(err, vault.ErrCodeInvalidExpiry),
		"expected INVALID_EXPIRY, got %v", err)
}

func TestResolveOnExpiry_DeadlineItselfCounts(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismTimeExpiry,
		PotentialOutcomes: []int{0},
		Expiry:            2000,
	})

	rig.time.Set(2000)
	assert.NoError(t, rig.engine.ResolveOnExpiry(ctx, "@alice", id))
}

func TestResolveOnCondition(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	id := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismConditional,
		PotentialOutcomes: []int{0, 1},
		ConditionPayload:  []byte("open sesame"),
	})

	err := rig.engine.ResolveOnCondition(ctx, "@bob", id, []byte("wrong"))
	assert.True(t, vault.IsCode(err, vault.ErrCodeConditionNotMet),
		"expected CONDITION_NOT_MET, got %v", err)

	require.NoError(t, rig.engine.ResolveOnCondition(ctx, "@bob", id, []byte("open sesame")))

	// No configured rule for conditional, so the default picks first.
	outcome, oerr := rig.engine.ChosenOutcome(ctx, id)
	require.NoError(t, oerr)
	assert.Equal(t, 0, outcome)
}

func TestResolveOnCondition_WrongMechanism(t *testing.T) {
	rig := newTestRig(t)

	id := rig.manualState(t, "@alice")
	err := rig.engine.ResolveOnCondition(context.Background(), "@alice", id, nil)
	assert.True(t, vault.IsWrongStatus(err), "expected WRONG_STATUS, got %v", err)
}

func TestResolveProbabilistic(t *testing.T) {
	rig := newEntropyRig(t, 7)
	ctx := context.Background()

	id := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismProbabilistic,
		PotentialOutcomes: []int{0, 1, 2},
	})

	require.NoError(t, rig.engine.ResolveProbabilistic(ctx, "@alice", id, []byte("seed")))

	// 7 mod 3 selects index 1 of the potential set.
	outcome, err := rig.engine.ChosenOutcome(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome)

	require.Len(t, rig.entropy.Seeds, 1)
	assert.Equal(t, []byte("seed"), rig.entropy.Seeds[0])
}

func TestResolveProbabilistic_WrongMechanism(t *testing.T) {
	rig := newEntropyRig(t, 0)

	id := rig.manualState(t, "@alice")
	err := rig.engine.ResolveProbabilistic(context.Background(), "@alice", id, nil)
	assert.True(t, vault.IsWrongStatus(err), "expected WRONG_STATUS, got %v", err)
}

func TestResolveProbabilistic_ProviderFailure(t *testing.T) {
	// A single scripted value; the second resolution exhausts the provider.
	rig := newEntropyRig(t, 0)
	ctx := context.Background()

	p := CreateParams{
		Mechanism:         vault.MechanismProbabilistic,
		PotentialOutcomes: []int{0, 1},
	}
	a := rig.create(t, "@alice", p)
	b := rig.create(t, "@alice", p)

	require.NoError(t, rig.engine.ResolveProbabilistic(ctx, "@alice", a, nil))

	err := rig.engine.ResolveProbabilistic(ctx, "@alice", b, nil)
	assert.True(t, vault.IsCode(err, vault.ErrCodeOracleUnavailable),
		"expected ORACLE_UNAVAILABLE, got %v", err)
}

func TestResolve_CascadesToPartner(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.DepositNative(ctx, "@alice", b, 50))
	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", a, 1, nil))

	// The partner collapsed to the same outcome under the forced mechanism.
	st, err := rig.engine.Summary(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusCollapsed, st.Status)
	assert.Equal(t, 1, st.ChosenOutcome)
	assert.Equal(t, vault.MechanismEntanglementForced, st.Mechanism)
	assert.Empty(t, st.EntangledWith)
	assert.Equal(t, int64(0), st.NativeBalance)

	// The partner's custody was distributed, not dropped.
	claimable, cerr := rig.engine.Claimable(ctx, b, "@bob", vault.Native)
	require.NoError(t, cerr)
	assert.Equal(t, int64(30), claimable)
}

func TestResolve_CascadeFallsBackToFirstOutcome(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.create(t, "@alice", CreateParams{
		Mechanism:         vault.MechanismManual,
		PotentialOutcomes: []int{0, 2},
	})
	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	// Outcome 1 is not in the partner's set; the cascade falls back to
	// the partner's first potential outcome.
	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", a, 1, nil))

	outcome, err := rig.engine.ChosenOutcome(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome)
}

func TestResolve_UnlinkedPartnerUnaffected(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))
	require.NoError(t, rig.engine.Unlink(ctx, "@alice", a, b))

	require.NoError(t, rig.engine.ResolveManual(ctx, "@alice", a, 0, nil))

	st, err := rig.engine.Summary(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusSuperposed, st.Status)
}
