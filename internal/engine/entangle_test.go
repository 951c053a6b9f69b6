package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-labs/svault/internal/vault"
)

func TestLink_Reciprocal(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")

	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	pa, err := rig.engine.Partner(ctx, a)
	require.NoError(t, err)
	pb, err := rig.engine.Partner(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, b, pa)
	assert.Equal(t, a, pb)
}

func TestLink_SelfLinkRejected(t *testing.T) {
	rig := newTestRig(t)

	a := rig.manualState(t, "@alice")
	err := rig.engine.Link(context.Background(), "@alice", a, a)
	assert.Error(t, err)
}

func TestLink_RequiresControlOfBoth(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@bob")

	err := rig.engine.Link(ctx, "@alice", a, b)
	assert.True(t, vault.IsCode(err, vault.ErrCodeNotAuthorized),
		"expected NOT_AUTHORIZED, got %v", err)
}

func TestLink_OneToOne(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	c := rig.manualState(t, "@alice")

	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	err := rig.engine.Link(ctx, "@alice", a, c)
	assert.True(t, vault.IsCode(err, vault.ErrCodeAlreadyEntangled),
		"expected ALREADY_ENTANGLED, got %v", err)
	err = rig.engine.Link(ctx, "@alice", c, b)
	assert.True(t, vault.IsCode(err, vault.ErrCodeAlreadyEntangled),
		"expected ALREADY_ENTANGLED, got %v", err)
}

func TestLink_RequiresSuperposed(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.Cancel(ctx, "@alice", b))

	err := rig.engine.Link(ctx, "@alice", a, b)
	assert.True(t, vault.IsWrongStatus(err), "expected WRONG_STATUS, got %v", err)
}

func TestUnlink(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	require.NoError(t, rig.engine.Unlink(ctx, "@alice", a, b))

	pa, err := rig.engine.Partner(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, pa)
	pb, err := rig.engine.Partner(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, pb)

	// Both states can entangle again afterwards.
	assert.NoError(t, rig.engine.Link(ctx, "@alice", a, b))
}

func TestUnlink_MismatchedLinks(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	c := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	err := rig.engine.Unlink(ctx, "@alice", a, c)
	assert.True(t, vault.IsCode(err, vault.ErrCodeNotEntangled),
		"expected NOT_ENTANGLED, got %v", err)

	err = rig.engine.Unlink(ctx, "@alice", c, b)
	assert.True(t, vault.IsCode(err, vault.ErrCodeNotEntangled),
		"expected NOT_ENTANGLED, got %v", err)
}

func TestUnlink_RequiresControlOfOneSide(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	a := rig.manualState(t, "@alice")
	b := rig.manualState(t, "@alice")
	require.NoError(t, rig.engine.Link(ctx, "@alice", a, b))

	err := rig.engine.Unlink(ctx, "@mallory", a, b)
	assert.True(t, vault.IsCode(err, vault.ErrCodeNotAuthorized),
		"expected NOT_AUTHORIZED, got %v", err)

	// Controlling just one side suffices.
	require.NoError(t, rig.engine.TransferControl(ctx, "@alice", a, "@carol"))
	assert.NoError(t, rig.engine.Unlink(ctx, "@carol", a, b))
}
