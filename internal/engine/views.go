package engine

import (
	"context"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/vault"
)

// Read operations. None of these mutate anything; they bypass the engine
// mutex because every store read is a single consistent query.

// Summary returns the full state record, including custody balances,
// deposited-unit list, and entanglement. Historical states remain
// queryable after collapse or cancellation.
func (e *Engine) Summary(ctx context.Context, id string) (vault.State, error) {
	return e.store.GetState(ctx, id)
}

// Partner returns the entanglement partner's id, or "" when the state is
// not entangled.
func (e *Engine) Partner(ctx context.Context, id string) (string, error) {
	st, err := e.store.GetState(ctx, id)
	if err != nil {
		return "", err
	}
	return st.EntangledWith, nil
}

// ChosenOutcome returns the collapsed state's outcome. Fails with
// WRONG_STATUS while the state has not collapsed.
func (e *Engine) ChosenOutcome(ctx context.Context, id string) (int, error) {
	st, err := e.store.GetState(ctx, id)
	if err != nil {
		return 0, err
	}
	if st.Status != vault.StatusCollapsed {
		return 0, vault.Errf(vault.ErrCodeWrongStatus, id,
			"state is %s; no outcome chosen", st.Status)
	}
	return st.ChosenOutcome, nil
}

// Claimable returns the claimable balance for (state, recipient, unit).
func (e *Engine) Claimable(ctx context.Context, id string, recipient vault.Principal, unit vault.Unit) (int64, error) {
	if _, err := e.store.GetState(ctx, id); err != nil {
		return 0, err
	}
	return e.store.Entitlement(ctx, id, recipient, unit)
}

// DepositedUnits returns the state's unit types in first-deposit order.
func (e *Engine) DepositedUnits(ctx context.Context, id string) ([]vault.Unit, error) {
	st, err := e.store.GetState(ctx, id)
	if err != nil {
		return nil, err
	}
	return st.DepositedUnits, nil
}

// MechanismOf returns the state's collapse mechanism: the declared one
// while superposed, the one actually used once collapsed.
func (e *Engine) MechanismOf(ctx context.Context, id string) (vault.Mechanism, error) {
	st, err := e.store.GetState(ctx, id)
	if err != nil {
		return vault.MechanismUnknown, err
	}
	return st.Mechanism, nil
}

// IsExpired reports whether the state's deadline is set and has passed.
func (e *Engine) IsExpired(ctx context.Context, id string) (bool, error) {
	st, err := e.store.GetState(ctx, id)
	if err != nil {
		return false, err
	}
	return st.Expired(e.now.Now()), nil
}

// Trace returns the state's journal entries in logical-clock order.
func (e *Engine) Trace(ctx context.Context, id string) ([]journal.Entry, error) {
	if _, err := e.store.GetState(ctx, id); err != nil {
		return nil, err
	}
	return e.store.JournalForState(ctx, id)
}
