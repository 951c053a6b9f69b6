package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/store"
	"github.com/tesseract-labs/svault/internal/vault"
)

// CreateParams carries the creation-time parameters of a state.
type CreateParams struct {
	// Expiry is an absolute unix-seconds deadline; 0 means no deadline.
	Expiry int64

	// ConditionPayload is the opaque byte payload matched by conditional
	// resolution. May be empty for other mechanisms.
	ConditionPayload []byte

	// PotentialOutcomes is the ordered set of outcome indices the state may
	// resolve to. Every index must exist in the policy's outcome universe.
	PotentialOutcomes []int

	// Mechanism is the declared collapse mechanism. EntanglementForced is
	// internal-only and cannot be assigned at creation.
	Mechanism vault.Mechanism
}

// Create registers a new superposed state and returns its id.
//
// Fails with INVALID_OUTCOME_SET when the outcome set is empty, repeats an
// index, or references an outcome outside the policy's universe, and with
// ORACLE_UNAVAILABLE when the mechanism is probabilistic and no entropy
// provider is configured.
func (e *Engine) Create(ctx context.Context, caller vault.Principal, p CreateParams) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller == "" {
		return "", fmt.Errorf("create: caller is required")
	}

	switch p.Mechanism {
	case vault.MechanismManual, vault.MechanismTimeExpiry,
		vault.MechanismConditional, vault.MechanismProbabilistic:
	case vault.MechanismEntanglementForced:
		return "", fmt.Errorf("create: mechanism %s cannot be assigned at creation", p.Mechanism)
	default:
		return "", fmt.Errorf("create: unknown mechanism")
	}

	if err := e.validateOutcomeSet(p.PotentialOutcomes); err != nil {
		return "", err
	}

	if p.Mechanism == vault.MechanismProbabilistic && e.entropy == nil {
		return "", vault.Errf(vault.ErrCodeOracleUnavailable, "",
			"probabilistic mechanism requires an entropy provider")
	}

	if p.Expiry < 0 {
		return "", vault.Errf(vault.ErrCodeInvalidExpiry, "",
			"expiry must be zero or a positive clock reading")
	}

	counter, err := e.store.NextCounter(ctx, caller)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}

	now := e.now.Now()
	id, err := vault.StateID(caller, counter, now, p.ConditionPayload)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}

	st := vault.State{
		ID:                id,
		Creator:           caller,
		Controller:        caller,
		Status:            vault.StatusSuperposed,
		Expiry:            p.Expiry,
		ConditionPayload:  p.ConditionPayload,
		PotentialOutcomes: p.PotentialOutcomes,
		ChosenOutcome:     vault.NoOutcome,
		Mechanism:         p.Mechanism,
		CreatedAt:         now,
	}

	if err := e.store.CreateState(ctx, st); err != nil {
		return "", fmt.Errorf("create: %w", err)
	}

	e.journalOp(ctx, journal.OpCreate, id, caller, map[string]any{
		"mechanism": p.Mechanism.String(),
		"expiry":    p.Expiry,
		"outcomes":  p.PotentialOutcomes,
		"payload":   p.ConditionPayload,
	})

	slog.Info("state created",
		"id", id,
		"creator", caller,
		"mechanism", p.Mechanism.String(),
		"outcomes", len(p.PotentialOutcomes),
	)

	return id, nil
}

// validateOutcomeSet checks a potential-outcome set against the policy's
// outcome universe.
func (e *Engine) validateOutcomeSet(outcomes []int) error {
	if len(outcomes) == 0 {
		return vault.Errf(vault.ErrCodeInvalidOutcomeSet, "",
			"potential-outcome set must not be empty")
	}
	seen := make(map[int]bool, len(outcomes))
	for _, o := range outcomes {
		if seen[o] {
			return vault.Errf(vault.ErrCodeInvalidOutcomeSet, "",
				"outcome %d repeats in the set", o)
		}
		seen[o] = true
		if !e.policy.Known(o) {
			return vault.Errf(vault.ErrCodeInvalidOutcomeSet, "",
				"outcome %d is not in the policy's outcome universe", o)
		}
	}
	return nil
}

// Cancel aborts a superposed state, refunding every held balance directly
// to the creator (not the controller - this matters when control was
// transferred). Caller must be the creator or the controller.
//
// Internal bookkeeping (status, balance zeroing, link clearing) commits
// before any refund transfer. A refund the ledger rejects is re-credited as
// a creator entitlement so value is never stranded, and the call surfaces
// TRANSFER_FAILED.
func (e *Engine) Cancel(ctx context.Context, caller vault.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.loadSuperposed(ctx, id)
	if err != nil {
		return err
	}

	if caller != st.Creator && caller != st.Controller {
		return vault.Errf(vault.ErrCodeNotAuthorized, id,
			"only the creator or controller may cancel")
	}

	if err := e.store.ApplyCancellation(ctx, store.CancellationRecord{
		StateID:       id,
		ClearLinkWith: st.EntangledWith,
	}); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	e.journalOp(ctx, journal.OpCancel, id, caller, map[string]any{
		"refund_native": st.NativeBalance,
		"refund_units":  len(st.DepositedUnits),
	})

	// Bookkeeping is committed; everything below is external transfers.
	var failed []string

	refund := func(unit vault.Unit, amount int64) {
		if amount == 0 {
			return
		}
		if _, err := e.ledger.TransferOut(ctx, st.Creator, unit, amount); err != nil {
			slog.Warn("cancel refund rejected, crediting entitlement",
				"id", id, "unit", unit, "amount", amount, "error", err)
			if cerr := e.store.CreditEntitlement(ctx, vault.Entitlement{
				StateID:   id,
				Recipient: st.Creator,
				Unit:      unit,
				Amount:    amount,
			}); cerr != nil {
				slog.Error("cancel refund re-credit failed",
					"id", id, "unit", unit, "amount", amount, "error", cerr)
			}
			failed = append(failed, string(unit))
		}
	}

	refund(vault.Native, st.NativeBalance)
	for _, unit := range st.DepositedUnits {
		refund(unit, st.UnitBalances[unit])
	}

	slog.Info("state cancelled", "id", id, "caller", caller, "failed_refunds", len(failed))

	if len(failed) > 0 {
		ve := vault.Errf(vault.ErrCodeTransferFailed, id,
			"refund rejected for %d asset(s); amounts remain claimable by the creator", len(failed))
		ve.Details = map[string]string{"units": fmt.Sprintf("%v", failed)}
		return ve
	}
	return nil
}

// ExtendExpiry moves a superposed state's deadline strictly later.
// Controller only.
func (e *Engine) ExtendExpiry(ctx context.Context, caller vault.Principal, id string, newExpiry int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.loadSuperposed(ctx, id)
	if err != nil {
		return err
	}

	if caller != st.Controller {
		return vault.Errf(vault.ErrCodeNotAuthorized, id,
			"only the controller may extend expiry")
	}

	if newExpiry <= st.Expiry || newExpiry <= 0 {
		return vault.Errf(vault.ErrCodeInvalidExpiry, id,
			"new expiry %d must be strictly later than current %d", newExpiry, st.Expiry)
	}

	if err := e.store.SetExpiry(ctx, id, newExpiry); err != nil {
		return fmt.Errorf("extend expiry: %w", err)
	}

	e.journalOp(ctx, journal.OpExtendExpiry, id, caller, map[string]any{
		"from": st.Expiry,
		"to":   newExpiry,
	})

	return nil
}

// TransferControl hands a superposed state to a new controller.
// Controller only. The creator identity never changes.
func (e *Engine) TransferControl(ctx context.Context, caller vault.Principal, id string, newController vault.Principal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if newController == "" {
		return fmt.Errorf("transfer control: new controller is required")
	}

	st, err := e.loadSuperposed(ctx, id)
	if err != nil {
		return err
	}

	if caller != st.Controller {
		return vault.Errf(vault.ErrCodeNotAuthorized, id,
			"only the controller may transfer control")
	}

	if err := e.store.SetController(ctx, id, newController); err != nil {
		return fmt.Errorf("transfer control: %w", err)
	}

	e.journalOp(ctx, journal.OpTransferControl, id, caller, map[string]any{
		"from": string(st.Controller),
		"to":   string(newController),
	})

	return nil
}
