package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/store"
	"github.com/tesseract-labs/svault/internal/vault"
)

// ResolveManual collapses a state to an explicitly chosen outcome.
//
// The caller must be the controller, or pay the policy's manual-resolution
// fee (collected in native units and credited to the fallback recipient as
// an entitlement on this state). A fee of zero closes the paid path.
// `proof` is opaque caller context recorded in the journal.
func (e *Engine) ResolveManual(ctx context.Context, caller vault.Principal, id string, chosen int, proof []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.loadSuperposed(ctx, id)
	if err != nil {
		return err
	}

	if !st.HasOutcome(chosen) {
		return vault.Errf(vault.ErrCodeInvalidOutcome, id,
			"outcome %d is not in the state's potential set", chosen)
	}

	var fee int64
	if caller != st.Controller {
		fee = e.policy.ManualFee
		if fee <= 0 {
			return vault.Errf(vault.ErrCodeNotAuthorized, id,
				"only the controller may resolve manually")
		}
		moved, err := e.ledger.TransferIn(ctx, caller, vault.Native, fee)
		if err != nil || moved != fee {
			if err == nil && moved > 0 {
				// Partial fee collected; send it back rather than keep it.
				if _, rerr := e.ledger.TransferOut(ctx, caller, vault.Native, moved); rerr != nil {
					slog.Error("partial fee refund failed",
						"id", id, "caller", caller, "amount", moved, "error", rerr)
				}
			}
			return vault.Errf(vault.ErrCodeTransferFailed, id,
				"resolution fee of %d not collected", fee)
		}
	}

	params := map[string]any{
		"chosen": chosen,
		"proof":  proof,
		"fee":    fee,
	}
	if fee > 0 {
		// The fee is already in custody; the collapse transaction makes it
		// claimable by the fallback recipient atomically.
		return e.collapse(ctx, &st, chosen, vault.MechanismManual, caller, params,
			vault.Entitlement{
				StateID:   id,
				Recipient: e.policy.Fallback,
				Unit:      vault.Native,
				Amount:    fee,
			})
	}
	return e.collapse(ctx, &st, chosen, vault.MechanismManual, caller, params)
}

// ResolveOnExpiry collapses a state whose deadline has passed. Any caller.
// The outcome follows the policy's default-outcome rule for the TimeExpiry
// mechanism (first potential outcome unless configured otherwise).
func (e *Engine) ResolveOnExpiry(ctx context.Context, caller vault.Principal, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.loadSuperposed(ctx, id)
	if err != nil {
		return err
	}

	if st.Expiry == 0 {
		return vault.Errf(vault.ErrCodeInvalidExpiry, id, "state has no deadline")
	}
	now := e.now.Now()
	if now < st.Expiry {
		return vault.Errf(vault.ErrCodeExpiryNotReached, id,
			"deadline %d not reached at %d", st.Expiry, now)
	}

	outcome := e.policy.DefaultOutcome(vault.MechanismTimeExpiry, &st)
	return e.collapse(ctx, &st, outcome, vault.MechanismTimeExpiry, caller, map[string]any{
		"expiry": st.Expiry,
	})
}

// ResolveOnCondition collapses a conditional state when the candidate
// payload matches the condition payload by exact byte equality.
func (e *Engine) ResolveOnCondition(ctx context.Context, caller vault.Principal, id string, candidate []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.loadSuperposed(ctx, id)
	if err != nil {
		return err
	}

	if st.Mechanism != vault.MechanismConditional {
		return vault.Errf(vault.ErrCodeWrongStatus, id,
			"state mechanism is %s, not conditional", st.Mechanism)
	}

	if !bytes.Equal(candidate, st.ConditionPayload) {
		return vault.Errf(vault.ErrCodeConditionNotMet, id,
			"candidate payload does not match the condition")
	}

	outcome := e.policy.DefaultOutcome(vault.MechanismConditional, &st)
	return e.collapse(ctx, &st, outcome, vault.MechanismConditional, caller, map[string]any{
		"candidate": candidate,
	})
}

// ResolveProbabilistic collapses a probabilistic state using the external
// entropy provider.
//
// Outcome selection is entropy mod len(potentialOutcomes): uniform only for
// unweighted outcome sets. Weighted outcomes would need a cumulative-weight
// table instead of the modulo.
func (e *Engine) ResolveProbabilistic(ctx context.Context, caller vault.Principal, id string, seed []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.loadSuperposed(ctx, id)
	if err != nil {
		return err
	}

	if st.Mechanism != vault.MechanismProbabilistic {
		return vault.Errf(vault.ErrCodeWrongStatus, id,
			"state mechanism is %s, not probabilistic", st.Mechanism)
	}

	if e.entropy == nil {
		return vault.Errf(vault.ErrCodeOracleUnavailable, id,
			"no entropy provider configured")
	}

	ent, err := e.entropy.Entropy(ctx, seed)
	if err != nil {
		return vault.Errf(vault.ErrCodeOracleUnavailable, id,
			"entropy provider failed: %v", err)
	}

	outcome := st.PotentialOutcomes[ent%uint64(len(st.PotentialOutcomes))]
	return e.collapse(ctx, &st, outcome, vault.MechanismProbabilistic, caller, map[string]any{
		"seed":    seed,
		"entropy": int64(ent),
	})
}

// collapse is the convergent tail of every resolve entry point: it fixes
// the chosen outcome, marks the state collapsed with the mechanism actually
// used, converts held balances into entitlements, zeroes custody, clears
// entanglement links, and cascades into a still-superposed partner.
//
// All bookkeeping commits in one store transaction before the method
// returns; no external transfer happens here.
func (e *Engine) collapse(ctx context.Context, st *vault.State, outcome int, mech vault.Mechanism, actor vault.Principal, params map[string]any, extra ...vault.Entitlement) error {
	entitlements := append(e.distribute(st, outcome), extra...)

	// Decide the cascade before links are cleared: the partner is forced
	// only if it is still superposed and its link points back here.
	var partner vault.State
	cascade := false
	if st.Entangled() {
		p, err := e.store.GetState(ctx, st.EntangledWith)
		if err != nil {
			return fmt.Errorf("collapse %s: load partner: %w", st.ID, err)
		}
		partner = p
		cascade = p.Superposed() && p.EntangledWith == st.ID
	}

	if err := e.store.ApplyResolution(ctx, store.ResolutionRecord{
		StateID:       st.ID,
		Outcome:       outcome,
		Mechanism:     mech,
		ClearLinkWith: st.EntangledWith,
		Entitlements:  entitlements,
	}); err != nil {
		return fmt.Errorf("collapse %s: %w", st.ID, err)
	}

	if params == nil {
		params = map[string]any{}
	}
	params["outcome"] = outcome
	params["mechanism"] = mech.String()
	e.journalOp(ctx, journal.OpResolve, st.ID, actor, params)

	slog.Info("state collapsed",
		"id", st.ID,
		"outcome", outcome,
		"mechanism", mech.String(),
		"entitlements", len(entitlements),
		"cascade", cascade,
	)

	if cascade && mech != vault.MechanismEntanglementForced {
		e.resolveForced(ctx, partner, outcome, actor)
	}

	return nil
}

// resolveForced collapses an entanglement partner. The forcing hint is the
// collapsing state's chosen outcome; when it is not a member of the
// partner's own potential set, the partner falls back to its first
// potential outcome rather than failing, keeping cascades total.
//
// Both link fields were cleared before this runs, so the nested collapse
// cannot cascade again.
func (e *Engine) resolveForced(ctx context.Context, partner vault.State, forced int, actor vault.Principal) {
	partner.EntangledWith = ""

	outcome := forced
	if !partner.HasOutcome(outcome) {
		outcome = partner.FirstOutcome()
	}

	if err := e.collapse(ctx, &partner, outcome, vault.MechanismEntanglementForced, actor, map[string]any{
		"forced": forced,
	}); err != nil {
		// The triggering collapse already committed; a cascade failure is
		// logged, leaving the partner superposed and resolvable by its own
		// mechanism.
		slog.Error("cascade collapse failed",
			"id", partner.ID, "forced", forced, "error", err)
	}
}
