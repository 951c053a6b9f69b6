package engine

import (
	"context"
	"log/slog"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/vault"
)

// Claim withdraws the caller's entitlement for one unit (vault.Native for
// the native asset) from a terminal state, returning the amount paid out.
//
// The entitlement is zeroed BEFORE the ledger transfer and re-credited when
// the ledger reports failure, so a failed external transfer never destroys
// the claim and a re-entrant call during the transfer finds nothing left to
// claim. A second claim for the same (state, recipient, unit) fails with
// NOTHING_TO_CLAIM.
func (e *Engine) Claim(ctx context.Context, caller vault.Principal, id string, unit vault.Unit) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.store.GetState(ctx, id)
	if err != nil {
		return 0, err
	}
	if !st.Status.Terminal() {
		return 0, vault.Errf(vault.ErrCodeWrongStatus, id,
			"state is %s; entitlements exist only after collapse or cancellation", st.Status)
	}

	amount, err := e.store.ZeroEntitlement(ctx, id, caller, unit)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, vault.Errf(vault.ErrCodeNothingToClaim, id,
			"no claimable %s balance for %s", unit, caller)
	}

	recredit := func(amt int64) {
		if amt == 0 {
			return
		}
		if cerr := e.store.CreditEntitlement(ctx, vault.Entitlement{
			StateID:   id,
			Recipient: caller,
			Unit:      unit,
			Amount:    amt,
		}); cerr != nil {
			slog.Error("claim re-credit failed",
				"id", id, "recipient", caller, "unit", unit, "amount", amt, "error", cerr)
		}
	}

	moved, err := e.ledger.TransferOut(ctx, caller, unit, amount)
	if err != nil {
		recredit(amount)
		return 0, vault.Errf(vault.ErrCodeTransferFailed, id,
			"payout rejected: %v", err)
	}
	if moved < amount {
		// The ledger moved less than requested; the difference stays claimable.
		recredit(amount - moved)
	}

	e.journalOp(ctx, journal.OpClaim, id, caller, map[string]any{
		"unit":   string(unit),
		"amount": moved,
	})

	slog.Info("entitlement claimed",
		"id", id, "recipient", caller, "unit", unit, "amount", moved)

	return moved, nil
}
