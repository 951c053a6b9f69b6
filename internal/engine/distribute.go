package engine

import (
	"github.com/tesseract-labs/svault/internal/vault"
)

// distribute converts a state's held balances into per-recipient
// entitlements for the chosen outcome. Pure bookkeeping arithmetic: no
// store writes, no transfers.
//
// For each non-zero balance (native first, then each deposited unit in
// first-deposit order) the policy's share percentages apply with truncating
// integer division - never rounding up, so the legs can never over-allocate.
// Every truncation remainder and any undistributed percentage go to the
// fallback recipient, which is what keeps the conservation property exact:
// entitlements credited always sum to the balance held at collapse.
func (e *Engine) distribute(st *vault.State, outcome int) []vault.Entitlement {
	shares := e.policy.SharesFor(outcome)

	var out []vault.Entitlement
	credit := func(recipient vault.Principal, unit vault.Unit, amount int64) {
		if amount == 0 {
			return
		}
		out = append(out, vault.Entitlement{
			StateID:   st.ID,
			Recipient: recipient,
			Unit:      unit,
			Amount:    amount,
		})
	}

	split := func(unit vault.Unit, balance int64) {
		if balance == 0 {
			return
		}
		var distributed int64
		for _, sh := range shares {
			// balance*percent overflows int64 for large balances.
			// Splitting into hundreds plus remainder keeps every product
			// small and truncates identically.
			amt := balance/100*sh.Percent + balance%100*sh.Percent/100
			credit(sh.Resolve(st.Creator, st.Controller, e.policy.Fallback), unit, amt)
			distributed += amt
		}
		credit(e.policy.Fallback, unit, balance-distributed)
	}

	split(vault.Native, st.NativeBalance)
	for _, unit := range st.DepositedUnits {
		split(unit, st.UnitBalances[unit])
	}

	return out
}
