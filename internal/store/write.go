package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/vault"
)

// NextCounter atomically increments and returns the per-creator counter
// feeding state id derivation. The first call for a creator returns 1.
func (s *Store) NextCounter(ctx context.Context, creator vault.Principal) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("next counter: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO counters (creator, next) VALUES (?, 1)
		ON CONFLICT(creator) DO UPDATE SET next = next + 1
	`, string(creator)); err != nil {
		return 0, fmt.Errorf("next counter: %w", err)
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT next FROM counters WHERE creator = ?`, string(creator),
	).Scan(&next); err != nil {
		return 0, fmt.Errorf("next counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("next counter: commit: %w", err)
	}
	return next, nil
}

// CreateState inserts a new state record. The state must carry a unique id;
// inserting a duplicate id is an error, not an idempotent no-op, because id
// derivation includes a monotonic counter and must never collide.
func (s *Store) CreateState(ctx context.Context, st vault.State) error {
	outcomes, err := marshalOutcomes(st.PotentialOutcomes)
	if err != nil {
		return fmt.Errorf("create state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO states
		(id, creator, controller, status, expiry, condition_payload,
		 potential_outcomes, chosen_outcome, mechanism, native_balance,
		 entangled_with, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.ID,
		string(st.Creator),
		string(st.Controller),
		int(st.Status),
		st.Expiry,
		st.ConditionPayload,
		outcomes,
		st.ChosenOutcome,
		int(st.Mechanism),
		st.NativeBalance,
		st.EntangledWith,
		st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create state %s: %w", st.ID, err)
	}

	return nil
}

// CreditNative adds to a state's native custody balance.
func (s *Store) CreditNative(ctx context.Context, id string, amount int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE states SET native_balance = native_balance + ? WHERE id = ?
	`, amount, id)
	if err != nil {
		return fmt.Errorf("credit native %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return vault.Errf(vault.ErrCodeStateNotFound, id, "state not found")
	}
	return nil
}

// CreditUnit adds to a state's balance for a fungible unit type, registering
// the unit in first-deposit order on its first credit. Membership in the
// deposited-unit list is idempotent.
func (s *Store) CreditUnit(ctx context.Context, id string, unit vault.Unit, amount int64) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("credit unit: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var order int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(deposit_order) + 1, 0) FROM unit_balances WHERE state_id = ?
	`, id).Scan(&order); err != nil {
		return fmt.Errorf("credit unit %s/%s: %w", id, unit, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO unit_balances (state_id, unit, amount, deposit_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(state_id, unit) DO UPDATE SET amount = amount + excluded.amount
	`, id, string(unit), amount, order); err != nil {
		return fmt.Errorf("credit unit %s/%s: %w", id, unit, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("credit unit %s/%s: commit: %w", id, unit, err)
	}
	return nil
}

// SetController records a control transfer.
func (s *Store) SetController(ctx context.Context, id string, controller vault.Principal) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE states SET controller = ? WHERE id = ?`, string(controller), id)
	if err != nil {
		return fmt.Errorf("set controller %s: %w", id, err)
	}
	return nil
}

// SetExpiry records an expiry extension.
func (s *Store) SetExpiry(ctx context.Context, id string, expiry int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE states SET expiry = ? WHERE id = ?`, expiry, id)
	if err != nil {
		return fmt.Errorf("set expiry %s: %w", id, err)
	}
	return nil
}

// SetLink records a reciprocal entanglement link. Both sides are written in
// one transaction so reciprocity can never be observed half-applied.
func (s *Store) SetLink(ctx context.Context, idA, idB string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("set link: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx,
		`UPDATE states SET entangled_with = ? WHERE id = ?`, idB, idA); err != nil {
		return fmt.Errorf("set link %s->%s: %w", idA, idB, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE states SET entangled_with = ? WHERE id = ?`, idA, idB); err != nil {
		return fmt.Errorf("set link %s->%s: %w", idB, idA, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set link: commit: %w", err)
	}
	return nil
}

// ClearLink clears both sides of a reciprocal link in one transaction.
func (s *Store) ClearLink(ctx context.Context, idA, idB string) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("clear link: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := clearLinkTx(ctx, tx, idA, idB); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clear link: commit: %w", err)
	}
	return nil
}

func clearLinkTx(ctx context.Context, tx *sql.Tx, idA, idB string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE states SET entangled_with = '' WHERE id = ?`, idA); err != nil {
		return fmt.Errorf("clear link %s: %w", idA, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE states SET entangled_with = '' WHERE id = ?`, idB); err != nil {
		return fmt.Errorf("clear link %s: %w", idB, err)
	}
	return nil
}

// creditEntitlementTx upserts one entitlement inside a transaction.
func creditEntitlementTx(ctx context.Context, tx *sql.Tx, e vault.Entitlement) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entitlements (state_id, recipient, unit, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(state_id, recipient, unit) DO UPDATE SET amount = amount + excluded.amount
	`, e.StateID, string(e.Recipient), string(e.Unit), e.Amount); err != nil {
		return fmt.Errorf("credit entitlement %s/%s/%s: %w", e.StateID, e.Recipient, e.Unit, err)
	}
	return nil
}

// ResolutionRecord is the full set of bookkeeping mutations for one
// collapse, committed atomically by ApplyResolution.
type ResolutionRecord struct {
	StateID   string
	Outcome   int
	Mechanism vault.Mechanism

	// ClearLinkWith is the entanglement partner whose side must also be
	// cleared, or empty when the state is not entangled.
	ClearLinkWith string

	// Entitlements are the per-recipient credits computed by distribution.
	Entitlements []vault.Entitlement
}

// ApplyResolution commits a collapse in a single transaction: marks the
// state collapsed with its chosen outcome and the mechanism actually used,
// zeroes the custody balances, clears the deposited-unit list, credits the
// entitlements, and clears both entanglement sides.
//
// The engine commits this BEFORE invoking any external transfer, so a
// re-entrant call from the value ledger observes a fully collapsed state.
func (s *Store) ApplyResolution(ctx context.Context, rec ResolutionRecord) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("apply resolution: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		UPDATE states
		SET status = ?, chosen_outcome = ?, mechanism = ?,
		    native_balance = 0, entangled_with = ''
		WHERE id = ?
	`, int(vault.StatusCollapsed), rec.Outcome, int(rec.Mechanism), rec.StateID); err != nil {
		return fmt.Errorf("apply resolution %s: %w", rec.StateID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM unit_balances WHERE state_id = ?`, rec.StateID); err != nil {
		return fmt.Errorf("apply resolution %s: clear balances: %w", rec.StateID, err)
	}

	if rec.ClearLinkWith != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE states SET entangled_with = '' WHERE id = ?`, rec.ClearLinkWith); err != nil {
			return fmt.Errorf("apply resolution %s: clear partner link: %w", rec.StateID, err)
		}
	}

	for _, e := range rec.Entitlements {
		if err := creditEntitlementTx(ctx, tx, e); err != nil {
			return fmt.Errorf("apply resolution %s: %w", rec.StateID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply resolution %s: commit: %w", rec.StateID, err)
	}
	return nil
}

// CancellationRecord is the bookkeeping for one cancellation, committed
// atomically by ApplyCancellation. Refund transfers happen after commit;
// rejected refunds are re-credited via CreditEntitlement.
type CancellationRecord struct {
	StateID       string
	ClearLinkWith string
}

// ApplyCancellation commits a cancellation in a single transaction: marks
// the state cancelled, zeroes balances, clears the deposited-unit list, and
// clears both entanglement sides.
func (s *Store) ApplyCancellation(ctx context.Context, rec CancellationRecord) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("apply cancellation: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		UPDATE states
		SET status = ?, native_balance = 0, entangled_with = ''
		WHERE id = ?
	`, int(vault.StatusCancelled), rec.StateID); err != nil {
		return fmt.Errorf("apply cancellation %s: %w", rec.StateID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM unit_balances WHERE state_id = ?`, rec.StateID); err != nil {
		return fmt.Errorf("apply cancellation %s: clear balances: %w", rec.StateID, err)
	}

	if rec.ClearLinkWith != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE states SET entangled_with = '' WHERE id = ?`, rec.ClearLinkWith); err != nil {
			return fmt.Errorf("apply cancellation %s: clear partner link: %w", rec.StateID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply cancellation %s: commit: %w", rec.StateID, err)
	}
	return nil
}

// CreditEntitlement adds to a claimable balance, creating the record when
// missing. Zero-amount credits are skipped by callers, not here.
func (s *Store) CreditEntitlement(ctx context.Context, e vault.Entitlement) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO entitlements (state_id, recipient, unit, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(state_id, recipient, unit) DO UPDATE SET amount = amount + excluded.amount
	`, e.StateID, string(e.Recipient), string(e.Unit), e.Amount); err != nil {
		return fmt.Errorf("credit entitlement %s/%s/%s: %w", e.StateID, e.Recipient, e.Unit, err)
	}
	return nil
}

// ZeroEntitlement sets a claimable balance to zero and returns the previous
// amount. Claim zeroes BEFORE transferring and re-credits on failure.
func (s *Store) ZeroEntitlement(ctx context.Context, id string, recipient vault.Principal, unit vault.Unit) (int64, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("zero entitlement: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var amount int64
	err = tx.QueryRowContext(ctx, `
		SELECT amount FROM entitlements WHERE state_id = ? AND recipient = ? AND unit = ?
	`, id, string(recipient), string(unit)).Scan(&amount)
	if err != nil {
		// Missing row means nothing was ever credited; report zero.
		if isNoRows(err) {
			return 0, tx.Commit()
		}
		return 0, fmt.Errorf("zero entitlement %s/%s/%s: %w", id, recipient, unit, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE entitlements SET amount = 0 WHERE state_id = ? AND recipient = ? AND unit = ?
	`, id, string(recipient), string(unit)); err != nil {
		return 0, fmt.Errorf("zero entitlement %s/%s/%s: %w", id, recipient, unit, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("zero entitlement: commit: %w", err)
	}
	return amount, nil
}

// AppendJournal inserts a journal entry. Entry ids are content-addressed;
// re-inserting the same id is silently ignored for idempotency.
func (s *Store) AppendJournal(ctx context.Context, e journal.Entry) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (id, receipt, seq, op, state_id, actor, params, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, e.ID, e.Receipt, e.Seq, string(e.Op), e.StateID, string(e.Actor), e.Params, e.At); err != nil {
		return fmt.Errorf("append journal %s: %w", e.ID, err)
	}
	return nil
}
