package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/vault"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// GetState loads a state with its unit balances in first-deposit order.
// Returns a STATE_NOT_FOUND vault error for unknown ids.
func (s *Store) GetState(ctx context.Context, id string) (vault.State, error) {
	var (
		st       vault.State
		status   int
		mech     int
		outcomes string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, creator, controller, status, expiry, condition_payload,
		       potential_outcomes, chosen_outcome, mechanism, native_balance,
		       entangled_with, created_at
		FROM states WHERE id = ?
	`, id).Scan(
		&st.ID,
		(*string)(&st.Creator),
		(*string)(&st.Controller),
		&status,
		&st.Expiry,
		&st.ConditionPayload,
		&outcomes,
		&st.ChosenOutcome,
		&mech,
		&st.NativeBalance,
		&st.EntangledWith,
		&st.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return vault.State{}, vault.Errf(vault.ErrCodeStateNotFound, id, "state not found")
		}
		return vault.State{}, fmt.Errorf("get state %s: %w", id, err)
	}

	st.Status = vault.Status(status)
	st.Mechanism = vault.Mechanism(mech)
	st.PotentialOutcomes, err = unmarshalOutcomes(outcomes)
	if err != nil {
		return vault.State{}, fmt.Errorf("get state %s: %w", id, err)
	}

	st.UnitBalances, st.DepositedUnits, err = s.unitBalances(ctx, id)
	if err != nil {
		return vault.State{}, fmt.Errorf("get state %s: %w", id, err)
	}

	return st, nil
}

// unitBalances loads a state's unit balances and its deposited-unit list in
// first-deposit order.
func (s *Store) unitBalances(ctx context.Context, id string) (map[vault.Unit]int64, []vault.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT unit, amount FROM unit_balances
		WHERE state_id = ?
		ORDER BY deposit_order ASC
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("query unit balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[vault.Unit]int64)
	var units []vault.Unit
	for rows.Next() {
		var (
			unit   string
			amount int64
		)
		if err := rows.Scan(&unit, &amount); err != nil {
			return nil, nil, fmt.Errorf("scan unit balance: %w", err)
		}
		balances[vault.Unit(unit)] = amount
		units = append(units, vault.Unit(unit))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate unit balances: %w", err)
	}

	return balances, units, nil
}

// Entitlement returns the claimable amount for (state, recipient, unit).
// A missing record reads as zero.
func (s *Store) Entitlement(ctx context.Context, id string, recipient vault.Principal, unit vault.Unit) (int64, error) {
	var amount int64
	err := s.db.QueryRowContext(ctx, `
		SELECT amount FROM entitlements WHERE state_id = ? AND recipient = ? AND unit = ?
	`, id, string(recipient), string(unit)).Scan(&amount)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read entitlement %s/%s/%s: %w", id, recipient, unit, err)
	}
	return amount, nil
}

// EntitlementsForState returns every entitlement recorded for a state,
// ordered deterministically by (recipient, unit).
func (s *Store) EntitlementsForState(ctx context.Context, id string) ([]vault.Entitlement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state_id, recipient, unit, amount FROM entitlements
		WHERE state_id = ?
		ORDER BY recipient ASC, unit ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query entitlements %s: %w", id, err)
	}
	defer rows.Close()

	var out []vault.Entitlement
	for rows.Next() {
		var e vault.Entitlement
		if err := rows.Scan(&e.StateID, (*string)(&e.Recipient), (*string)(&e.Unit), &e.Amount); err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entitlements: %w", err)
	}

	return out, nil
}

// JournalForState returns a state's journal entries ordered by logical seq.
// Returns an empty slice (not nil) when the state has no entries.
func (s *Store) JournalForState(ctx context.Context, id string) ([]journal.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, receipt, seq, op, state_id, actor, params, at
		FROM journal
		WHERE state_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query journal %s: %w", id, err)
	}
	defer rows.Close()

	entries := []journal.Entry{}
	for rows.Next() {
		var e journal.Entry
		if err := rows.Scan(&e.ID, &e.Receipt, &e.Seq, (*string)(&e.Op), &e.StateID, (*string)(&e.Actor), &e.Params, &e.At); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}

	return entries, nil
}

// MaxJournalSeq returns the highest logical clock reading in the journal.
// Used to resume the engine clock after reopening a store.
func (s *Store) MaxJournalSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max journal seq: %w", err)
	}
	return seq, nil
}

// StateIDs returns every known state id ordered by creation time, then id.
func (s *Store) StateIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM states ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query state ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan state id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state ids: %w", err)
	}

	return ids, nil
}
