package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/vault"
)

// DepositNative moves native value from the caller into a superposed
// state's custody. A zero amount is a success no-op that emits nothing,
// simplifying caller logic.
func (e *Engine) DepositNative(ctx context.Context, caller vault.Principal, id string, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.deposit(ctx, caller, id, vault.Native, amount)
}

// DepositUnit moves fungible-unit value from the caller into a superposed
// state's custody. The credited amount is what the ledger reports actually
// moved, defending against unit types that silently under-transfer. The
// unit joins the state's deposited-unit list exactly once.
func (e *Engine) DepositUnit(ctx context.Context, caller vault.Principal, id string, unit vault.Unit, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if unit == "" {
		return fmt.Errorf("deposit: unit is required")
	}
	if unit == vault.Native {
		return fmt.Errorf("deposit: unit %q is reserved; use DepositNative", vault.Native)
	}

	return e.deposit(ctx, caller, id, unit, amount)
}

func (e *Engine) deposit(ctx context.Context, caller vault.Principal, id string, unit vault.Unit, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("deposit: negative amount %d", amount)
	}

	if _, err := e.loadSuperposed(ctx, id); err != nil {
		return err
	}

	if amount == 0 {
		return nil
	}

	moved, err := e.ledger.TransferIn(ctx, caller, unit, amount)
	if err != nil {
		return vault.Errf(vault.ErrCodeTransferFailed, id,
			"deposit transfer rejected: %v", err)
	}
	if moved == 0 {
		// The ledger accepted the call but moved nothing; nothing to credit.
		return nil
	}

	if unit == vault.Native {
		err = e.store.CreditNative(ctx, id, moved)
	} else {
		err = e.store.CreditUnit(ctx, id, unit, moved)
	}
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	op := journal.OpDepositNative
	params := map[string]any{"amount": moved}
	if unit != vault.Native {
		op = journal.OpDepositUnit
		params["unit"] = string(unit)
	}
	e.journalOp(ctx, op, id, caller, params)

	slog.Debug("deposit credited",
		"id", id, "unit", unit, "requested", amount, "moved", moved)

	return nil
}
