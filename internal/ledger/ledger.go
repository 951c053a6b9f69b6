// Package ledger provides value ledgers moving native and fungible-unit
// value between principals and the engine's custody account.
//
// The engine only depends on the engine.ValueLedger interface. Book is an
// in-memory implementation for single-process use (tests, the scenario
// harness); SQLBook persists balances in the vault database and backs the
// CLI, whose invocations are separate processes. A host embedding the
// engine in a real settlement system supplies its own.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tesseract-labs/svault/internal/vault"
)

// Custody is the account holding value deposited into states.
const Custody vault.Principal = "@custody"

// ErrInsufficientFunds is returned when a transfer exceeds the source
// account's balance. Transfers are all-or-nothing: nothing moves on failure.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Book is an in-memory double-entry account book.
type Book struct {
	mu       sync.Mutex
	accounts map[vault.Principal]map[vault.Unit]int64
}

// NewBook creates an empty account book.
func NewBook() *Book {
	return &Book{accounts: make(map[vault.Principal]map[vault.Unit]int64)}
}

// Mint credits an account out of thin air. Used to seed demo and test
// balances; a real ledger has no such operation.
func (b *Book) Mint(account vault.Principal, unit vault.Unit, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(account, unit, amount)
}

// Balance returns an account's balance for a unit.
func (b *Book) Balance(account vault.Principal, unit vault.Unit) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accounts[account][unit]
}

// TransferIn moves value from a principal into custody, returning the amount
// actually moved.
func (b *Book) TransferIn(_ context.Context, from vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	return b.move(from, Custody, unit, amount)
}

// TransferOut moves value from custody to a principal, returning the amount
// actually moved.
func (b *Book) TransferOut(_ context.Context, to vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	return b.move(Custody, to, unit, amount)
}

func (b *Book) move(from, to vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative transfer amount %d", amount)
	}
	if amount == 0 {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.accounts[from][unit] < amount {
		return 0, fmt.Errorf("move %d %s from %s: %w", amount, unit, from, ErrInsufficientFunds)
	}

	b.accounts[from][unit] -= amount
	b.credit(to, unit, amount)
	return amount, nil
}

// credit assumes the lock is held.
func (b *Book) credit(account vault.Principal, unit vault.Unit, amount int64) {
	if b.accounts[account] == nil {
		b.accounts[account] = make(map[vault.Unit]int64)
	}
	b.accounts[account][unit] += amount
}
