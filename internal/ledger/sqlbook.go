package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tesseract-labs/svault/internal/vault"
)

// Account balances live next to the vault's own tables so every process
// opening the database sees the same book.
const accountsSchema = `
CREATE TABLE IF NOT EXISTS ledger_accounts (
    principal TEXT    NOT NULL,
    unit      TEXT    NOT NULL,
    amount    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (principal, unit)
);
`

const creditAccount = `
INSERT INTO ledger_accounts (principal, unit, amount) VALUES (?, ?, ?)
ON CONFLICT (principal, unit) DO UPDATE SET amount = amount + excluded.amount
`

// SQLBook is an account book persisted in a SQL database. The CLI stores
// it in the vault database itself: a balance minted by one invocation
// settles transfers in any later one, which the in-memory Book cannot do
// across processes.
type SQLBook struct {
	db *sql.DB
}

// OpenSQLBook ensures the accounts table exists and returns a book over
// the connection. The caller keeps ownership of the connection.
func OpenSQLBook(db *sql.DB) (*SQLBook, error) {
	if _, err := db.Exec(accountsSchema); err != nil {
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &SQLBook{db: db}, nil
}

// Mint credits an account out of thin air. Same caveat as Book.Mint.
func (b *SQLBook) Mint(ctx context.Context, account vault.Principal, unit vault.Unit, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative mint amount %d", amount)
	}
	if amount == 0 {
		return nil
	}
	_, err := b.db.ExecContext(ctx, creditAccount, string(account), string(unit), amount)
	return err
}

// Balance returns an account's balance for a unit.
func (b *SQLBook) Balance(ctx context.Context, account vault.Principal, unit vault.Unit) (int64, error) {
	var bal int64
	err := b.db.QueryRowContext(ctx,
		`SELECT amount FROM ledger_accounts WHERE principal = ? AND unit = ?`,
		string(account), string(unit)).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bal, nil
}

// TransferIn moves value from a principal into custody, returning the
// amount actually moved.
func (b *SQLBook) TransferIn(ctx context.Context, from vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	return b.move(ctx, from, Custody, unit, amount)
}

// TransferOut moves value from custody to a principal, returning the
// amount actually moved.
func (b *SQLBook) TransferOut(ctx context.Context, to vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	return b.move(ctx, Custody, to, unit, amount)
}

// move debits and credits in one transaction so a failed leg moves nothing.
func (b *SQLBook) move(ctx context.Context, from, to vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("negative transfer amount %d", amount)
	}
	if amount == 0 {
		return 0, nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var bal int64
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM ledger_accounts WHERE principal = ? AND unit = ?`,
		string(from), string(unit)).Scan(&bal)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if bal < amount {
		return 0, fmt.Errorf("move %d %s from %s: %w", amount, unit, from, ErrInsufficientFunds)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE ledger_accounts SET amount = amount - ? WHERE principal = ? AND unit = ?`,
		amount, string(from), string(unit)); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, creditAccount, string(to), string(unit), amount); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return amount, nil
}
