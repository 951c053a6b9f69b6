package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-labs/svault/internal/vault"
)

func openTestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLBook_MintAndBalance(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLBook(openTestDB(t, filepath.Join(t.TempDir(), "ledger.db")))
	require.NoError(t, err)

	bal, err := b.Balance(ctx, "@alice", vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)

	require.NoError(t, b.Mint(ctx, "@alice", vault.Native, 100))
	require.NoError(t, b.Mint(ctx, "@alice", vault.Native, 50))
	require.NoError(t, b.Mint(ctx, "@alice", "gold", 7))

	bal, err = b.Balance(ctx, "@alice", vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(150), bal)

	bal, err = b.Balance(ctx, "@alice", "gold")
	require.NoError(t, err)
	assert.Equal(t, int64(7), bal)
}

func TestSQLBook_TransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLBook(openTestDB(t, filepath.Join(t.TempDir(), "ledger.db")))
	require.NoError(t, err)

	require.NoError(t, b.Mint(ctx, "@alice", vault.Native, 100))

	moved, err := b.TransferIn(ctx, "@alice", vault.Native, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(60), moved)

	custody, err := b.Balance(ctx, Custody, vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(60), custody)

	moved, err = b.TransferOut(ctx, "@bob", vault.Native, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(60), moved)

	bob, err := b.Balance(ctx, "@bob", vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(60), bob)

	custody, err = b.Balance(ctx, Custody, vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(0), custody)
}

func TestSQLBook_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLBook(openTestDB(t, filepath.Join(t.TempDir(), "ledger.db")))
	require.NoError(t, err)

	require.NoError(t, b.Mint(ctx, "@alice", vault.Native, 10))

	_, err = b.TransferIn(ctx, "@alice", vault.Native, 11)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// All-or-nothing: nothing moved.
	bal, err := b.Balance(ctx, "@alice", vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal)

	custody, err := b.Balance(ctx, Custody, vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(0), custody)
}

func TestSQLBook_ZeroAndNegativeAmounts(t *testing.T) {
	ctx := context.Background()
	b, err := OpenSQLBook(openTestDB(t, filepath.Join(t.TempDir(), "ledger.db")))
	require.NoError(t, err)

	moved, err := b.TransferIn(ctx, "@alice", vault.Native, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), moved)

	_, err = b.TransferIn(ctx, "@alice", vault.Native, -5)
	require.Error(t, err)

	require.Error(t, b.Mint(ctx, "@alice", vault.Native, -1))
}

func TestSQLBook_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	db := openTestDB(t, path)
	b, err := OpenSQLBook(db)
	require.NoError(t, err)
	require.NoError(t, b.Mint(ctx, "@alice", vault.Native, 100))
	_, err = b.TransferIn(ctx, "@alice", vault.Native, 100)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// A book over a fresh connection sees the custody balance.
	b, err = OpenSQLBook(openTestDB(t, path))
	require.NoError(t, err)

	custody, err := b.Balance(ctx, Custody, vault.Native)
	require.NoError(t, err)
	assert.Equal(t, int64(100), custody)

	moved, err := b.TransferOut(ctx, "@bob", vault.Native, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), moved)
}
