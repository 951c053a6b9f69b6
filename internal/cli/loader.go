package cli

import (
	"context"
	"os"

	"github.com/tesseract-labs/svault/internal/engine"
	"github.com/tesseract-labs/svault/internal/entropy"
	"github.com/tesseract-labs/svault/internal/ledger"
	"github.com/tesseract-labs/svault/internal/policy"
	"github.com/tesseract-labs/svault/internal/store"
)

// Session bundles an opened vault database with an engine wired for CLI use.
// The value ledger persists its accounts in the vault database itself, so
// value minted and deposited by one invocation settles claims and refunds
// in later ones. Funds are minted on demand, which exercises real custody
// flows without an external settlement system.
type Session struct {
	Store  *store.Store
	Engine *engine.Engine
	Book   *ledger.SQLBook
}

// OpenSession opens the database and policy named by the options and builds
// an engine whose logical clock resumes past the persisted journal.
func OpenSession(ctx context.Context, dbPath, policyPath string) (*Session, error) {
	if _, err := os.Stat(policyPath); err != nil {
		return nil, WrapExitError(ExitCommandError, "policy file not found", err)
	}

	pol, err := policy.Load(policyPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load policy", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	clock, err := engine.ResumeClock(ctx, st)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to resume journal clock", err)
	}

	book, err := ledger.OpenSQLBook(st.DB())
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open ledger accounts", err)
	}
	eng := engine.New(st, pol, book,
		engine.WithClock(clock),
		engine.WithEntropy(entropy.New()),
	)

	return &Session{Store: st, Engine: eng, Book: book}, nil
}

// Close releases the underlying database.
func (s *Session) Close() error {
	return s.Store.Close()
}
