package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/policy"
	"github.com/tesseract-labs/svault/internal/store"
	"github.com/tesseract-labs/svault/internal/vault"
)

// ValueLedger moves value between principals and the engine's custody.
// It must be synchronous and all-or-nothing, and must report the amount
// actually moved when it can differ from the requested amount
// (non-standard unit types may silently under-transfer).
//
// The unit vault.Native selects the native asset.
type ValueLedger interface {
	TransferIn(ctx context.Context, from vault.Principal, unit vault.Unit, amount int64) (moved int64, err error)
	TransferOut(ctx context.Context, to vault.Principal, unit vault.Unit, amount int64) (moved int64, err error)
}

// EntropyProvider supplies external entropy for probabilistic resolution.
// Read-only, called synchronously.
type EntropyProvider interface {
	Entropy(ctx context.Context, seed []byte) (uint64, error)
}

// Engine is the state-resolution engine. All mutating operations serialize
// on an internal mutex; see the package documentation for the re-entrancy
// discipline around the external collaborators.
type Engine struct {
	mu sync.Mutex

	store    *store.Store
	policy   *policy.Policy
	ledger   ValueLedger
	entropy  EntropyProvider // nil means no oracle configured
	clock    *Clock
	now      TimeSource
	receipts journal.ReceiptGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithEntropy configures the external entropy provider. Without one,
// creating or resolving probabilistic states fails with ORACLE_UNAVAILABLE.
func WithEntropy(p EntropyProvider) Option {
	return func(e *Engine) { e.entropy = p }
}

// WithClock sets a pre-positioned logical clock.
// Use ResumeClock to continue a reopened store's journal sequence.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTimeSource sets the wall-clock source. Tests inject a deterministic
// source to step through expiry deadlines.
func WithTimeSource(ts TimeSource) Option {
	return func(e *Engine) { e.now = ts }
}

// WithReceipts sets the journal receipt generator. Tests inject a fixed
// generator for deterministic golden traces.
func WithReceipts(g journal.ReceiptGenerator) Option {
	return func(e *Engine) { e.receipts = g }
}

// New creates an Engine over a store, a validated policy, and a value
// ledger. The zero configuration uses the system clock, UUIDv7 receipts,
// a fresh logical clock, and no entropy provider.
func New(s *store.Store, pol *policy.Policy, lg ValueLedger, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		policy:   pol,
		ledger:   lg,
		clock:    NewClock(),
		now:      SystemTime{},
		receipts: journal.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResumeClock builds a logical clock positioned after the store's last
// journal entry, so a reopened engine keeps strictly increasing seqs.
func ResumeClock(ctx context.Context, s *store.Store) (*Clock, error) {
	seq, err := s.MaxJournalSeq(ctx)
	if err != nil {
		return nil, err
	}
	return NewClockAt(seq), nil
}

// Policy returns the engine's distribution policy.
func (e *Engine) Policy() *policy.Policy {
	return e.policy
}

// loadSuperposed loads a state and requires it to still be superposed.
func (e *Engine) loadSuperposed(ctx context.Context, id string) (vault.State, error) {
	st, err := e.store.GetState(ctx, id)
	if err != nil {
		return vault.State{}, err
	}
	if !st.Superposed() {
		return vault.State{}, vault.Errf(vault.ErrCodeWrongStatus, id,
			"state is %s", st.Status)
	}
	return st, nil
}

// journalOp appends a journal entry for a committed mutation. Journal
// failures are logged and swallowed: the bookkeeping already committed, and
// failing the operation now would misreport its outcome to the caller.
func (e *Engine) journalOp(ctx context.Context, op journal.Op, stateID string, actor vault.Principal, params map[string]any) {
	entry, err := journal.NewEntry(
		e.clock.Next(), op, stateID, actor, params,
		e.receipts.Receipt(), e.now.Now(),
	)
	if err != nil {
		slog.Error("journal entry build failed",
			"op", op, "state", stateID, "error", err)
		return
	}
	if err := e.store.AppendJournal(ctx, entry); err != nil {
		slog.Error("journal append failed",
			"op", op, "state", stateID, "error", err)
	}
}
