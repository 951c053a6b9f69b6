package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tesseract-labs/svault/internal/vault"
)

// ErrLedgerRefused is the failure a RecordingLedger injects.
var ErrLedgerRefused = errors.New("ledger refused transfer")

// Transfer is one recorded ledger call.
type Transfer struct {
	Out       bool // false = TransferIn, true = TransferOut
	Principal vault.Principal
	Unit      vault.Unit
	Amount    int64
}

// RecordingLedger is an always-successful value ledger that records every
// call and supports targeted failure and under-transfer injection.
// Implements engine.ValueLedger.
//
// Unlike ledger.Book it tracks no balances: every transfer succeeds unless
// told otherwise, which keeps engine tests focused on engine bookkeeping.
type RecordingLedger struct {
	mu        sync.Mutex
	transfers []Transfer

	// FailOut makes TransferOut fail for the given (principal, unit) keys.
	FailOut map[string]bool

	// FailIn makes TransferIn fail for the given (principal, unit) keys.
	FailIn map[string]bool

	// Short, when non-zero, makes every TransferIn move that many fewer
	// units than requested (simulating an under-transferring unit type).
	Short int64
}

// NewRecordingLedger creates an empty recording ledger.
func NewRecordingLedger() *RecordingLedger {
	return &RecordingLedger{
		FailOut: make(map[string]bool),
		FailIn:  make(map[string]bool),
	}
}

func key(p vault.Principal, u vault.Unit) string {
	return string(p) + "/" + string(u)
}

// RefuseOut injects a failure for future TransferOut calls to (p, u).
func (r *RecordingLedger) RefuseOut(p vault.Principal, u vault.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FailOut[key(p, u)] = true
}

// AllowOut clears an injected TransferOut failure.
func (r *RecordingLedger) AllowOut(p vault.Principal, u vault.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.FailOut, key(p, u))
}

// RefuseIn injects a failure for future TransferIn calls from (p, u).
func (r *RecordingLedger) RefuseIn(p vault.Principal, u vault.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FailIn[key(p, u)] = true
}

// Transfers returns a copy of the recorded calls.
func (r *RecordingLedger) Transfers() []Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transfer, len(r.transfers))
	copy(out, r.transfers)
	return out
}

// TransferIn implements engine.ValueLedger.
func (r *RecordingLedger) TransferIn(_ context.Context, from vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailIn[key(from, unit)] {
		return 0, fmt.Errorf("transfer in %d %s from %s: %w", amount, unit, from, ErrLedgerRefused)
	}

	moved := amount
	if r.Short > 0 {
		moved -= r.Short
		if moved < 0 {
			moved = 0
		}
	}

	r.transfers = append(r.transfers, Transfer{Out: false, Principal: from, Unit: unit, Amount: moved})
	return moved, nil
}

// TransferOut implements engine.ValueLedger.
func (r *RecordingLedger) TransferOut(_ context.Context, to vault.Principal, unit vault.Unit, amount int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailOut[key(to, unit)] {
		return 0, fmt.Errorf("transfer out %d %s to %s: %w", amount, unit, to, ErrLedgerRefused)
	}

	r.transfers = append(r.transfers, Transfer{Out: true, Principal: to, Unit: unit, Amount: amount})
	return amount, nil
}
