// Package journal defines the append-only operation journal for the vault.
//
// Every successful mutating operation appends one Entry. Entries are
// content-addressed (SHA-256 with domain separation over canonical JSON) so
// the same operation at the same logical time always produces the same id,
// and each carries a UUIDv7 receipt handed back to the caller.
package journal

import (
	"fmt"

	"github.com/tesseract-labs/svault/internal/vault"
)

// Op names the recorded operation. Spellings are stable: they appear in
// golden traces and CLI output.
type Op string

const (
	OpCreate          Op = "create"
	OpCancel          Op = "cancel"
	OpExtendExpiry    Op = "extend_expiry"
	OpTransferControl Op = "transfer_control"
	OpDepositNative   Op = "deposit_native"
	OpDepositUnit     Op = "deposit_unit"
	OpLink            Op = "link"
	OpUnlink          Op = "unlink"
	OpResolve         Op = "resolve"
	OpClaim           Op = "claim"
)

// Entry is one journal record.
type Entry struct {
	// ID is the content-addressed entry id.
	ID string

	// Receipt is the UUIDv7 returned to the caller of the operation.
	Receipt string

	// Seq is the engine's logical clock reading. Journal reads order by it.
	Seq int64

	Op      Op
	StateID string
	Actor   vault.Principal

	// Params is the canonical-JSON record of the operation parameters.
	Params string

	// At is the wall-clock reading (unix seconds) when the entry was written.
	// Never used for ordering.
	At int64
}

// NewEntry builds an Entry with its content-addressed id computed from the
// seq, op, state, actor, and params. The receipt and wall-clock reading are
// intentionally excluded from the id: they identify the call, not the
// operation.
func NewEntry(seq int64, op Op, stateID string, actor vault.Principal, params map[string]any, receipt string, at int64) (Entry, error) {
	if params == nil {
		params = map[string]any{}
	}

	paramsJSON, err := vault.MarshalCanonical(params)
	if err != nil {
		return Entry{}, fmt.Errorf("journal entry params: %w", err)
	}

	obj := map[string]any{
		"seq":      seq,
		"op":       string(op),
		"state_id": stateID,
		"actor":    string(actor),
		"params":   string(paramsJSON),
	}
	canonical, err := vault.MarshalCanonical(obj)
	if err != nil {
		return Entry{}, fmt.Errorf("journal entry id: %w", err)
	}

	return Entry{
		ID:      vault.HashWithDomain(vault.DomainJournal, canonical),
		Receipt: receipt,
		Seq:     seq,
		Op:      op,
		StateID: stateID,
		Actor:   actor,
		Params:  string(paramsJSON),
		At:      at,
	}, nil
}
