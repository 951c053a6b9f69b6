package journal

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// ReceiptGenerator generates unique receipts for mutating operations.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type ReceiptGenerator interface {
	Receipt() string
}

// UUIDv7Generator generates time-sortable UUIDv7 receipts.
//
// UUIDv7 embeds a timestamp in the most significant bits, making receipts
// sortable by creation time, which helps when eyeballing traces.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Receipt creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Receipt() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined receipts for testing.
// This enables deterministic golden trace comparison.
type FixedGenerator struct {
	mu       sync.Mutex
	receipts []string
	idx      int
}

// NewFixedGenerator creates a generator that returns receipts in order.
// After the provided receipts are exhausted it keeps producing
// "receipt-N" so long scenarios don't need exhaustive lists.
func NewFixedGenerator(receipts ...string) *FixedGenerator {
	return &FixedGenerator{receipts: receipts}
}

// Receipt returns the next predetermined receipt.
func (g *FixedGenerator) Receipt() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx < len(g.receipts) {
		r := g.receipts[g.idx]
		g.idx++
		return r
	}
	g.idx++
	return "receipt-" + strconv.Itoa(g.idx)
}
