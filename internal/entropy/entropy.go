// Package entropy provides the production entropy provider for
// probabilistic resolution.
package entropy

import (
	"context"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Provider draws entropy from crypto/rand, folded with the caller's seed so
// distinct seeds cannot observe the same draw.
type Provider struct{}

// New creates a Provider.
func New() *Provider {
	return &Provider{}
}

// Entropy returns an unsigned integer derived from crypto/rand and the seed.
func (p *Provider) Entropy(_ context.Context, seed []byte) (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read entropy: %w", err)
	}

	h := sha256.New()
	h.Write(seed)
	h.Write(b[:])
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8]), nil
}
