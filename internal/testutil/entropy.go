package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrEntropyExhausted is returned when a ScriptedEntropy runs out of values.
var ErrEntropyExhausted = errors.New("scripted entropy exhausted")

// ScriptedEntropy returns predetermined entropy values in order.
// Implements engine.EntropyProvider.
type ScriptedEntropy struct {
	mu     sync.Mutex
	values []uint64
	idx    int

	// Seeds records the seed passed to each Entropy call, in order.
	Seeds [][]byte
}

// NewScriptedEntropy creates a provider that returns values in order.
func NewScriptedEntropy(values ...uint64) *ScriptedEntropy {
	return &ScriptedEntropy{values: values}
}

// Entropy returns the next scripted value.
func (s *ScriptedEntropy) Entropy(_ context.Context, seed []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Seeds = append(s.Seeds, seed)
	if s.idx >= len(s.values) {
		return 0, ErrEntropyExhausted
	}
	v := s.values[s.idx]
	s.idx++
	return v, nil
}
