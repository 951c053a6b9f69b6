// Package testutil provides deterministic collaborator fakes for engine
// and harness tests: a steppable wall clock, scripted entropy, and a
// recording value ledger with failure injection.
package testutil

import "sync"

// ManualTime is a steppable wall-clock source for deterministic expiry
// tests. Implements engine.TimeSource.
//
// Thread-safety: all methods are safe for concurrent use.
type ManualTime struct {
	mu  sync.Mutex
	now int64
}

// NewManualTime creates a clock fixed at the given unix-seconds reading.
func NewManualTime(now int64) *ManualTime {
	return &ManualTime{now: now}
}

// Now returns the current reading without advancing.
func (m *ManualTime) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d seconds.
func (m *ManualTime) Advance(d int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
}

// Set jumps the clock to an absolute reading.
func (m *ManualTime) Set(now int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
