// Package store provides SQLite-backed durable storage for vault states.
//
// The store owns the canonical record of every state (identity, status,
// expiry, condition payload, outcome set, custody balances, entanglement),
// the per-recipient entitlement ledger, and the append-only operation
// journal.
//
// # Atomicity
//
// Multi-row lifecycle transitions commit in a single transaction:
//
//   - ApplyResolution: status change, chosen outcome, mechanism overwrite,
//     balance zeroing, entitlement crediting, link clearing on both sides
//   - ApplyCancellation: status change, balance zeroing, link clearing
//   - SetLink / ClearLink: both sides of the reciprocal link
//
// The engine relies on this: bookkeeping is fully committed before any
// external value transfer is attempted, so a re-entrant call from the value
// ledger observes a consistent terminal state.
//
// # Ordering
//
// Deposited unit types carry an explicit deposit_order so resolution
// iterates balances in first-deposit order. Journal reads order by seq,
// the engine's logical clock.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
