// Package engine implements the svault resolution engine.
//
// The engine is the heart of svault - it creates superposed states, takes
// custody deposits, dispatches resolution triggers across the five collapse
// mechanisms, converts held balances into per-recipient entitlements, pays
// out claims, and drives cascading collapse across entangled states.
//
// ARCHITECTURE:
//
// Serialized mutation:
// Every public mutating operation runs to completion under a single mutex.
// There is no interleaving and no asynchronous suspension; "blocking"
// operations are synchronous calls to the two external collaborators
// (ValueLedger, EntropyProvider).
//
// Re-entrancy defense:
// The collaborators may call back into the engine during a transfer, so the
// ordering discipline is strict:
//  1. All internal bookkeeping (status change, balance zeroing, entitlement
//     crediting, link clearing) commits in one store transaction BEFORE any
//     external transfer is invoked.
//  2. Claim zeroes the entitlement before transferring and restores it only
//     on a reported failure.
//  3. Cascading resolution clears both entanglement links before recursing
//     into the partner, bounding recursion depth to exactly one extra frame.
//
// Dispatch:
// The five resolve entry points converge on one internal collapse routine.
// The mechanism recorded on a collapsed state is the one actually used,
// which matters for audit when a cascade forces the collapse.
//
// Expiry is a caller-checked condition, not an engine-driven timer: an
// expired-but-uncollapsed state stays superposed until someone calls
// ResolveOnExpiry.
package engine
