// Package vault defines the domain model for the svault resolution engine.
//
// A State is a locked custody record: value deposited into it stays in an
// undetermined condition until a resolution trigger fires. Resolution fixes
// exactly one outcome from the state's potential-outcome set, converts the
// held balances into per-recipient entitlements, and may cascade into an
// entangled partner state.
//
// The package is a leaf: it holds the State record, the Status and Mechanism
// enums, the structured error taxonomy, canonical JSON serialization, and
// content-addressed identity computation. It imports nothing above it.
//
// Identity is content-addressed: state ids are SHA-256 hashes with domain
// separation over (creator, per-creator counter, clock reading, caller
// payload), serialized as RFC 8785 canonical JSON. The same inputs always
// produce the same id, across restarts and replays.
package vault
