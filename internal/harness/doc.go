// Package harness provides a conformance testing framework for the vault
// engine.
//
// Scenarios are YAML files describing a sequence of engine operations
// (create, deposit, resolve, claim, link, ...) plus assertions over the
// resulting states, entitlements, and journal. Each scenario runs against
// a fresh in-memory database with a manual time source, scripted entropy,
// and fixed receipts, so a scenario's trace is fully deterministic and can
// be compared against a golden file.
//
// Unlike an end-to-end harness that talks to a running service, this one
// drives the engine directly. Steps bind the state IDs they create to
// labels, and later steps and assertions refer to states by label, which
// keeps scenario files independent of the content-addressed ID scheme.
package harness
