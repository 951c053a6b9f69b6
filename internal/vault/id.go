package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainState   = "svault/state/v1"
	DomainJournal = "svault/journal/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateID computes the content-addressed id for a new state.
//
// Collision resistance comes from the creator identity, a per-creator
// monotonic counter, the creation-time clock reading, and the caller's
// condition payload, all folded through canonical JSON.
func StateID(creator Principal, counter int64, createdAt int64, payload []byte) (string, error) {
	obj := map[string]any{
		"creator":    string(creator),
		"counter":    counter,
		"created_at": createdAt,
		"payload":    payload,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StateID: marshal: %w", err)
	}

	return HashWithDomain(DomainState, canonical), nil
}
