package store

import (
	"path/filepath"
	"testing"

	"github.com/tesseract-labs/svault/internal/vault"
)

// createTestStore creates a fresh on-disk store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestState builds a superposed manual state with minimal fields.
func createTestState(id string) vault.State {
	return vault.State{
		ID:                id,
		Creator:           "@alice",
		Controller:        "@alice",
		Status:            vault.StatusSuperposed,
		PotentialOutcomes: []int{0, 1},
		ChosenOutcome:     vault.NoOutcome,
		Mechanism:         vault.MechanismManual,
		CreatedAt:         1000,
	}
}
