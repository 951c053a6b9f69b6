package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashWithDomain_DomainSeparation(t *testing.T) {
	data := []byte("same data")

	h1 := HashWithDomain(DomainState, data)
	h2 := HashWithDomain(DomainJournal, data)

	assert.NotEqual(t, h1, h2, "different domains must produce different hashes")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestHashWithDomain_BoundaryAmbiguity(t *testing.T) {
	// Without the null separator, ("ab", "c") and ("a", "bc") would collide.
	h1 := HashWithDomain("ab", []byte("c"))
	h2 := HashWithDomain("a", []byte("bc"))
	assert.NotEqual(t, h1, h2)
}

func TestStateID_Deterministic(t *testing.T) {
	id1, err := StateID("@alice", 1, 1000, []byte("payload"))
	require.NoError(t, err)
	id2, err := StateID("@alice", 1, 1000, []byte("payload"))
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
}

func TestStateID_SensitiveToInputs(t *testing.T) {
	base, err := StateID("@alice", 1, 1000, []byte("payload"))
	require.NoError(t, err)

	variants := []struct {
		name      string
		creator   Principal
		counter   int64
		createdAt int64
		payload   []byte
	}{
		{"creator", "@bob", 1, 1000, []byte("payload")},
		{"counter", "@alice", 2, 1000, []byte("payload")},
		{"created_at", "@alice", 1, 1001, []byte("payload")},
		{"payload", "@alice", 1, 1000, []byte("other")},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			id, err := StateID(v.creator, v.counter, v.createdAt, v.payload)
			require.NoError(t, err)
			assert.NotEqual(t, base, id)
		})
	}
}

func TestStateID_NilPayload(t *testing.T) {
	// Nil and empty payloads hash identically: both hex-encode to "".
	idNil, err := StateID("@alice", 1, 1000, nil)
	require.NoError(t, err)
	idEmpty, err := StateID("@alice", 1, 1000, []byte{})
	require.NoError(t, err)

	assert.Equal(t, idNil, idEmpty)
}
