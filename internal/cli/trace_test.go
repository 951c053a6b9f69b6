package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-labs/svault/internal/journal"
)

func TestBuildTraceResult(t *testing.T) {
	entries := []journal.Entry{
		{Seq: 1, Op: journal.OpCreate, Actor: "@alice", Params: `{"mechanism":"manual"}`, Receipt: "r1", ID: "id1"},
		{Seq: 2, Op: journal.OpDepositNative, Actor: "@alice", Params: `{"amount":100}`, Receipt: "r2", ID: "id2"},
		{Seq: 3, Op: journal.OpDepositNative, Actor: "@bob", Params: `{"amount":50}`, Receipt: "r3", ID: "id3"},
	}

	result := buildTraceResult("st-1", entries)

	assert.Equal(t, "st-1", result.StateID)
	require.Len(t, result.Timeline, 3)
	assert.Equal(t, int64(1), result.Timeline[0].Seq)
	assert.Equal(t, "create", result.Timeline[0].Op)
	assert.Equal(t, "manual", result.Timeline[0].Params["mechanism"])

	assert.Equal(t, 3, result.Stats.TotalEvents)
	assert.Equal(t, 1, result.Stats.ByOp["create"])
	assert.Equal(t, 2, result.Stats.ByOp["deposit_native"])
}

func TestBuildTraceResult_Empty(t *testing.T) {
	result := buildTraceResult("st-1", nil)

	assert.NotNil(t, result.Timeline)
	assert.Empty(t, result.Timeline)
	assert.Equal(t, 0, result.Stats.TotalEvents)
}

func TestDecodeParams(t *testing.T) {
	params := decodeParams(`{"unit":"gold","amount":10}`)
	assert.Equal(t, "gold", params["unit"])

	// Empty param objects map to nil so JSON output omits them.
	assert.Nil(t, decodeParams(`{}`))

	// Corrupted params surface as raw text instead of vanishing.
	params = decodeParams(`not json`)
	assert.Equal(t, "not json", params["_raw"])
}

func TestFormatParams_SortedKeys(t *testing.T) {
	got := formatParams(map[string]any{"zebra": 1, "apple": "a", "mango": true})
	assert.Equal(t, "{apple=a, mango=true, zebra=1}", got)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short-id", truncateID("short-id"))

	long := "0123456789abcdef0123456789abcdef0123456789abcdef"
	got := truncateID(long)
	assert.Equal(t, "01234567...89abcdef", got)
}

func TestSortedOps(t *testing.T) {
	ops := sortedOps(map[string]int{"resolve": 1, "create": 1, "deposit_native": 2})
	assert.Equal(t, []string{"create", "deposit_native", "resolve"}, ops)
}
