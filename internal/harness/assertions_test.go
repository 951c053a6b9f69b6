package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertBalance,
		Expected: "account @bob holds 60 native",
		Actual:   "0",
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: balance")
	assert.Contains(t, msg, "Expected: account @bob holds 60 native")
	assert.Contains(t, msg, "Actual: 0")
}

// TestAssertions_FailuresSurface runs a scenario whose assertions are
// deliberately wrong and checks each failure is reported with its index.
func TestAssertions_FailuresSurface(t *testing.T) {
	scenario, err := ParseScenario([]byte(`name: wrong-assertions
description: every assertion here is wrong on purpose
policy: |
  fallback: "@treasury"
  outcomes:
    - index: 0
      name: refund
      shares:
        - to: creator
          percent: 100
    - index: 1
      name: release
      shares:
        - to: "@bob"
          percent: 100
now: 100
steps:
  - op: create
    actor: "@alice"
    as: s
    mechanism: manual
    outcomes: [0, 1]
  - op: deposit
    actor: "@alice"
    state: s
    amount: 10
  - op: resolve
    actor: "@alice"
    state: s
    mode: manual
    outcome: 1
assertions:
  - type: status
    state: s
    expect: cancelled
  - type: outcome
    state: s
    outcome: 0
  - type: balance
    account: "@bob"
    amount: 999
  - type: entitlement
    state: s
    recipient: "@bob"
    amount: 3
  - type: custody
    state: s
    amount: 10
  - type: journal_count
    state: s
    op: resolve
    count: 2
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)

	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "assertions[0]")
	assert.Contains(t, joined, "Assertion failed: status")
	assert.Contains(t, joined, "Assertion failed: outcome")
	assert.Contains(t, joined, "Assertion failed: balance")
	assert.Contains(t, joined, "Assertion failed: entitlement")
	assert.Contains(t, joined, "Assertion failed: custody")
	assert.Contains(t, joined, "Assertion failed: journal_count")
}

// TestAssertions_PartnerEmptyMeansNone verifies that an empty partner field
// asserts the state has no entanglement link.
func TestAssertions_PartnerEmptyMeansNone(t *testing.T) {
	scenario, err := ParseScenario([]byte(`name: partner-none
description: a freshly created state has no partner
policy: |
  fallback: "@treasury"
  outcomes:
    - index: 0
      name: refund
      shares:
        - to: creator
          percent: 100
now: 100
steps:
  - op: create
    actor: "@alice"
    as: lone
    mechanism: manual
    outcomes: [0]
assertions:
  - type: partner
    state: lone
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
}
