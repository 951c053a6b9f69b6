package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/tesseract-labs/svault/internal/ledger"
	"github.com/tesseract-labs/svault/internal/store"
	"github.com/tesseract-labs/svault/internal/vault"
)

// AssertionContext carries the stores an assertion evaluates against.
type AssertionContext struct {
	Store  *store.Store
	Book   *ledger.Book
	States map[string]string // label -> state ID
	Ctx    context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs all assertions and collects failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	for i, assertion := range assertions {
		if err := evaluateAssertion(assertion, actx); err != nil {
			errors = append(errors, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errors
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertStatus:
		return assertStatus(a, actx)
	case AssertOutcome:
		return assertOutcome(a, actx)
	case AssertEntitlement:
		return assertEntitlement(a, actx)
	case AssertBalance:
		return assertBalance(a, actx)
	case AssertCustody:
		return assertCustody(a, actx)
	case AssertPartner:
		return assertPartner(a, actx)
	case AssertJournalCount:
		return assertJournalCount(a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (actx *AssertionContext) state(label string) (vault.State, error) {
	id, ok := actx.States[label]
	if !ok {
		return vault.State{}, fmt.Errorf("no state bound to label %q", label)
	}
	return actx.Store.GetState(actx.Ctx, id)
}

func assertStatus(a Assertion, actx *AssertionContext) error {
	st, err := actx.state(a.State)
	if err != nil {
		return err
	}
	if st.Status.String() != a.Expect {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("state %s is %s", a.State, a.Expect),
			Actual:   st.Status.String(),
		}
	}
	return nil
}

func assertOutcome(a Assertion, actx *AssertionContext) error {
	st, err := actx.state(a.State)
	if err != nil {
		return err
	}
	if st.ChosenOutcome != a.Outcome {
		return &AssertionError{
			Type:     AssertOutcome,
			Expected: fmt.Sprintf("state %s resolved to outcome %d", a.State, a.Outcome),
			Actual:   fmt.Sprintf("outcome %d", st.ChosenOutcome),
		}
	}
	return nil
}

func assertEntitlement(a Assertion, actx *AssertionContext) error {
	id, ok := actx.States[a.State]
	if !ok {
		return fmt.Errorf("no state bound to label %q", a.State)
	}
	amount, err := actx.Store.Entitlement(actx.Ctx, id, vault.Principal(a.Recipient), depositUnit(a.Unit))
	if err != nil {
		return err
	}
	if amount != a.Amount {
		return &AssertionError{
			Type:     AssertEntitlement,
			Expected: fmt.Sprintf("%s entitled to %d %s from %s", a.Recipient, a.Amount, depositUnit(a.Unit), a.State),
			Actual:   fmt.Sprintf("%d", amount),
		}
	}
	return nil
}

func assertBalance(a Assertion, actx *AssertionContext) error {
	balance := actx.Book.Balance(vault.Principal(a.Account), depositUnit(a.Unit))
	if balance != a.Amount {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("account %s holds %d %s", a.Account, a.Amount, depositUnit(a.Unit)),
			Actual:   fmt.Sprintf("%d", balance),
		}
	}
	return nil
}

func assertCustody(a Assertion, actx *AssertionContext) error {
	st, err := actx.state(a.State)
	if err != nil {
		return err
	}
	held := st.Balance(depositUnit(a.Unit))
	if held != a.Amount {
		return &AssertionError{
			Type:     AssertCustody,
			Expected: fmt.Sprintf("state %s holds %d %s", a.State, a.Amount, depositUnit(a.Unit)),
			Actual:   fmt.Sprintf("%d", held),
		}
	}
	return nil
}

func assertPartner(a Assertion, actx *AssertionContext) error {
	st, err := actx.state(a.State)
	if err != nil {
		return err
	}
	expected := ""
	if a.Partner != "" {
		expected = actx.States[a.Partner]
	}
	if st.EntangledWith != expected {
		return &AssertionError{
			Type:     AssertPartner,
			Expected: fmt.Sprintf("state %s entangled with %q", a.State, a.Partner),
			Actual:   fmt.Sprintf("entangled with %q", st.EntangledWith),
		}
	}
	return nil
}

func assertJournalCount(a Assertion, actx *AssertionContext) error {
	id, ok := actx.States[a.State]
	if !ok {
		return fmt.Errorf("no state bound to label %q", a.State)
	}
	entries, err := actx.Store.JournalForState(actx.Ctx, id)
	if err != nil {
		return err
	}
	count := 0
	for _, e := range entries {
		if string(e.Op) == a.Op {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("state %s has %d %s journal entries", a.State, a.Count, a.Op),
			Actual:   fmt.Sprintf("%d", count),
		}
	}
	return nil
}
