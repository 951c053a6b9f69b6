package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tesseract-labs/svault/internal/vault"
)

// Scenario defines a conformance test scenario.
// Scenarios exercise the engine through a sequence of steps and assert on
// the resulting states, entitlements, and journal.
type Scenario struct {
	// Name uniquely identifies this scenario. Used as the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is inline YAML for the distribution policy the engine runs
	// under. Inline keeps scenarios self-contained.
	Policy string `yaml:"policy"`

	// Now is the starting value of the manual time source, in unix seconds.
	Now int64 `yaml:"now"`

	// Entropy lists scripted entropy draws for probabilistic steps, consumed
	// in order.
	Entropy []uint64 `yaml:"entropy,omitempty"`

	// Steps is the ordered list of operations to execute.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final states after all steps ran.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation in a scenario.
// Op selects the operation; the remaining fields are interpreted per op.
type Step struct {
	// Op is the operation name: create, deposit, resolve, claim, cancel,
	// link, unlink, extend_expiry, transfer_control, advance.
	Op string `yaml:"op"`

	// Actor is the principal performing the operation.
	Actor string `yaml:"actor,omitempty"`

	// As binds the state ID a create step produces to a label.
	As string `yaml:"as,omitempty"`

	// State names the target state by label (or Partner for link/unlink).
	State   string `yaml:"state,omitempty"`
	Partner string `yaml:"partner,omitempty"`

	// Create parameters.
	Mechanism string `yaml:"mechanism,omitempty"`
	Outcomes  []int  `yaml:"outcomes,omitempty"`
	Expiry    int64  `yaml:"expiry,omitempty"`
	Condition string `yaml:"condition,omitempty"`

	// Deposit and claim parameters.
	Unit   string `yaml:"unit,omitempty"`
	Amount int64  `yaml:"amount,omitempty"`

	// Resolve parameters.
	Mode    string `yaml:"mode,omitempty"`
	Outcome *int   `yaml:"outcome,omitempty"`
	Seed    string `yaml:"seed,omitempty"`

	// Transfer control and advance parameters.
	To string `yaml:"to,omitempty"`
	By int64  `yaml:"by,omitempty"`

	// ExpectError is the engine error code this step must fail with.
	// Empty means the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates final state after the scenario's steps ran.
type Assertion struct {
	// Type specifies the assertion type:
	// - "status": state's status equals Expect
	// - "outcome": collapsed state's chosen outcome equals Outcome
	// - "entitlement": unclaimed entitlement for Recipient/Unit equals Amount
	// - "balance": ledger account balance for Account/Unit equals Amount
	// - "custody": state's held balance in Unit equals Amount
	// - "partner": state's entanglement partner equals Partner ("" = none)
	// - "journal_count": journal entries for state with Op equal Count
	Type string `yaml:"type"`

	State     string `yaml:"state,omitempty"`
	Expect    string `yaml:"expect,omitempty"`
	Outcome   int    `yaml:"outcome,omitempty"`
	Recipient string `yaml:"recipient,omitempty"`
	Account   string `yaml:"account,omitempty"`
	Unit      string `yaml:"unit,omitempty"`
	Amount    int64  `yaml:"amount,omitempty"`
	Partner   string `yaml:"partner,omitempty"`
	Op        string `yaml:"op,omitempty"`
	Count     int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus       = "status"
	AssertOutcome      = "outcome"
	AssertEntitlement  = "entitlement"
	AssertBalance      = "balance"
	AssertCustody      = "custody"
	AssertPartner      = "partner"
	AssertJournalCount = "journal_count"
)

// Step op constants.
const (
	OpCreate          = "create"
	OpDeposit         = "deposit"
	OpResolve         = "resolve"
	OpClaim           = "claim"
	OpCancel          = "cancel"
	OpLink            = "link"
	OpUnlink          = "unlink"
	OpExtendExpiry    = "extend_expiry"
	OpTransferControl = "transfer_control"
	OpAdvance         = "advance"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Policy == "" {
		return fmt.Errorf("policy is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	labels := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(i, &step, labels); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, labels); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step and records the labels it binds.
func validateStep(index int, st *Step, labels map[string]bool) error {
	switch st.Op {
	case OpCreate:
		if st.Actor == "" {
			return fmt.Errorf("steps[%d]: actor is required for create", index)
		}
		if st.As == "" {
			return fmt.Errorf("steps[%d]: as is required for create", index)
		}
		if labels[st.As] {
			return fmt.Errorf("steps[%d]: duplicate label %q", index, st.As)
		}
		if _, ok := vault.ParseMechanism(st.Mechanism); !ok {
			return fmt.Errorf("steps[%d]: unknown mechanism %q", index, st.Mechanism)
		}
		if len(st.Outcomes) == 0 && st.ExpectError == "" {
			return fmt.Errorf("steps[%d]: outcomes list is required for create", index)
		}
		labels[st.As] = true
	case OpDeposit:
		if err := requireStateRef(index, st, labels); err != nil {
			return err
		}
		if st.Amount < 0 && st.ExpectError == "" {
			return fmt.Errorf("steps[%d]: amount must be non-negative", index)
		}
	case OpResolve:
		if err := requireStateRef(index, st, labels); err != nil {
			return err
		}
		switch st.Mode {
		case "manual", "expiry", "condition", "probabilistic":
		default:
			return fmt.Errorf("steps[%d]: unknown resolve mode %q", index, st.Mode)
		}
	case OpClaim, OpCancel, OpExtendExpiry:
		if err := requireStateRef(index, st, labels); err != nil {
			return err
		}
	case OpTransferControl:
		if err := requireStateRef(index, st, labels); err != nil {
			return err
		}
		if st.To == "" {
			return fmt.Errorf("steps[%d]: to is required for transfer_control", index)
		}
	case OpLink, OpUnlink:
		if err := requireStateRef(index, st, labels); err != nil {
			return err
		}
		if st.Partner == "" {
			return fmt.Errorf("steps[%d]: partner is required for %s", index, st.Op)
		}
		if !labels[st.Partner] {
			return fmt.Errorf("steps[%d]: unknown partner label %q", index, st.Partner)
		}
	case OpAdvance:
		if st.By <= 0 {
			return fmt.Errorf("steps[%d]: by must be positive for advance", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

func requireStateRef(index int, st *Step, labels map[string]bool) error {
	if st.Actor == "" {
		return fmt.Errorf("steps[%d]: actor is required for %s", index, st.Op)
	}
	if st.State == "" {
		return fmt.Errorf("steps[%d]: state is required for %s", index, st.Op)
	}
	if !labels[st.State] {
		return fmt.Errorf("steps[%d]: unknown state label %q", index, st.State)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, labels map[string]bool) error {
	requireState := func() error {
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for %s", index, a.Type)
		}
		if !labels[a.State] {
			return fmt.Errorf("assertions[%d]: unknown state label %q", index, a.State)
		}
		return nil
	}

	switch a.Type {
	case AssertStatus:
		if err := requireState(); err != nil {
			return err
		}
		switch a.Expect {
		case "superposed", "collapsed", "cancelled":
		default:
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Expect)
		}
	case AssertOutcome:
		if err := requireState(); err != nil {
			return err
		}
	case AssertEntitlement:
		if err := requireState(); err != nil {
			return err
		}
		if a.Recipient == "" {
			return fmt.Errorf("assertions[%d]: recipient is required for entitlement", index)
		}
	case AssertBalance:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for balance", index)
		}
	case AssertCustody:
		if err := requireState(); err != nil {
			return err
		}
	case AssertPartner:
		if err := requireState(); err != nil {
			return err
		}
		if a.Partner != "" && !labels[a.Partner] {
			return fmt.Errorf("assertions[%d]: unknown partner label %q", index, a.Partner)
		}
	case AssertJournalCount:
		if err := requireState(); err != nil {
			return err
		}
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for journal_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
