// Package policy loads and validates distribution-policy configuration.
//
// A policy file defines the outcome universe (which outcome indices exist
// and how each one splits custody into per-recipient shares), the fallback
// recipient for remainders, the per-mechanism default-outcome rules, and the
// optional manual-resolution fee.
//
// Files are YAML, validated in two passes: unification with the embedded CUE
// schema (shape, ranges, enums) and Go-side structural checks (duplicate
// indices, share sums). The mapping from outcome to distribution rule is
// configuration, not hard logic, and must be fully specified before a state
// referencing an outcome can be created.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/tesseract-labs/svault/internal/vault"
)

//go:embed schema.cue
var schemaCUE string

// Reserved role names usable in a share's "to" field.
const (
	RoleCreator    = "creator"
	RoleController = "controller"
	RoleFallback   = "fallback"
)

// Rule selects which potential outcome a default-outcome trigger picks.
type Rule string

const (
	RuleFirst Rule = "first"
	RuleLast  Rule = "last"
)

// Share is one (recipient, percent) leg of an outcome's distribution.
type Share struct {
	To      string `yaml:"to"`
	Percent int64  `yaml:"percent"`
}

// Resolve maps the share's "to" field to a concrete principal.
func (sh Share) Resolve(creator, controller, fallback vault.Principal) vault.Principal {
	switch sh.To {
	case RoleCreator:
		return creator
	case RoleController:
		return controller
	case RoleFallback:
		return fallback
	default:
		return vault.Principal(sh.To)
	}
}

// Outcome is one entry of the outcome universe.
type Outcome struct {
	Index int     `yaml:"index"`
	Name  string  `yaml:"name"`
	Shares []Share `yaml:"shares"`
}

// file is the raw YAML shape.
type file struct {
	Fallback  string            `yaml:"fallback"`
	ManualFee int64             `yaml:"manual_fee"`
	Defaults  map[string]string `yaml:"defaults"`
	Outcomes  []Outcome         `yaml:"outcomes"`
}

// Policy is a validated distribution policy.
type Policy struct {
	Fallback  vault.Principal
	ManualFee int64

	outcomes map[int]Outcome
	rules    map[vault.Mechanism]Rule
}

// ValidationError is a policy check failure with a field path.
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

// Validation error codes (P100-P199).
const (
	ErrSchemaMismatch   = "P100" // CUE unification failed
	ErrNoOutcomes       = "P101" // outcome universe is empty
	ErrDuplicateOutcome = "P102" // duplicate outcome index
	ErrShareSum         = "P103" // share percents sum above 100
	ErrBadYAML          = "P104" // YAML parse failure
)

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Load reads and validates a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load policy %s: %w", path, err)
	}
	return p, nil
}

// Parse validates policy YAML and builds a Policy.
func Parse(data []byte) (*Policy, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, ValidationError{Field: "policy", Message: err.Error(), Code: ErrBadYAML}
	}

	if errs := validateFile(&f); len(errs) > 0 {
		// Surface the first failure; the rest repeat the same shape problems.
		return nil, errs[0]
	}

	p := &Policy{
		Fallback:  vault.Principal(f.Fallback),
		ManualFee: f.ManualFee,
		outcomes:  make(map[int]Outcome, len(f.Outcomes)),
		rules:     make(map[vault.Mechanism]Rule, len(f.Defaults)),
	}
	for _, o := range f.Outcomes {
		p.outcomes[o.Index] = o
	}
	for mech, rule := range f.Defaults {
		m, ok := vault.ParseMechanism(mech)
		if !ok {
			// The CUE schema closed the defaults struct; unreachable.
			return nil, ValidationError{
				Field:   "defaults." + mech,
				Message: "unknown mechanism",
				Code:    ErrSchemaMismatch,
			}
		}
		p.rules[m] = Rule(rule)
	}

	return p, nil
}

// validateSchema unifies the YAML document with the embedded CUE schema.
func validateSchema(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ValidationError{Field: "policy", Message: err.Error(), Code: ErrBadYAML}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile policy schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Policy"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Policy: %w", err)
	}

	unified := def.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return ValidationError{
			Field:   "policy",
			Message: strings.TrimSpace(err.Error()),
			Code:    ErrSchemaMismatch,
		}
	}

	return nil
}

// validateFile runs the structural checks CUE cannot express cleanly.
// Returns all errors found (does not fail-fast).
func validateFile(f *file) []ValidationError {
	var errs []ValidationError

	if len(f.Outcomes) == 0 {
		errs = append(errs, ValidationError{
			Field:   "outcomes",
			Message: "outcome universe must not be empty",
			Code:    ErrNoOutcomes,
		})
	}

	seen := make(map[int]bool, len(f.Outcomes))
	for i, o := range f.Outcomes {
		if seen[o.Index] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("outcomes[%d].index", i),
				Message: fmt.Sprintf("duplicate outcome index %d", o.Index),
				Code:    ErrDuplicateOutcome,
			})
		}
		seen[o.Index] = true

		var sum int64
		for _, sh := range o.Shares {
			sum += sh.Percent
		}
		if sum > 100 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("outcomes[%d].shares", i),
				Message: fmt.Sprintf("share percents sum to %d, must be at most 100", sum),
				Code:    ErrShareSum,
			})
		}
	}

	return errs
}

// Known reports whether an outcome index is part of the universe.
func (p *Policy) Known(idx int) bool {
	_, ok := p.outcomes[idx]
	return ok
}

// Outcome returns the universe entry for an index.
func (p *Policy) Outcome(idx int) (Outcome, bool) {
	o, ok := p.outcomes[idx]
	return o, ok
}

// SharesFor returns the distribution legs for an outcome. An outcome with no
// shares routes everything to the fallback recipient.
func (p *Policy) SharesFor(idx int) []Share {
	return p.outcomes[idx].Shares
}

// DefaultOutcome applies the mechanism's configured rule to a state's
// potential-outcome set. Mechanisms without a configured rule use "first".
func (p *Policy) DefaultOutcome(m vault.Mechanism, st *vault.State) int {
	if p.rules[m] == RuleLast {
		return st.LastOutcome()
	}
	return st.FirstOutcome()
}
