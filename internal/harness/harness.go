package harness

import (
	"context"
	"fmt"

	"github.com/tesseract-labs/svault/internal/engine"
	"github.com/tesseract-labs/svault/internal/journal"
	"github.com/tesseract-labs/svault/internal/ledger"
	"github.com/tesseract-labs/svault/internal/policy"
	"github.com/tesseract-labs/svault/internal/store"
	"github.com/tesseract-labs/svault/internal/testutil"
	"github.com/tesseract-labs/svault/internal/vault"
)

// Harness executes one scenario against a fresh engine.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	book   *ledger.Book
	time   *testutil.ManualTime
	states map[string]string // label -> state ID
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers (manual time, scripted entropy, fixed receipts)
// ensure reproducible traces.
//
// Execution flow:
// 1. Parse the inline policy and open an in-memory database
// 2. Build an engine with deterministic helpers
// 3. Execute steps in order, checking per-step expectations
// 4. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	pol, err := policy.Parse([]byte(scenario.Policy))
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario policy: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	manual := testutil.NewManualTime(scenario.Now)
	book := ledger.NewBook()

	opts := []engine.Option{
		engine.WithTimeSource(manual),
		engine.WithReceipts(journal.NewFixedGenerator()),
	}
	if len(scenario.Entropy) > 0 {
		opts = append(opts, engine.WithEntropy(testutil.NewScriptedEntropy(scenario.Entropy...)))
	}

	h := &Harness{
		store:  st,
		engine: engine.New(st, pol, book, opts...),
		book:   book,
		time:   manual,
		states: make(map[string]string),
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	result.States = h.states

	actx := &AssertionContext{
		Store:  st,
		Book:   book,
		States: h.states,
		Ctx:    ctx,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep dispatches one step to the engine and records the trace event.
// Engine rejections are checked against the step's expect_error clause;
// infrastructure failures abort the run.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	actor := vault.Principal(step.Actor)
	event := TraceEvent{
		Op:      step.Op,
		Actor:   step.Actor,
		State:   step.State,
		Partner: step.Partner,
	}

	var opErr error
	switch step.Op {
	case OpAdvance:
		h.time.Advance(step.By)
		event.Params = map[string]any{"by": step.By}
		result.AddTrace(event)
		return nil

	case OpCreate:
		mech, _ := vault.ParseMechanism(step.Mechanism)
		var id string
		id, opErr = h.engine.Create(ctx, actor, engine.CreateParams{
			Expiry:            step.Expiry,
			ConditionPayload:  []byte(step.Condition),
			PotentialOutcomes: step.Outcomes,
			Mechanism:         mech,
		})
		if opErr == nil {
			h.states[step.As] = id
		}
		event.State = step.As
		event.Params = map[string]any{"mechanism": step.Mechanism, "outcomes": step.Outcomes}
		if step.Expiry > 0 {
			event.Params["expiry"] = step.Expiry
		}

	case OpDeposit:
		id := h.states[step.State]
		unit := depositUnit(step.Unit)
		// Fund the actor so the transfer into custody can settle.
		h.book.Mint(actor, unit, step.Amount)
		if unit == vault.Native {
			opErr = h.engine.DepositNative(ctx, actor, id, step.Amount)
		} else {
			opErr = h.engine.DepositUnit(ctx, actor, id, unit, step.Amount)
		}
		event.Params = map[string]any{"unit": string(unit), "amount": step.Amount}

	case OpResolve:
		id := h.states[step.State]
		event.Params = map[string]any{"mode": step.Mode}
		switch step.Mode {
		case "manual":
			chosen := vault.NoOutcome
			if step.Outcome != nil {
				chosen = *step.Outcome
			}
			event.Params["outcome"] = chosen
			opErr = h.engine.ResolveManual(ctx, actor, id, chosen, nil)
		case "expiry":
			opErr = h.engine.ResolveOnExpiry(ctx, actor, id)
		case "condition":
			opErr = h.engine.ResolveOnCondition(ctx, actor, id, []byte(step.Condition))
		case "probabilistic":
			opErr = h.engine.ResolveProbabilistic(ctx, actor, id, []byte(step.Seed))
		}

	case OpClaim:
		id := h.states[step.State]
		unit := depositUnit(step.Unit)
		var moved int64
		moved, opErr = h.engine.Claim(ctx, actor, id, unit)
		event.Params = map[string]any{"unit": string(unit)}
		if opErr == nil {
			event.Params["amount"] = moved
		}

	case OpCancel:
		opErr = h.engine.Cancel(ctx, actor, h.states[step.State])

	case OpLink:
		opErr = h.engine.Link(ctx, actor, h.states[step.State], h.states[step.Partner])

	case OpUnlink:
		opErr = h.engine.Unlink(ctx, actor, h.states[step.State], h.states[step.Partner])

	case OpExtendExpiry:
		opErr = h.engine.ExtendExpiry(ctx, actor, h.states[step.State], step.Expiry)
		event.Params = map[string]any{"expiry": step.Expiry}

	case OpTransferControl:
		opErr = h.engine.TransferControl(ctx, actor, h.states[step.State], vault.Principal(step.To))
		event.Params = map[string]any{"to": step.To}

	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if opErr != nil {
		code := vault.CodeOf(opErr)
		if code == "" {
			return fmt.Errorf("steps[%d] (%s): %w", index, step.Op, opErr)
		}
		event.Error = string(code)
	}
	result.AddTrace(event)

	switch {
	case step.ExpectError == "" && opErr != nil:
		result.AddError(fmt.Sprintf("steps[%d] (%s): unexpected error: %v", index, step.Op, opErr))
	case step.ExpectError != "" && opErr == nil:
		result.AddError(fmt.Sprintf("steps[%d] (%s): expected error %s, got success", index, step.Op, step.ExpectError))
	case step.ExpectError != "" && event.Error != step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] (%s): expected error %s, got %s", index, step.Op, step.ExpectError, event.Error))
	}

	return nil
}

// depositUnit maps a step's unit field to a vault unit, defaulting to native.
func depositUnit(unit string) vault.Unit {
	if unit == "" {
		return vault.Native
	}
	return vault.Unit(unit)
}
