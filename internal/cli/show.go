package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/vault"
)

// StateView is the JSON projection of a state for the show command.
type StateView struct {
	ID                string           `json:"id"`
	Creator           string           `json:"creator"`
	Controller        string           `json:"controller"`
	Status            string           `json:"status"`
	Mechanism         string           `json:"mechanism"`
	Expiry            int64            `json:"expiry,omitempty"`
	PotentialOutcomes []int            `json:"potential_outcomes"`
	ChosenOutcome     *int             `json:"chosen_outcome,omitempty"`
	NativeBalance     int64            `json:"native_balance"`
	UnitBalances      []UnitRow        `json:"unit_balances,omitempty"`
	EntangledWith     string           `json:"entangled_with,omitempty"`
	CreatedAt         int64            `json:"created_at"`
	Entitlements      []EntitlementRow `json:"entitlements,omitempty"`
}

// UnitRow is one unit balance in deposit order.
type UnitRow struct {
	Unit   string `json:"unit"`
	Amount int64  `json:"amount"`
}

// EntitlementRow is one unclaimed entitlement in the show output.
type EntitlementRow struct {
	Recipient string `json:"recipient"`
	Unit      string `json:"unit"`
	Amount    int64  `json:"amount"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <state-id>",
		Short: "Show a state's custody, status, and entitlements",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, stateID string, cmd *cobra.Command) error {
	ctx := context.Background()
	sess, err := OpenSession(ctx, opts.Database, opts.Policy)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := formatter(opts, cmd)

	st, err := sess.Engine.Summary(ctx, stateID)
	if err != nil {
		return out.EngineError(err)
	}

	entitlements, err := sess.Store.EntitlementsForState(ctx, stateID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entitlements", err)
	}

	view := buildStateView(st, entitlements)

	if opts.Format == "json" {
		return out.Success(view)
	}
	return printStateText(cmd, view)
}

func buildStateView(st vault.State, entitlements []vault.Entitlement) StateView {
	view := StateView{
		ID:                st.ID,
		Creator:           string(st.Creator),
		Controller:        string(st.Controller),
		Status:            st.Status.String(),
		Mechanism:         st.Mechanism.String(),
		Expiry:            st.Expiry,
		PotentialOutcomes: st.PotentialOutcomes,
		NativeBalance:     st.NativeBalance,
		EntangledWith:     st.EntangledWith,
		CreatedAt:         st.CreatedAt,
	}
	if st.ChosenOutcome != vault.NoOutcome {
		chosen := st.ChosenOutcome
		view.ChosenOutcome = &chosen
	}
	for _, unit := range st.DepositedUnits {
		view.UnitBalances = append(view.UnitBalances, UnitRow{
			Unit:   string(unit),
			Amount: st.UnitBalances[unit],
		})
	}
	for _, e := range entitlements {
		view.Entitlements = append(view.Entitlements, EntitlementRow{
			Recipient: string(e.Recipient),
			Unit:      string(e.Unit),
			Amount:    e.Amount,
		})
	}
	return view
}

func printStateText(cmd *cobra.Command, view StateView) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "State: %s\n", view.ID)
	fmt.Fprintf(w, "Status: %s\n", view.Status)
	fmt.Fprintf(w, "Creator: %s\n", view.Creator)
	fmt.Fprintf(w, "Controller: %s\n", view.Controller)
	fmt.Fprintf(w, "Mechanism: %s\n", view.Mechanism)
	if view.Expiry > 0 {
		fmt.Fprintf(w, "Expiry: %s\n", time.Unix(view.Expiry, 0).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Outcomes: %v\n", view.PotentialOutcomes)
	if view.ChosenOutcome != nil {
		fmt.Fprintf(w, "Chosen: %d\n", *view.ChosenOutcome)
	}
	if view.EntangledWith != "" {
		fmt.Fprintf(w, "Entangled: %s\n", view.EntangledWith)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Custody ===")
	fmt.Fprintf(w, "  native: %d\n", view.NativeBalance)
	for _, row := range view.UnitBalances {
		fmt.Fprintf(w, "  %s: %d\n", row.Unit, row.Amount)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Entitlements ===")
	if len(view.Entitlements) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for _, e := range view.Entitlements {
			fmt.Fprintf(w, "  %s: %d %s\n", e.Recipient, e.Amount, e.Unit)
		}
	}

	return nil
}
