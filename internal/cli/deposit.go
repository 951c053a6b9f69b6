package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/vault"
)

// DepositOptions holds flags for the deposit command.
type DepositOptions struct {
	*RootOptions
	Unit   string
	Amount int64
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepositOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deposit <state-id>",
		Short: "Deposit value into a superposed state",
		Long: `Deposit native value or units into a superposed state's custody.

The CLI ledger mints the deposited amount to the actor before transferring
it in, so flows can be exercised without an external settlement system.

Examples:
  svault deposit 4f1a... --actor @alice --amount 100
  svault deposit 4f1a... --actor @alice --unit gold --amount 25`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeposit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Unit, "unit", string(vault.Native), "unit to deposit (default native)")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "amount to deposit (required)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runDeposit(opts *DepositOptions, stateID string, cmd *cobra.Command) error {
	if err := requireActor(opts.RootOptions); err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := OpenSession(ctx, opts.Database, opts.Policy)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := formatter(opts.RootOptions, cmd)
	actor := vault.Principal(opts.Actor)
	unit := vault.Unit(opts.Unit)

	// Fund the actor's account so the transfer can settle.
	if err := sess.Book.Mint(ctx, actor, unit, opts.Amount); err != nil {
		return fmt.Errorf("funding %s: %w", actor, err)
	}
	out.VerboseLog("minted %d %s to %s", opts.Amount, unit, actor)

	if unit == vault.Native {
		err = sess.Engine.DepositNative(ctx, actor, stateID, opts.Amount)
	} else {
		err = sess.Engine.DepositUnit(ctx, actor, stateID, unit, opts.Amount)
	}
	if err != nil {
		return out.EngineError(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"state_id": stateID,
			"unit":     string(unit),
			"amount":   opts.Amount,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deposited %d %s into %s\n", opts.Amount, unit, stateID)
	return nil
}
