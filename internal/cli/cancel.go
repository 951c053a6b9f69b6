package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/vault"
)

// NewCancelCommand creates the cancel command.
func NewCancelCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <state-id>",
		Short: "Cancel a superposed state and refund its custody",
		Long: `Cancel a superposed state, refunding all held value to the creator.

Only the creator or the current controller may cancel. Refunds the ledger
rejects are converted into claimable entitlements for the creator.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCancel(opts *RootOptions, stateID string, cmd *cobra.Command) error {
	if err := requireActor(opts); err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := OpenSession(ctx, opts.Database, opts.Policy)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := formatter(opts, cmd)

	if err := sess.Engine.Cancel(ctx, vault.Principal(opts.Actor), stateID); err != nil {
		return out.EngineError(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"state_id": stateID, "status": "cancelled"})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", stateID)
	return nil
}
