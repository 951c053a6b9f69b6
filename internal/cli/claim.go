package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/vault"
)

// ClaimOptions holds flags for the claim command.
type ClaimOptions struct {
	*RootOptions
	Unit string
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClaimOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "claim <state-id>",
		Short: "Claim an entitlement from a resolved state",
		Long: `Claim the actor's entitlement in one unit from a terminal state.

Claiming is idempotent: a second claim for the same unit reports nothing
to claim.

Examples:
  svault claim 4f1a... --actor @bob
  svault claim 4f1a... --actor @bob --unit gold`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Unit, "unit", string(vault.Native), "unit to claim (default native)")

	return cmd
}

func runClaim(opts *ClaimOptions, stateID string, cmd *cobra.Command) error {
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

	moved, err := sess.Engine.Claim(ctx, vault.Principal(opts.Actor), stateID, vault.Unit(opts.Unit))
	if err != nil {
		return out.EngineError(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"state_id": stateID,
			"unit":     opts.Unit,
			"amount":   moved,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Claimed %d %s from %s\n", moved, opts.Unit, stateID)
	return nil
}
