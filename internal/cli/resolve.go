package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/vault"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Mode      string
	Outcome   int
	Condition string
	Seed      string
}

// Resolution modes accepted by --mode.
var resolveModes = []string{"manual", "expiry", "condition", "probabilistic"}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <state-id>",
		Short: "Collapse a superposed state to an outcome",
		Long: `Collapse a superposed state through one of the resolution modes.

manual        requires --outcome; non-controllers pay the policy's manual fee
expiry        resolves a state whose deadline has passed
condition     requires --condition; the payload must match the state's
probabilistic draws entropy to select among the potential outcomes

Examples:
  svault resolve 4f1a... --actor @alice --mode manual --outcome 1
  svault resolve 4f1a... --actor @anyone --mode expiry
  svault resolve 4f1a... --actor @oracle --mode condition --condition "shipment:delivered"
  svault resolve 4f1a... --actor @anyone --mode probabilistic --seed draw-7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "resolution mode (manual|expiry|condition|probabilistic)")
	_ = cmd.MarkFlagRequired("mode")
	cmd.Flags().IntVar(&opts.Outcome, "outcome", vault.NoOutcome, "chosen outcome index (manual mode)")
	cmd.Flags().StringVar(&opts.Condition, "condition", "", "condition payload to present (condition mode)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "entropy seed (probabilistic mode)")

	return cmd
}

func runResolve(opts *ResolveOptions, stateID string, cmd *cobra.Command) error {
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

	switch opts.Mode {
	case "manual":
		if opts.Outcome == vault.NoOutcome {
			return NewExitError(ExitCommandError, "--outcome is required in manual mode")
		}
		// Non-controllers pay the manual fee through the ledger; fund the
		// actor so the fee transfer can settle.
		if fee := sess.Engine.Policy().ManualFee; fee > 0 {
			if st, serr := sess.Engine.Summary(ctx, stateID); serr == nil && st.Controller != actor {
				if merr := sess.Book.Mint(ctx, actor, vault.Native, fee); merr != nil {
					return fmt.Errorf("funding %s: %w", actor, merr)
				}
				out.VerboseLog("minted %d native fee to %s", fee, actor)
			}
		}
		err = sess.Engine.ResolveManual(ctx, actor, stateID, opts.Outcome, nil)
	case "expiry":
		err = sess.Engine.ResolveOnExpiry(ctx, actor, stateID)
	case "condition":
		if opts.Condition == "" {
			return NewExitError(ExitCommandError, "--condition is required in condition mode")
		}
		err = sess.Engine.ResolveOnCondition(ctx, actor, stateID, []byte(opts.Condition))
	case "probabilistic":
		err = sess.Engine.ResolveProbabilistic(ctx, actor, stateID, []byte(opts.Seed))
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be one of %v", opts.Mode, resolveModes))
	}
	if err != nil {
		return out.EngineError(err)
	}

	chosen, err := sess.Engine.ChosenOutcome(ctx, stateID)
	if err != nil {
		return out.EngineError(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{
			"state_id": stateID,
			"outcome":  chosen,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Collapsed %s to outcome %d\n", stateID, chosen)
	return nil
}
