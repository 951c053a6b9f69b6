package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/vault"
)

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link <state-id-a> <state-id-b>",
		Short: "Entangle two superposed states",
		Long: `Entangle two superposed states so that resolving either forces the
other to collapse to the same outcome.

The actor must control both states, and neither may already be entangled.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runLink(opts *RootOptions, idA, idB string, cmd *cobra.Command) error {
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

	if err := sess.Engine.Link(ctx, vault.Principal(opts.Actor), idA, idB); err != nil {
		return out.EngineError(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"linked": []string{idA, idB}})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Linked %s <-> %s\n", idA, idB)
	return nil
}

// NewUnlinkCommand creates the unlink command.
func NewUnlinkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlink <state-id-a> <state-id-b>",
		Short: "Break the entanglement between two states",
		Long: `Break the entanglement between two superposed states.

The actor must control at least one of the two states.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnlink(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runUnlink(opts *RootOptions, idA, idB string, cmd *cobra.Command) error {
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

	if err := sess.Engine.Unlink(ctx, vault.Principal(opts.Actor), idA, idB); err != nil {
		return out.EngineError(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"unlinked": []string{idA, idB}})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Unlinked %s <-> %s\n", idA, idB)
	return nil
}
