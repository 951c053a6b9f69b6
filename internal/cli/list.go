package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all state IDs in the vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	sess, err := OpenSession(ctx, opts.Database, opts.Policy)
	if err != nil {
		return err
	}
	defer sess.Close()

	ids, err := sess.Store.StateIDs(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list states", err)
	}

	if opts.Format == "json" {
		out := formatter(opts, cmd)
		return out.Success(map[string]any{"state_ids": ids, "count": len(ids)})
	}

	if len(ids) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No states found.")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
