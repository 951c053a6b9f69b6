package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/engine"
	"github.com/tesseract-labs/svault/internal/vault"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Mechanism string
	Expiry    int64
	Outcomes  string
	Condition string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a superposed state",
		Long: `Create a superposed state with a set of potential outcomes.

The creator becomes the initial controller. Outcome indices must exist in
the distribution policy.

Examples:
  svault create --actor @alice --mechanism manual --outcomes 0,1
  svault create --actor @alice --mechanism time_expiry --outcomes 0,1,2 --expiry 1767225600
  svault create --actor @alice --mechanism conditional --outcomes 0,1 --condition "shipment:delivered"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mechanism, "mechanism", "manual", "collapse mechanism (manual|time_expiry|conditional|probabilistic)")
	cmd.Flags().Int64Var(&opts.Expiry, "expiry", 0, "absolute unix-seconds deadline (0 = none)")
	cmd.Flags().StringVar(&opts.Outcomes, "outcomes", "", "comma-separated potential outcome indices (required)")
	_ = cmd.MarkFlagRequired("outcomes")
	cmd.Flags().StringVar(&opts.Condition, "condition", "", "condition payload for conditional states")

	return cmd
}

func runCreate(opts *CreateOptions, cmd *cobra.Command) error {
	if err := requireActor(opts.RootOptions); err != nil {
		return err
	}

	mech, ok := vault.ParseMechanism(opts.Mechanism)
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown mechanism %q", opts.Mechanism))
	}

	outcomes, err := parseOutcomes(opts.Outcomes)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --outcomes", err)
	}

	ctx := context.Background()
	sess, err := OpenSession(ctx, opts.Database, opts.Policy)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := formatter(opts.RootOptions, cmd)

	id, err := sess.Engine.Create(ctx, vault.Principal(opts.Actor), engine.CreateParams{
		Expiry:            opts.Expiry,
		ConditionPayload:  []byte(opts.Condition),
		PotentialOutcomes: outcomes,
		Mechanism:         mech,
	})
	if err != nil {
		return out.EngineError(err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"state_id": id})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created state %s\n", id)
	return nil
}

// parseOutcomes parses a comma-separated list of outcome indices.
func parseOutcomes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	outcomes := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		idx, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil, fmt.Errorf("outcome %q is not an integer", trimmed)
		}
		outcomes = append(outcomes, idx)
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("at least one outcome index is required")
	}
	return outcomes, nil
}
