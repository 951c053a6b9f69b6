package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Policy   string
	Actor    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the svault CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cfg, cfgErr := LoadConfig()

	cmd := &cobra.Command{
		Use:   "svault",
		Short: "svault - superposed state vault",
		Long:  "A conditional custody engine: states hold value in superposition until a collapse mechanism resolves them to an outcome.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", cfg.Database, "path to SQLite database (env SVAULT_DB)")
	cmd.PersistentFlags().StringVar(&opts.Policy, "policy", cfg.Policy, "path to distribution policy YAML (env SVAULT_POLICY)")
	cmd.PersistentFlags().StringVar(&opts.Actor, "actor", cfg.Actor, "principal performing the operation (env SVAULT_ACTOR)")

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewDepositCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewClaimCommand(opts))
	cmd.AddCommand(NewCancelCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewUnlinkCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// requireActor validates that an acting principal was provided.
func requireActor(opts *RootOptions) error {
	if opts.Actor == "" {
		return NewExitError(ExitCommandError, "an acting principal is required: set --actor or SVAULT_ACTOR")
	}
	return nil
}

// formatter builds an OutputFormatter bound to the command's writers.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
