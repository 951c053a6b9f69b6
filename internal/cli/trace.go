package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tesseract-labs/svault/internal/journal"
)

// TraceEvent represents a single journal entry in the trace timeline.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Op      string         `json:"op"`
	Actor   string         `json:"actor"`
	Params  map[string]any `json:"params,omitempty"`
	Receipt string         `json:"receipt"`
	At      int64          `json:"at"`
	ID      string         `json:"id"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	StateID  string       `json:"state_id"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByOp        map[string]int `json:"by_op,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <state-id>",
		Short: "Show the operation journal for a state",
		Long: `Show the append-only operation journal for a state.

Every mutation the engine accepts is journaled with a logical sequence
number, a receipt, and the operation's parameters, in the order the
engine committed them.

Examples:
  svault trace 4f1a...
  svault trace 4f1a... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceCmd(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runTraceCmd(opts *RootOptions, stateID string, cmd *cobra.Command) error {
	ctx := context.Background()
	sess, err := OpenSession(ctx, opts.Database, opts.Policy)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := formatter(opts, cmd)

	entries, err := sess.Engine.Trace(ctx, stateID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := buildTraceResult(stateID, entries)

	if opts.Format == "json" {
		return out.Success(result)
	}
	return printTraceText(cmd, result, opts.Verbose)
}

func buildTraceResult(stateID string, entries []journal.Entry) TraceResult {
	result := TraceResult{
		StateID:  stateID,
		Timeline: []TraceEvent{},
		Stats:    TraceStats{ByOp: make(map[string]int)},
	}
	for _, e := range entries {
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:     e.Seq,
			Op:      string(e.Op),
			Actor:   string(e.Actor),
			Params:  decodeParams(e.Params),
			Receipt: e.Receipt,
			At:      e.At,
			ID:      e.ID,
		})
		result.Stats.ByOp[string(e.Op)]++
	}
	result.Stats.TotalEvents = len(result.Timeline)
	return result
}

func printTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for State: %s\n", result.StateID)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Timeline {
			fmt.Fprintf(w, "  [%d] %s by %s\n", event.Seq, strings.ToUpper(event.Op), event.Actor)
			if verbose && len(event.Params) > 0 {
				fmt.Fprintf(w, "       Params: %s\n", formatParams(event.Params))
			}
			if verbose {
				fmt.Fprintf(w, "       Receipt: %s\n", event.Receipt)
				fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
			}
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	for _, op := range sortedOps(result.Stats.ByOp) {
		fmt.Fprintf(w, "  %s: %d\n", op, result.Stats.ByOp[op])
	}

	return nil
}

// decodeParams parses a journal entry's canonical-JSON params. Entries are
// written by the engine, so a decode failure means a corrupted journal; the
// raw string is shown rather than dropped.
func decodeParams(raw string) map[string]any {
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return map[string]any{"_raw": raw}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// formatParams formats a params map with sorted keys for deterministic output.
func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedOps(byOp map[string]int) []string {
	ops := make([]string, 0, len(byOp))
	for op := range byOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
