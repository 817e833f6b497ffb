package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	ModelPath string // optional - replay against this model
	ModelName string
}

// TraceStep is one step of a stored discovery path.
type TraceStep struct {
	Step   int             `json:"step"` // 0 is the initial state
	Action json.RawMessage `json:"action,omitempty"`
	Hash   string          `json:"hash"`
	State  json.RawMessage `json:"state,omitempty"`
}

// TraceResult holds the trace of one stored discovery.
type TraceResult struct {
	RunID          string      `json:"run_id"`
	Property       string      `json:"property"`
	Expectation    string      `json:"expectation"`
	Classification string      `json:"classification"`
	Steps          []TraceStep `json:"steps"`
	Replayed       bool        `json:"replayed"`
	Render         string      `json:"render,omitempty"`
}

// RunSummary is a stored run with the properties it discovered.
type RunSummary struct {
	store.Run
	Discovered []string `json:"discovered"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id] [property]",
		Short: "Inspect stored runs and discoveries",
		Long: `Inspect runs stored by "mealy check --db".

With no arguments, lists every stored run. With a run id, shows the run
summary and its discoveries. With a run id and a property, shows the
discovery path step by step with every intermediate state.

With --model, the stored path is replayed against the model and every
state hash is checked; replay fails if the model no longer reproduces
the run.

Examples:
  mealy trace --db ./runs.db
  mealy trace --db ./runs.db 0190c1d2-...
  mealy trace --db ./runs.db 0190c1d2-... success
  mealy trace --db ./runs.db 0190c1d2-... success --model ./models/pair.cue`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ModelPath, "model", "", "replay the discovery against this model file")
	cmd.Flags().StringVar(&opts.ModelName, "model-name", "", "model to replay when the file defines several")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch len(args) {
	case 0:
		return traceRuns(ctx, f, st)
	case 1:
		return traceRun(ctx, f, st, args[0])
	default:
		return traceDiscovery(ctx, f, st, opts, args[0], args[1])
	}
}

func traceRuns(ctx context.Context, f *OutputFormatter, st *store.Store) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if f.JSON() {
		return f.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs stored.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(f.Writer, "%4d  %s  %-20s %-16s %d states\n", r.Seq, r.ID, r.ModelName, r.Outcome, r.UniqueStates)
	}
	return nil
}

func traceRun(ctx context.Context, f *OutputFormatter, st *store.Store, runID string) error {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return storeReadError(f, fmt.Sprintf("run %s", runID), err)
	}
	records, err := st.ReadDiscoveries(ctx, runID)
	if err != nil {
		return storeReadError(f, fmt.Sprintf("discoveries of %s", runID), err)
	}

	summary := RunSummary{
		Run:        run,
		Discovered: lo.Map(records, func(d store.DiscoveryRecord, _ int) string { return d.Property }),
	}
	if f.JSON() {
		return f.Success(summary)
	}

	w := f.Writer
	fmt.Fprintf(w, "Run: %s (#%d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "Model: %s (%s)\n", run.ModelName, run.Fingerprint)
	fmt.Fprintf(w, "Outcome: %s, %d states, %d transitions, max depth %d\n",
		run.Outcome, run.UniqueStates, run.Transitions, run.MaxDepth)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Properties ===")
	for _, p := range run.Properties {
		fmt.Fprintf(w, "  %-12s %-24s %s\n", p.Expectation, p.Name, p.Disposition)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Discoveries ===")
	if len(records) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range records {
		fmt.Fprintf(w, "  %s %q after %d steps\n", d.Classification, d.Property, len(d.Path))
	}
	return nil
}

func traceDiscovery(ctx context.Context, f *OutputFormatter, st *store.Store, opts *TraceOptions, runID, property string) error {
	rec, err := st.ReadDiscovery(ctx, runID, property)
	if err != nil {
		return storeReadError(f, fmt.Sprintf("discovery %s/%s", runID, property), err)
	}

	result := TraceResult{
		RunID:          rec.RunID,
		Property:       rec.Property,
		Expectation:    rec.Expectation,
		Classification: rec.Classification,
	}
	for i, hash := range rec.StateHashes {
		step := TraceStep{Step: i, Hash: hash}
		if i > 0 && i <= len(rec.Path) {
			action, err := ir.MarshalCanonical(rec.Path[i-1])
			if err != nil {
				return WrapExitError(ExitCommandError, "marshal action", err)
			}
			step.Action = action
		}
		state, err := st.ReadState(ctx, runID, hash)
		if err != nil {
			return storeReadError(f, fmt.Sprintf("state %s", hash), err)
		}
		step.State = state.State
		result.Steps = append(result.Steps, step)
	}

	if opts.ModelPath != "" {
		_, m, err := loadModel(opts.ModelPath, opts.ModelName)
		if err != nil {
			return loadExitError(f, err)
		}
		d, err := st.ReplayDiscovery(ctx, runID, property, m)
		if err != nil {
			_ = f.Failure(ErrCodeReplay, err.Error(), result)
			return WrapExitError(ExitFailure, "replay failed", err)
		}
		result.Replayed = true
		result.Render = d.Render()
	}

	if f.JSON() {
		return f.Success(result)
	}

	w := f.Writer
	fmt.Fprintf(w, "%s for %q (%s) in run %s\n", result.Classification, result.Property, result.Expectation, result.RunID)
	fmt.Fprintln(w)
	for _, s := range result.Steps {
		if s.Step == 0 {
			fmt.Fprintf(w, "  [0] initial %s\n", s.Hash)
		} else {
			fmt.Fprintf(w, "  [%d] %s -> %s\n", s.Step, s.Action, s.Hash)
		}
		if f.Verbose {
			fmt.Fprintf(w, "      %s\n", s.State)
		}
	}
	if result.Replayed {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "✓ Replay matches stored hashes")
		fmt.Fprint(w, result.Render)
	}
	return nil
}

// storeReadError reports a failed read; a missing row is a command error
// with a not-found code.
func storeReadError(f *OutputFormatter, what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		_ = f.Error(ErrCodeNotFound, what+" not found", nil)
		return NewExitError(ExitCommandError, what+" not found")
	}
	_ = f.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to read "+what, err)
}
