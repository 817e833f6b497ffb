package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/roach88/mealy/internal/checker"
	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
	"github.com/roach88/mealy/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	ModelName   string
	Workers     int
	MaxDepth    int
	Database    string
	SaveStates  bool
	Determinism bool
	PushURL     string
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	RunID        string          `json:"run_id"`
	Model        string          `json:"model"`
	Outcome      string          `json:"outcome"`
	UniqueStates int             `json:"unique_states"`
	Transitions  int64           `json:"transitions"`
	MaxDepth     int             `json:"max_depth"`
	DurationMS   int64           `json:"duration_ms"`
	Properties   []PropertyView  `json:"properties"`
	Discoveries  []DiscoveryView `json:"discoveries"`
}

// PropertyView is one property verdict.
type PropertyView struct {
	Name        string `json:"name"`
	Expectation string `json:"expectation"`
	Disposition string `json:"disposition"`
}

// DiscoveryView is one discovery with its path rendered step by step.
type DiscoveryView struct {
	Property       string   `json:"property"`
	Classification string   `json:"classification"`
	Path           []string `json:"path"`
	StateHashes    []string `json:"state_hashes"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <model.cue>",
		Short: "Explore a model and check its properties",
		Long: `Explore every reachable state of a model breadth-first and report a
verdict and the shortest discovery path for every property.

Exit codes:
  0 - Every property reached its expected verdict
  1 - A property was violated or never witnessed, or the model is invalid
  2 - Command error (invalid paths, engine error, etc.)

Defaults for --workers and --max-depth are read from MEALY_WORKERS and
MEALY_MAX_DEPTH.

Examples:
  mealy check ./models/pair.cue
  mealy check ./models --model polling --workers 4
  mealy check ./models/pair.cue --db ./runs.db --save-states
  mealy check ./models/pair.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ModelName, "model", "", "model to check when the file defines several")
	cmd.Flags().IntVar(&opts.Workers, "workers", envInt(EnvWorkers, 1), "number of exploration workers")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", envInt(EnvMaxDepth, 0), "stop expanding at this depth (0 = unbounded)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.SaveStates, "save-states", false, "store every explored state (requires --db)")
	cmd.Flags().BoolVar(&opts.Determinism, "determinism", false, "recompute every transition and fail on differing successors")
	cmd.Flags().StringVar(&opts.PushURL, "push-url", "", "push checker metrics to this Prometheus Pushgateway")

	return cmd
}

func runCheck(ctx context.Context, opts *CheckOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.SaveStates && opts.Database == "" {
		return NewExitError(ExitCommandError, "--save-states requires --db")
	}

	spec, m, err := loadModel(path, opts.ModelName)
	if err != nil {
		return loadExitError(f, err)
	}

	checkOpts := []checker.Option{
		checker.WithLogger(logger),
		checker.WithWorkers(opts.Workers),
		checker.WithMaxDepth(opts.MaxDepth),
	}
	if opts.Determinism {
		checkOpts = append(checkOpts, checker.WithDeterminismCheck())
	}
	var pusher *push.Pusher
	if opts.PushURL != "" {
		metrics := checker.NewMetrics()
		pusher = push.New(opts.PushURL, "mealy").Grouping("model", spec.Name)
		for _, c := range metrics.Collectors() {
			pusher.Collector(c)
		}
		checkOpts = append(checkOpts, checker.WithMetrics(metrics))
	}

	c := checker.New(m, checkOpts...)
	res, runErr := c.Run(ctx)
	if runErr != nil && res == nil {
		_ = f.Error(checkErrorCode(runErr), runErr.Error(), nil)
		return WrapExitError(ExitCommandError, "check failed", runErr)
	}

	if pusher != nil {
		if err := pusher.Push(); err != nil {
			logger.Warn("metrics push failed", "url", opts.PushURL, "error", err)
		}
	}

	if opts.Database != "" {
		// A cancelled run is still stored.
		if err := saveRun(context.WithoutCancel(ctx), opts, spec, c, m, res); err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "store run", err)
		}
		logger.Info("run stored", "db", opts.Database, "run", res.RunID)
	}

	view := newCheckResult(spec.Name, res)
	if runErr != nil {
		// Cancelled: the partial result is still reported.
		_ = f.Failure(ErrCodeCheck, fmt.Sprintf("check %s", res.Outcome), view)
		if !f.JSON() {
			fmt.Fprint(f.Writer, res.Report())
		}
		return WrapExitError(ExitFailure, "check interrupted", runErr)
	}

	if err := res.AssertProperties(); err != nil {
		failures := multierr.Errors(err)
		if f.JSON() {
			_ = f.Failure(ErrCodeProperty, propertiesFailed(failures, res), view)
		} else {
			fmt.Fprint(f.Writer, res.Report())
			fmt.Fprintln(f.Writer)
			for _, e := range failures {
				fmt.Fprintf(f.Writer, "✗ %s\n", firstLine(e.Error()))
			}
		}
		return NewExitError(ExitFailure, propertiesFailed(failures, res))
	}

	if f.JSON() {
		return f.Success(view)
	}
	fmt.Fprint(f.Writer, res.Report())
	fmt.Fprintln(f.Writer, "✓ All properties passed")
	return nil
}

// saveRun writes the run, its discoveries and optionally every explored
// state to the database.
func saveRun(ctx context.Context, opts *CheckOptions, spec *ir.ModelSpec, c *checker.Checker, m *model.Model, res *checker.Result) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := store.NewRun(spec, res, opts.Workers, opts.MaxDepth)
	if err != nil {
		return err
	}
	if err := st.WriteResult(ctx, run, m, res); err != nil {
		return err
	}
	if !opts.SaveStates {
		return nil
	}
	g, err := c.Graph()
	if err != nil {
		return err
	}
	return st.WriteStates(ctx, run.ID, store.StatesFromGraph(g))
}

func newCheckResult(name string, res *checker.Result) CheckResult {
	return CheckResult{
		RunID:        res.RunID,
		Model:        name,
		Outcome:      res.Outcome.String(),
		UniqueStates: res.UniqueStates,
		Transitions:  res.Transitions,
		MaxDepth:     res.MaxDepth,
		DurationMS:   res.Duration.Round(time.Millisecond).Milliseconds(),
		Properties: lo.Map(res.Properties, func(p checker.PropertyResult, _ int) PropertyView {
			return PropertyView{
				Name:        p.Name,
				Expectation: p.Expectation.String(),
				Disposition: p.Disposition.String(),
			}
		}),
		Discoveries: lo.Map(res.Discoveries(), func(d *checker.Discovery, _ int) DiscoveryView {
			return newDiscoveryView(d)
		}),
	}
}

func newDiscoveryView(d *checker.Discovery) DiscoveryView {
	return DiscoveryView{
		Property:       d.Property,
		Classification: string(d.Classification),
		Path:           lo.Map(d.Path, func(a model.Action, _ int) string { return a.String() }),
		StateHashes:    lo.Map(d.States, func(s model.State, _ int) string { return s.Hash() }),
	}
}

// checkErrorCode classifies an aborted run.
func checkErrorCode(err error) string {
	var rt *model.RuntimeError
	if errors.As(err, &rt) {
		return string(rt.Code)
	}
	return ErrCodeCheck
}

func propertiesFailed(failures []error, res *checker.Result) string {
	return fmt.Sprintf("%d of %d properties failed", len(failures), len(res.Properties))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
