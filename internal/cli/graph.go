package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/mealy/internal/checker"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	ModelName string
	MaxDepth  int
	Edges     bool
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <model.cue>",
		Short: "Print the explored state graph as JSON",
		Long: `Explore a model and print its state graph as JSON: every state with
its depth, parent link and canonical encoding, plus every transition with
--edges. Exploration is single-threaded so node ids are reproducible, and
does not stop when properties are decided.

Examples:
  mealy graph ./models/pair.cue --edges
  mealy graph ./models --model polling --max-depth 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ModelName, "model", "", "model to explore when the file defines several")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", envInt(EnvMaxDepth, 0), "stop expanding at this depth (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.Edges, "edges", false, "include every transition, not only parent links")

	return cmd
}

func runGraph(ctx context.Context, opts *GraphOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	_, m, err := loadModel(path, opts.ModelName)
	if err != nil {
		return loadExitError(f, err)
	}

	checkOpts := []checker.Option{
		checker.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())),
		checker.WithMaxDepth(opts.MaxDepth),
		checker.WithFullExploration(),
	}
	if opts.Edges {
		checkOpts = append(checkOpts, checker.WithEdges())
	}
	c := checker.New(m, checkOpts...)
	if _, err := c.Run(ctx); err != nil {
		_ = f.Error(checkErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "exploration failed", err)
	}

	g, err := c.Graph()
	if err != nil {
		return WrapExitError(ExitCommandError, "graph", err)
	}
	f.Compact = true
	if f.JSON() {
		return f.Success(g)
	}
	return f.encode(g)
}
