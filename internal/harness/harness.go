package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/checker"
	"github.com/roach88/mealy/internal/compiler"
	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
	"github.com/roach88/mealy/internal/store"
)

// Harness is the scenario execution engine.
// It runs scenarios with deterministic run ids against a private store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load, validate and build the model
// 3. Run the checker with the scenario's options
// 4. Store the run and its discoveries, then replay them from the store
// 5. Evaluate expectations and return the result
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	spec, m, err := LoadModel(scenario.Model, scenario.ModelName)
	if err != nil {
		return nil, err
	}

	opts := []checker.Option{
		checker.WithLogger(h.logger),
		checker.WithRunIDGenerator(checker.NewFixedGenerator("scenario-" + scenario.Name)),
	}
	if scenario.Checker.Workers > 0 {
		opts = append(opts, checker.WithWorkers(scenario.Checker.Workers))
	}
	if scenario.Checker.MaxDepth > 0 {
		opts = append(opts, checker.WithMaxDepth(scenario.Checker.MaxDepth))
	}

	res, err := checker.New(m, opts...).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", spec.Name, err)
	}

	run, err := store.NewRun(spec, res, scenario.Checker.Workers, scenario.Checker.MaxDepth)
	if err != nil {
		return nil, err
	}
	if err := h.store.WriteResult(ctx, run, m, res); err != nil {
		return nil, err
	}

	result := NewResult()
	result.RunID = res.RunID
	result.Outcome = res.Outcome.String()
	result.UniqueStates = res.UniqueStates
	result.Transitions = res.Transitions
	for _, p := range res.Properties {
		result.Properties = append(result.Properties, PropertyOutcome{
			Name:        p.Name,
			Expectation: p.Expectation.String(),
			Disposition: p.Disposition.String(),
		})
	}

	records, err := h.store.ReadDiscoveries(ctx, res.RunID)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		d, err := h.store.ReplayDiscovery(ctx, res.RunID, rec.Property, m)
		if err != nil {
			return nil, err
		}
		result.Discoveries = append(result.Discoveries, snapshotDiscovery(d))
	}

	for _, msg := range EvaluateAssertions(result, scenario) {
		result.AddError(msg)
	}
	return result, nil
}

// LoadModel compiles, validates and builds a model from a CUE file.
func LoadModel(path, name string) (*ir.ModelSpec, *model.Model, error) {
	spec, err := compiler.LoadModel(path, name)
	if err != nil {
		return nil, nil, err
	}
	if verrs := compiler.Validate(spec); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Error()
		}
		return nil, nil, fmt.Errorf("model %s is invalid:\n  %s", spec.Name, strings.Join(msgs, "\n  "))
	}
	m, err := actors.Build(spec)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s: %w", spec.Name, err)
	}
	return spec, m, nil
}

func snapshotDiscovery(d *checker.Discovery) DiscoverySnapshot {
	path := make([]string, len(d.Path))
	for i, a := range d.Path {
		path[i] = a.String()
	}
	return DiscoverySnapshot{
		Property:       d.Property,
		Classification: string(d.Classification),
		Path:           path,
		Render:         d.Render(),
	}
}
