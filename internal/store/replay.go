package store

import (
	"context"
	"fmt"

	"github.com/roach88/mealy/internal/checker"
	"github.com/roach88/mealy/internal/model"
)

// ReplayError reports the first step at which a replayed discovery
// diverged from the stored hashes.
type ReplayError struct {
	Step     int // 0 is the initial state
	Expected string
	Actual   string
}

func (e *ReplayError) Error() string {
	if e.Step == 0 {
		return fmt.Sprintf("replay: initial state %s is not an initial state of the model", e.Expected)
	}
	return fmt.Sprintf("replay: step %d reached %s, stored %s", e.Step, e.Actual, e.Expected)
}

// ReplayDiscovery re-applies a stored discovery path to m and checks every
// intermediate state hash against the stored ones. It returns the
// discovery rebuilt from live states, ready to Render.
//
// Replay fails with a *ReplayError when m does not reproduce the stored
// run, for example after the model definition changed.
func (s *Store) ReplayDiscovery(ctx context.Context, runID, property string, m *model.Model) (*checker.Discovery, error) {
	rec, err := s.ReadDiscovery(ctx, runID, property)
	if err != nil {
		return nil, fmt.Errorf("replay %s/%s: %w", runID, property, err)
	}
	if len(rec.StateHashes) != len(rec.Path)+1 {
		return nil, fmt.Errorf("replay %s/%s: %d states for %d steps", runID, property, len(rec.StateHashes), len(rec.Path))
	}
	exp, err := model.ParseExpectation(rec.Expectation)
	if err != nil {
		return nil, fmt.Errorf("replay %s/%s: %w", runID, property, err)
	}

	initRec, err := s.ReadState(ctx, runID, rec.StateHashes[0])
	if err != nil {
		return nil, fmt.Errorf("replay %s/%s: initial state: %w", runID, property, err)
	}
	current, err := m.Decode(initRec.State)
	if err != nil {
		return nil, fmt.Errorf("replay %s/%s: initial state: %w", runID, property, err)
	}
	if err := checkInitial(m, current); err != nil {
		return nil, err
	}

	d := &checker.Discovery{
		Property:       rec.Property,
		Expectation:    exp,
		Classification: checker.Classification(rec.Classification),
		States:         []model.State{current},
	}
	for i, obj := range rec.Path {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := m.DecodeAction(obj)
		if err != nil {
			return nil, fmt.Errorf("replay step %d: %w", i+1, err)
		}
		next, err := m.Next(current, a)
		if err != nil {
			return nil, fmt.Errorf("replay step %d: %w", i+1, err)
		}
		if next.Hash() != rec.StateHashes[i+1] {
			return nil, &ReplayError{Step: i + 1, Expected: rec.StateHashes[i+1], Actual: next.Hash()}
		}
		d.Path = append(d.Path, a)
		d.States = append(d.States, next)
		current = next
	}
	return d, nil
}

func checkInitial(m *model.Model, s model.State) error {
	inits, err := m.InitStates()
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	for _, init := range inits {
		if init.Equal(s) {
			return nil
		}
	}
	return &ReplayError{Step: 0, Expected: s.Hash()}
}
