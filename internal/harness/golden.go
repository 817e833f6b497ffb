package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mealy/internal/ir"
)

// Snapshot captures the deterministic part of a scenario result.
// Run ids, durations and state hashes are left out.
type Snapshot struct {
	ScenarioName string
	Outcome      string
	Properties   []PropertyOutcome
	Discoveries  []DiscoverySnapshot
}

// Canonical returns the IR form of the snapshot for canonical JSON
// serialization.
func (s *Snapshot) Canonical() ir.IRObject {
	props := make(ir.IRArray, len(s.Properties))
	for i, p := range s.Properties {
		props[i] = ir.IRObject{
			"name":        ir.IRString(p.Name),
			"expectation": ir.IRString(p.Expectation),
			"disposition": ir.IRString(p.Disposition),
		}
	}

	discoveries := make(ir.IRArray, len(s.Discoveries))
	for i, d := range s.Discoveries {
		path := make(ir.IRArray, len(d.Path))
		for j, step := range d.Path {
			path[j] = ir.IRString(step)
		}
		discoveries[i] = ir.IRObject{
			"property":       ir.IRString(d.Property),
			"classification": ir.IRString(d.Classification),
			"path":           path,
		}
	}

	return ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"outcome":       ir.IRString(s.Outcome),
		"properties":    props,
		"discoveries":   discoveries,
	}
}

// NewSnapshot extracts the snapshot of a result.
func NewSnapshot(name string, result *Result) *Snapshot {
	return &Snapshot{
		ScenarioName: name,
		Outcome:      result.Outcome,
		Properties:   result.Properties,
		Discoveries:  result.Discoveries,
	}
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(NewSnapshot(scenarioName, result).Canonical())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
