package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mealy/internal/checker"
)

// Scenario defines a checker scenario: a model, how to explore it and
// what the exploration must find.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the CUE model file or directory.
	// Relative paths are resolved against the scenario file location.
	Model string `yaml:"model"`

	// ModelName selects a model when the file defines several.
	ModelName string `yaml:"model_name,omitempty"`

	// Checker configures exploration.
	Checker CheckerOptions `yaml:"checker,omitempty"`

	// Expect lists per-property expectations.
	Expect []Expectation `yaml:"expect"`

	// UniqueStates, if set, is the expected number of explored states.
	UniqueStates *int `yaml:"unique_states,omitempty"`

	// Outcome, if set, is the expected run outcome (e.g. "exhausted").
	Outcome string `yaml:"outcome,omitempty"`
}

// CheckerOptions mirrors the checker's functional options.
type CheckerOptions struct {
	Workers  int `yaml:"workers,omitempty"`
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// Expectation is what a scenario expects for one property.
type Expectation struct {
	// Property is the property name from the model.
	Property string `yaml:"property"`

	// Disposition is the expected verdict: holds, violated, witnessed,
	// unwitnessed or inconclusive.
	Disposition string `yaml:"disposition"`

	// Path, if set, is the exact discovery path, one rendered action per
	// entry. An empty list means the discovery is an initial state.
	Path []string `yaml:"path,omitempty"`
}

var validOutcomes = map[string]bool{
	checker.Exhausted.String():       true,
	checker.DepthBounded.String():    true,
	checker.PropertyDecided.String(): true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The model path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files in dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}

	if s.Checker.Workers < 0 {
		return fmt.Errorf("checker.workers must be non-negative")
	}
	if s.Checker.MaxDepth < 0 {
		return fmt.Errorf("checker.max_depth must be non-negative")
	}

	if len(s.Expect) == 0 {
		return fmt.Errorf("expect list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, e := range s.Expect {
		if e.Property == "" {
			return fmt.Errorf("expect[%d]: property is required", i)
		}
		if seen[e.Property] {
			return fmt.Errorf("expect[%d]: duplicate property %q", i, e.Property)
		}
		seen[e.Property] = true
		if _, err := checker.ParseDisposition(e.Disposition); err != nil {
			return fmt.Errorf("expect[%d]: %w", i, err)
		}
		if e.Path != nil && s.Checker.Workers > 1 {
			return fmt.Errorf("expect[%d]: path expectations need a single worker", i)
		}
	}

	if s.UniqueStates != nil && *s.UniqueStates < 1 {
		return fmt.Errorf("unique_states must be positive")
	}

	if s.Outcome != "" && !validOutcomes[s.Outcome] {
		return fmt.Errorf("unknown outcome %q", s.Outcome)
	}

	return nil
}
