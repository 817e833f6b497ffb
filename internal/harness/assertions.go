package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // What was checked: disposition, path, unique_states, outcome
	Property string   // Empty for run-level checks
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Path     []string // Actual discovery path, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	if e.Property != "" {
		fmt.Fprintf(&buf, "Assertion failed: %s of %q\n", e.Type, e.Property)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	}

	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Path) > 0 {
		fmt.Fprintf(&buf, "\nDiscovery path:\n")
		for i, step := range e.Path {
			fmt.Fprintf(&buf, "  %d. %s\n", i+1, step)
		}
	}

	return buf.String()
}

// assertDisposition checks the verdict for one property.
func assertDisposition(result *Result, e Expectation) error {
	p, ok := result.Property(e.Property)
	if !ok {
		return &AssertionError{
			Type:     "disposition",
			Property: e.Property,
			Expected: e.Disposition,
			Actual:   "property not defined by the model",
		}
	}
	if p.Disposition != e.Disposition {
		d, _ := result.Discovery(e.Property)
		return &AssertionError{
			Type:     "disposition",
			Property: e.Property,
			Expected: e.Disposition,
			Actual:   p.Disposition,
			Path:     d.Path,
		}
	}
	return nil
}

// assertPath checks the exact discovery path for one property.
func assertPath(result *Result, e Expectation) error {
	d, ok := result.Discovery(e.Property)
	if !ok {
		return &AssertionError{
			Type:     "path",
			Property: e.Property,
			Expected: fmt.Sprintf("discovery after %d steps", len(e.Path)),
			Actual:   "no discovery",
		}
	}
	if !slices.Equal(d.Path, e.Path) {
		return &AssertionError{
			Type:     "path",
			Property: e.Property,
			Expected: formatPath(e.Path),
			Actual:   formatPath(d.Path),
			Path:     d.Path,
		}
	}
	return nil
}

func formatPath(path []string) string {
	if len(path) == 0 {
		return "(initial state)"
	}
	return strings.Join(path, " -> ")
}

// EvaluateAssertions checks every expectation of the scenario against the
// result. Returns a slice of error messages for failed expectations.
func EvaluateAssertions(result *Result, s *Scenario) []string {
	var errors []string

	for _, e := range s.Expect {
		if err := assertDisposition(result, e); err != nil {
			errors = append(errors, err.Error())
			continue
		}
		if e.Path != nil {
			if err := assertPath(result, e); err != nil {
				errors = append(errors, err.Error())
			}
		}
	}

	if s.UniqueStates != nil && *s.UniqueStates != result.UniqueStates {
		errors = append(errors, (&AssertionError{
			Type:     "unique_states",
			Expected: fmt.Sprint(*s.UniqueStates),
			Actual:   fmt.Sprint(result.UniqueStates),
		}).Error())
	}

	if s.Outcome != "" && s.Outcome != result.Outcome {
		errors = append(errors, (&AssertionError{
			Type:     "outcome",
			Expected: s.Outcome,
			Actual:   result.Outcome,
		}).Error())
	}

	return errors
}
