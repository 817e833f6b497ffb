package model

import (
	"fmt"
)

// Expectation is the temporal claim a property makes about its condition.
type Expectation int

const (
	// Always requires the condition in every reachable state. A violating
	// state is a counterexample.
	Always Expectation = iota + 1
	// Sometimes requires the condition in at least one reachable state.
	// A satisfying state is an example.
	Sometimes
	// Eventually requires the condition to become true. Exploration records
	// the first satisfying state as a witness, exactly as for Sometimes.
	Eventually
)

// String returns the expectation name used in model files.
func (e Expectation) String() string {
	switch e {
	case Always:
		return "always"
	case Sometimes:
		return "sometimes"
	case Eventually:
		return "eventually"
	default:
		return "unknown"
	}
}

// ParseExpectation parses an expectation name.
func ParseExpectation(s string) (Expectation, error) {
	switch s {
	case "always":
		return Always, nil
	case "sometimes":
		return Sometimes, nil
	case "eventually":
		return Eventually, nil
	default:
		return 0, fmt.Errorf("unknown expectation %q", s)
	}
}

// Condition is a predicate over global states. It must be pure.
type Condition func(m *Model, s State) bool

// Property is a named condition with an expectation.
type Property struct {
	Name        string
	Expectation Expectation
	Condition   Condition
}

// Evaluate runs the property condition on s. A panicking condition is
// reported as ErrCodePredicatePanic rather than crashing the caller.
func (m *Model) Evaluate(p Property, s State) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{
				Code:      ErrCodePredicatePanic,
				Message:   fmt.Sprintf("property %q panicked: %v", p.Name, r),
				StateHash: s.Hash(),
			}
		}
	}()
	return p.Condition(m, s), nil
}
