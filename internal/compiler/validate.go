package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/mealy/internal/actors"
	"github.com/roach88/mealy/internal/ir"
)

// Validation error codes (E200-E209)
const (
	ErrNoActors           = "E200" // at least one actor required
	ErrEmptyKind          = "E201" // actor or condition kind is empty
	ErrUnknownKind        = "E202" // actor kind not in the workload vocabulary
	ErrInvalidParams      = "E203" // actor params rejected (unknown key, bad value)
	ErrAddressOutOfRange  = "E204" // address does not name an actor
	ErrUnknownExpectation = "E205" // expectation not always/sometimes/eventually
	ErrEmptyPropertyName  = "E206" // property name is required
	ErrDuplicateName      = "E207" // duplicate property name
	ErrUnknownCondition   = "E208" // condition kind not in the predicate vocabulary
	ErrInvalidMessage     = "E209" // initial message has no known tag
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled model against the workload vocabulary.
// Returns all errors found (does not fail-fast).
func Validate(spec *ir.ModelSpec) []ValidationError {
	var errs []ValidationError
	n := len(spec.Actors)

	// E200: at least one actor
	if n == 0 {
		errs = append(errs, ValidationError{
			Field:   "actors",
			Message: "at least one actor is required",
			Code:    ErrNoActors,
		})
	}

	checkAddr := func(field string, addr int64) {
		if addr < 0 || addr >= int64(n) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("address %d out of range (model has %d actors)", addr, n),
				Code:    ErrAddressOutOfRange,
			})
		}
	}

	for i, a := range spec.Actors {
		field := fmt.Sprintf("actors[%d]", i)
		if strings.TrimSpace(a.Kind) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: "kind is required",
				Code:    ErrEmptyKind,
			})
			continue
		}
		kind, err := actors.ParseKind(a.Kind)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: err.Error(),
				Code:    ErrUnknownKind,
			})
			continue
		}
		if _, err := actors.NodeFromSpec(a); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: err.Error(),
				Code:    ErrInvalidParams,
			})
			continue
		}

		switch kind {
		case actors.KindSupervisor:
			if addr, ok := a.Params.Int("counter"); ok {
				checkAddr(field+".counter", addr)
			} else {
				checkAddr(field+".counter", int64(actors.DefaultCounterAddress))
			}
		case actors.KindStimulus:
			if addr, ok := a.Params.Int("target"); ok {
				checkAddr(field+".target", addr)
			} else {
				checkAddr(field+".target", int64(actors.DefaultCounterAddress))
			}
		}
	}

	codec := actors.NewCodec()
	for i, variant := range spec.Network.Init {
		for j, env := range variant {
			field := fmt.Sprintf("network.init[%d][%d]", i, j)
			checkAddr(field+".src", int64(env.Src))
			checkAddr(field+".dst", int64(env.Dst))
			if _, err := codec.DecodeMessage(env.Msg); err != nil {
				errs = append(errs, ValidationError{
					Field:   field + ".msg",
					Message: err.Error(),
					Code:    ErrInvalidMessage,
				})
			}
		}
	}

	names := make(map[string]bool)
	for i, p := range spec.Properties {
		field := fmt.Sprintf("properties[%d]", i)

		// E206: name required
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "name is required",
				Code:    ErrEmptyPropertyName,
			})
		} else if names[p.Name] {
			// E207: duplicate name
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate property name: %q", p.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[p.Name] = true

		// E205: expectation
		if !ir.ValidExpectations[p.Expectation] {
			errs = append(errs, ValidationError{
				Field:   field + ".expectation",
				Message: fmt.Sprintf("invalid expectation %q, must be \"always\", \"sometimes\", or \"eventually\"", p.Expectation),
				Code:    ErrUnknownExpectation,
			})
		}

		if cerr := validateCondition(p.Condition, field+".condition"); cerr != nil {
			errs = append(errs, *cerr)
		} else if addr, ok := p.Condition.Params.Int("actor"); ok {
			checkAddr(field+".condition.actor", addr)
		}
	}

	if spec.Boundary != nil {
		if cerr := validateCondition(*spec.Boundary, "boundary"); cerr != nil {
			errs = append(errs, *cerr)
		} else if addr, ok := spec.Boundary.Params.Int("actor"); ok {
			checkAddr("boundary.actor", addr)
		}
	}

	return errs
}

func validateCondition(c ir.ConditionSpec, field string) *ValidationError {
	if strings.TrimSpace(c.Kind) == "" {
		return &ValidationError{
			Field:   field + ".kind",
			Message: "kind is required",
			Code:    ErrEmptyKind,
		}
	}
	if _, err := actors.Predicate(c.Kind, c.Params); err != nil {
		return &ValidationError{
			Field:   field,
			Message: err.Error(),
			Code:    ErrUnknownCondition,
		}
	}
	return nil
}
