package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mealy/internal/ir"
)

// CompileModel parses a CUE value into a ModelSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: pair: { actors: [...] }`)
//	spec, err := CompileModel(v.LookupPath(cue.ParsePath("model.pair")))
func CompileModel(v cue.Value) (*ir.ModelSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ModelSpec{Name: labelOf(v)}

	actorsVal := v.LookupPath(cue.ParsePath("actors"))
	if !actorsVal.Exists() {
		return nil, &CompileError{
			Field:   "actors",
			Message: "actors are required",
			Pos:     v.Pos(),
		}
	}
	var err error
	spec.Actors, err = parseActors(actorsVal)
	if err != nil {
		return nil, err
	}

	if netVal := v.LookupPath(cue.ParsePath("network")); netVal.Exists() {
		spec.Network, err = parseNetwork(netVal)
		if err != nil {
			return nil, err
		}
	}

	if propsVal := v.LookupPath(cue.ParsePath("properties")); propsVal.Exists() {
		spec.Properties, err = parseProperties(propsVal)
		if err != nil {
			return nil, err
		}
	}

	if boundaryVal := v.LookupPath(cue.ParsePath("boundary")); boundaryVal.Exists() {
		cond, err := parseCondition(boundaryVal, "boundary")
		if err != nil {
			return nil, err
		}
		spec.Boundary = &cond
	}

	return spec, nil
}

// labelOf returns the last path selector of v, unquoted.
func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	last := sels[len(sels)-1]
	if last.LabelType() == cue.StringLabel {
		return last.Unquoted()
	}
	return last.String()
}

// parseActors reads the actor list. Each entry is a struct with a kind;
// every other field becomes a parameter.
func parseActors(v cue.Value) ([]ir.ActorSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var actors []ir.ActorSpec
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("actors[%d]", i)
		obj, err := structParams(iter.Value(), field)
		if err != nil {
			return nil, err
		}
		kind, err := takeKind(obj, iter.Value(), field)
		if err != nil {
			return nil, err
		}
		actors = append(actors, ir.ActorSpec{Kind: kind, Params: obj})
	}
	return actors, nil
}

func parseNetwork(v cue.Value) (ir.NetworkSpec, error) {
	var spec ir.NetworkSpec
	var err error

	if spec.Lossy, err = optionalBool(v, "lossy"); err != nil {
		return spec, err
	}
	if spec.Duplicating, err = optionalBool(v, "duplicating"); err != nil {
		return spec, err
	}

	initVal := v.LookupPath(cue.ParsePath("init"))
	if !initVal.Exists() {
		return spec, nil
	}
	variants, err := initVal.List()
	if err != nil {
		return spec, formatCUEError(err)
	}
	for i := 0; variants.Next(); i++ {
		envs, err := variants.Value().List()
		if err != nil {
			return spec, formatCUEError(err)
		}
		variant := []ir.EnvelopeSpec{}
		for j := 0; envs.Next(); j++ {
			env, err := parseEnvelope(envs.Value(), fmt.Sprintf("network.init[%d][%d]", i, j))
			if err != nil {
				return spec, err
			}
			variant = append(variant, env)
		}
		spec.Init = append(spec.Init, variant)
	}
	return spec, nil
}

func parseEnvelope(v cue.Value, field string) (ir.EnvelopeSpec, error) {
	var env ir.EnvelopeSpec
	var err error

	if env.Src, err = requiredInt(v, "src", field); err != nil {
		return env, err
	}
	if env.Dst, err = requiredInt(v, "dst", field); err != nil {
		return env, err
	}

	msgVal := v.LookupPath(cue.ParsePath("msg"))
	if !msgVal.Exists() {
		return env, &CompileError{
			Field:   field + ".msg",
			Message: "msg is required",
			Pos:     v.Pos(),
		}
	}
	env.Msg, err = structParams(msgVal, field+".msg")
	return env, err
}

func parseProperties(v cue.Value) ([]ir.PropertySpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []ir.PropertySpec
	for i := 0; iter.Next(); i++ {
		pv := iter.Value()
		field := fmt.Sprintf("properties[%d]", i)

		var p ir.PropertySpec
		if p.Name, err = requiredString(pv, "name", field); err != nil {
			return nil, err
		}
		if p.Expectation, err = requiredString(pv, "expectation", field); err != nil {
			return nil, err
		}

		condVal := pv.LookupPath(cue.ParsePath("condition"))
		if !condVal.Exists() {
			return nil, &CompileError{
				Field:   field + ".condition",
				Message: "condition is required",
				Pos:     pv.Pos(),
			}
		}
		if p.Condition, err = parseCondition(condVal, field+".condition"); err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

// parseCondition reads {kind: "...", ...params}.
func parseCondition(v cue.Value, field string) (ir.ConditionSpec, error) {
	obj, err := structParams(v, field)
	if err != nil {
		return ir.ConditionSpec{}, err
	}
	kind, err := takeKind(obj, v, field)
	if err != nil {
		return ir.ConditionSpec{}, err
	}
	return ir.ConditionSpec{Kind: kind, Params: obj}, nil
}

// takeKind removes the "kind" entry from obj and returns it.
func takeKind(obj ir.IRObject, v cue.Value, field string) (string, error) {
	kind, ok := obj.String("kind")
	if !ok {
		return "", &CompileError{
			Field:   field + ".kind",
			Message: "kind is required and must be a string",
			Pos:     v.Pos(),
		}
	}
	delete(obj, "kind")
	return kind, nil
}

// structParams converts a concrete CUE struct to an IRObject.
func structParams(v cue.Value, field string) (ir.IRObject, error) {
	val, err := toIR(v, field)
	if err != nil {
		return nil, err
	}
	obj, ok := val.(ir.IRObject)
	if !ok {
		return nil, &CompileError{
			Field:   field,
			Message: "must be a struct",
			Pos:     v.Pos(),
		}
	}
	return obj, nil
}

// toIR converts a concrete CUE value to IR.
// Floats are forbidden: IR values hash canonically only as integers.
func toIR(v cue.Value, field string) (ir.IRValue, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := toIR(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			key := iter.Selector().Unquoted()
			elem, err := toIR(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			obj[key] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func requiredString(v cue.Value, key, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(key))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field + "." + key,
			Message: key + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredInt(v cue.Value, key, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(key))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   field + "." + key,
			Message: key + " is required",
			Pos:     v.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func optionalBool(v cue.Value, key string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(key))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
