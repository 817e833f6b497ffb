package actors

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
)

// allowedParams lists the actor parameters each kind accepts.
var allowedParams = map[Kind]map[string]bool{
	KindCounter:    {"initial": true},
	KindSupervisor: {"threshold": true, "counter": true, "comparison": true, "poll": true},
	KindStimulus:   {"target": true, "step": true, "limit": true},
}

// Build instantiates a model from a compiled definition. Every problem
// found is reported, not just the first.
func Build(spec *ir.ModelSpec) (*model.Model, error) {
	codec := NewCodec()

	var errs error
	var opts []model.Option
	if spec.Network.Lossy {
		opts = append(opts, model.WithLossyNetwork())
	}
	if spec.Network.Duplicating {
		opts = append(opts, model.WithDuplicatingNetwork())
	}

	for i, variant := range spec.Network.Init {
		envs := make([]actor.Envelope, 0, len(variant))
		for j, e := range variant {
			msg, err := codec.DecodeMessage(e.Msg)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("network.init[%d][%d]: %w", i, j, err))
				continue
			}
			envs = append(envs, actor.Envelope{Src: actor.Address(e.Src), Dst: actor.Address(e.Dst), Msg: msg})
		}
		opts = append(opts, model.WithInitNetwork(envs...))
	}

	if spec.Boundary != nil {
		within, err := Predicate(spec.Boundary.Kind, spec.Boundary.Params)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("boundary: %w", err))
		} else {
			opts = append(opts, model.WithBoundary(within))
		}
	}

	m := model.New(codec, opts...)

	for i, a := range spec.Actors {
		node, err := NodeFromSpec(a)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("actors[%d]: %w", i, err))
			continue
		}
		m.AddActor(node)
	}

	for i, p := range spec.Properties {
		exp, err := model.ParseExpectation(p.Expectation)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("properties[%d] %s: %w", i, p.Name, err))
			continue
		}
		cond, err := Predicate(p.Condition.Kind, p.Condition.Params)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("properties[%d] %s: %w", i, p.Name, err))
			continue
		}
		m.AddProperty(exp, p.Name, cond)
	}

	if errs != nil {
		return nil, errs
	}
	return m, nil
}

// NodeFromSpec builds one actor from its kind and parameters. Missing
// parameters take the documented defaults.
func NodeFromSpec(spec ir.ActorSpec) (Node, error) {
	kind, err := ParseKind(spec.Kind)
	if err != nil {
		return Node{}, err
	}
	if err := checkParams(kind, spec.Params); err != nil {
		return Node{}, err
	}
	p := spec.Params

	switch kind {
	case KindCounter:
		initial, _ := p.Int("initial")
		return NewCounter(initial), nil

	case KindSupervisor:
		cfg := DefaultSupervisorConfig()
		if v, ok := p.Int("threshold"); ok {
			cfg.Threshold = v
		}
		if v, ok := p.Int("counter"); ok {
			cfg.Counter = actor.Address(v)
		}
		if v, ok := p.String("comparison"); ok {
			cmp, err := ParseComparison(v)
			if err != nil {
				return Node{}, err
			}
			cfg.Comparison = cmp
		}
		cfg.Poll, _ = p.Bool("poll")
		return NewSupervisor(cfg), nil

	default:
		cfg := StimulusConfig{Target: DefaultCounterAddress, Step: 1}
		if v, ok := p.Int("target"); ok {
			cfg.Target = actor.Address(v)
		}
		if v, ok := p.Int("step"); ok {
			cfg.Step = v
		}
		if v, ok := p.Int("limit"); ok {
			cfg.Limit = v
		}
		if cfg.Limit < 0 {
			return Node{}, fmt.Errorf("stimulus limit must not be negative, got %d", cfg.Limit)
		}
		return NewStimulus(cfg), nil
	}
}

func checkParams(kind Kind, params ir.IRObject) error {
	unknown := lo.Filter(lo.Keys(params), func(k string, _ int) bool {
		return !allowedParams[kind][k]
	})
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("%s: unknown params %v", kind, unknown)
}
