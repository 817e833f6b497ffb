package actors

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
)

// PredicateFactory builds a condition from model-file parameters.
type PredicateFactory func(params ir.IRObject) (model.Condition, error)

var predicates = map[string]PredicateFactory{
	"supervisor_success": supervisorSuccess,
	"counter_at_least":   counterAtLeast,
	"counter_below":      counterBelow,
	"network_empty":      networkEmpty,
	"always_true":        alwaysTrue,
}

// Predicate returns the condition named kind, configured by params.
func Predicate(kind string, params ir.IRObject) (model.Condition, error) {
	f, ok := predicates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown condition kind %q", kind)
	}
	cond, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("condition %s: %w", kind, err)
	}
	return cond, nil
}

// PredicateKinds lists the condition vocabulary in sorted order.
func PredicateKinds() []string {
	kinds := lo.Keys(predicates)
	slices.Sort(kinds)
	return kinds
}

// SupervisorSucceeded reports whether the supervisor at addr has seen a
// count meeting its threshold.
func SupervisorSucceeded(s model.State, addr actor.Address) bool {
	st, _ := s.ActorState(addr)
	sup, ok := st.(SupervisorState)
	return ok && sup.Success
}

// CounterValue returns the count of the counter at addr.
func CounterValue(s model.State, addr actor.Address) (int64, bool) {
	st, _ := s.ActorState(addr)
	c, ok := st.(CounterState)
	return c.Count, ok
}

func supervisorSuccess(params ir.IRObject) (model.Condition, error) {
	addr, err := addressParam(params, "actor")
	if err != nil {
		return nil, err
	}
	return func(_ *model.Model, s model.State) bool {
		return SupervisorSucceeded(s, addr)
	}, nil
}

func counterAtLeast(params ir.IRObject) (model.Condition, error) {
	addr, err := addressParam(params, "actor")
	if err != nil {
		return nil, err
	}
	value, ok := params.Int("value")
	if !ok {
		return nil, fmt.Errorf("missing integer param value")
	}
	return func(_ *model.Model, s model.State) bool {
		n, ok := CounterValue(s, addr)
		return ok && n >= value
	}, nil
}

func counterBelow(params ir.IRObject) (model.Condition, error) {
	addr, err := addressParam(params, "actor")
	if err != nil {
		return nil, err
	}
	value, ok := params.Int("value")
	if !ok {
		return nil, fmt.Errorf("missing integer param value")
	}
	return func(_ *model.Model, s model.State) bool {
		n, ok := CounterValue(s, addr)
		return ok && n < value
	}, nil
}

func networkEmpty(ir.IRObject) (model.Condition, error) {
	return func(_ *model.Model, s model.State) bool {
		return s.NetworkLen() == 0
	}, nil
}

func alwaysTrue(ir.IRObject) (model.Condition, error) {
	return func(*model.Model, model.State) bool {
		return true
	}, nil
}

func addressParam(params ir.IRObject, key string) (actor.Address, error) {
	n, ok := params.Int(key)
	if !ok {
		return 0, fmt.Errorf("missing integer param %s", key)
	}
	if n < 0 {
		return 0, fmt.Errorf("param %s: negative address %d", key, n)
	}
	return actor.Address(n), nil
}
