package model

import (
	"errors"
	"fmt"

	"github.com/roach88/mealy/internal/actor"
)

// Model is a configured system of actors plus the properties to check.
// Configure it fully before exploring; after that it is read-only and safe
// for concurrent use.
type Model struct {
	codec        *actor.Codec
	actors       []actor.Actor
	properties   []Property
	lossy        bool
	duplicating  bool
	initNetworks [][]actor.Envelope
	boundary     Condition
}

// Option configures a Model.
type Option func(*Model)

// WithLossyNetwork enables Drop actions.
func WithLossyNetwork() Option {
	return func(m *Model) {
		m.lossy = true
	}
}

// WithDuplicatingNetwork enables Redeliver actions.
func WithDuplicatingNetwork() Option {
	return func(m *Model) {
		m.duplicating = true
	}
}

// WithInitNetwork adds one initial network configuration. Each call adds a
// variant; exploration starts from one initial state per variant.
func WithInitNetwork(envs ...actor.Envelope) Option {
	return func(m *Model) {
		m.initNetworks = append(m.initNetworks, envs)
	}
}

// WithBoundary restricts exploration to states satisfying within.
// States outside the boundary are neither recorded nor expanded.
func WithBoundary(within Condition) Option {
	return func(m *Model) {
		m.boundary = within
	}
}

// New creates a model. The codec must know every message and state the
// actors produce, or Encode and Decode will fail.
func New(codec *actor.Codec, opts ...Option) *Model {
	m := &Model{codec: codec}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddActor appends an actor and returns its address.
func (m *Model) AddActor(a actor.Actor) actor.Address {
	m.actors = append(m.actors, a)
	return actor.Address(len(m.actors) - 1)
}

// AddProperty registers a property. Properties are evaluated in
// registration order.
func (m *Model) AddProperty(exp Expectation, name string, cond Condition) {
	m.properties = append(m.properties, Property{Name: name, Expectation: exp, Condition: cond})
}

// Properties returns the registered properties.
func (m *Model) Properties() []Property {
	return m.properties
}

// Property looks up a property by name.
func (m *Model) Property(name string) (Property, bool) {
	for _, p := range m.properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// ActorCount returns the number of configured actors.
func (m *Model) ActorCount() int {
	return len(m.actors)
}

// Codec returns the codec used to encode states.
func (m *Model) Codec() *actor.Codec {
	return m.codec
}

// Within reports whether s is inside the exploration boundary.
func (m *Model) Within(s State) bool {
	if m.boundary == nil {
		return true
	}
	return m.boundary(m, s)
}

// InitStates builds one initial state per initial network configuration
// (one state if none was configured). Every actor's OnStart runs first,
// in address order, and its effects are applied before the configured
// envelopes are added.
func (m *Model) InitStates() ([]State, error) {
	base := emptyState()
	for i, a := range m.actors {
		base.actors = base.actors.Append(Record{Addr: actor.Address(i), Kind: a.Kind()})
	}

	for i, a := range m.actors {
		addr := actor.Address(i)
		var out actor.Out
		st, err := m.invoke(addr, "start", func() actor.State {
			return a.OnStart(addr, &out)
		})
		if err != nil {
			return nil, err
		}
		base = base.withActor(addr, st)
		base, err = m.apply(base, addr, out.Effects())
		if err != nil {
			return nil, err
		}
	}

	variants := m.initNetworks
	if len(variants) == 0 {
		variants = [][]actor.Envelope{nil}
	}

	states := make([]State, 0, len(variants))
	for _, envs := range variants {
		s := base
		for _, env := range envs {
			if err := m.checkAddress(env.Src); err != nil {
				return nil, err
			}
			if err := m.checkAddress(env.Dst); err != nil {
				return nil, err
			}
			var err error
			s, err = s.withSend(env)
			if err != nil {
				return nil, err
			}
		}
		sealed, err := s.seal()
		if err != nil {
			return nil, err
		}
		states = append(states, sealed)
	}
	return states, nil
}

// Actions returns the actions enabled in s in a fixed order: for each
// distinct network entry a Deliver, then a Redeliver if the network
// duplicates, then a Drop if it is lossy; then one FireTimer per pending
// timer.
func (m *Model) Actions(s State) []Action {
	entries := s.Network()
	timers := s.Timers()

	actions := make([]Action, 0, len(entries)*3+len(timers))
	for _, e := range entries {
		actions = append(actions, Deliver(e.Env))
		if m.duplicating {
			actions = append(actions, Redeliver(e.Env))
		}
		if m.lossy {
			actions = append(actions, Drop(e.Env))
		}
	}
	for _, h := range timers {
		actions = append(actions, FireTimer(h))
	}
	return actions
}

// Next applies a to s and returns the successor. Next is the manual
// stepping entry point as well as the explorer's transition relation.
func (m *Model) Next(s State, a Action) (State, error) {
	next, err := m.next(s, a)
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			if re.StateHash == "" {
				re.StateHash = s.Hash()
			}
			if re.Action == "" {
				re.Action = a.String()
			}
			return State{}, re
		}
		return State{}, fmt.Errorf("next %s: %w", a, err)
	}
	return next.seal()
}

func (m *Model) next(s State, a Action) (State, error) {
	switch a.Kind {
	case ActionDeliver:
		next, ok := s.withoutOne(a.Env)
		if !ok {
			return s, disabled("envelope is not in flight")
		}
		return m.deliver(next, a.Env)

	case ActionRedeliver:
		if !m.duplicating {
			return s, disabled("network does not duplicate")
		}
		if s.NetworkCount(a.Env) == 0 {
			return s, disabled("envelope is not in flight")
		}
		return m.deliver(s, a.Env)

	case ActionDrop:
		if !m.lossy {
			return s, disabled("network is not lossy")
		}
		next, ok := s.withoutOne(a.Env)
		if !ok {
			return s, disabled("envelope is not in flight")
		}
		return next, nil

	case ActionFireTimer:
		next, ok := s.withoutTimer(a.Timer)
		if !ok {
			return s, disabled("timer is not pending")
		}
		return m.fire(next, a.Timer)

	default:
		return s, disabled(fmt.Sprintf("unknown action kind %d", int(a.Kind)))
	}
}

func (m *Model) deliver(s State, env actor.Envelope) (State, error) {
	if err := m.checkAddress(env.Dst); err != nil {
		return s, err
	}
	a := m.actors[env.Dst]
	cur, _ := s.ActorState(env.Dst)

	var out actor.Out
	st, err := m.invoke(env.Dst, "message", func() actor.State {
		return a.OnMsg(env.Dst, cur, env.Src, env.Msg, &out)
	})
	if err != nil {
		return s, err
	}
	return m.apply(s.withActor(env.Dst, st), env.Dst, out.Effects())
}

func (m *Model) fire(s State, h actor.TimerHandle) (State, error) {
	if err := m.checkAddress(h.Owner); err != nil {
		return s, err
	}
	a := m.actors[h.Owner]
	cur, _ := s.ActorState(h.Owner)

	var out actor.Out
	st, err := m.invoke(h.Owner, "timeout", func() actor.State {
		return a.OnTimeout(h.Owner, cur, h.Kind, &out)
	})
	if err != nil {
		return s, err
	}
	return m.apply(s.withActor(h.Owner, st), h.Owner, out.Effects())
}

// apply folds the effects of actor self into s in call order.
func (m *Model) apply(s State, self actor.Address, effects []actor.Effect) (State, error) {
	var err error
	for _, e := range effects {
		switch e.Kind {
		case actor.EffectSend:
			if err := m.checkAddress(e.Dst); err != nil {
				return s, err
			}
			s, err = s.withSend(actor.Envelope{Src: self, Dst: e.Dst, Msg: e.Msg})
			if err != nil {
				return s, err
			}
		case actor.EffectSetTimer:
			s = s.withTimer(actor.TimerHandle{Owner: self, Kind: e.Timer})
		case actor.EffectCancelTimer:
			s, _ = s.withoutTimer(actor.TimerHandle{Owner: self, Kind: e.Timer})
		}
	}
	return s, nil
}

// invoke runs an actor handler, converting a panic into
// ErrCodeTransitionPanic.
func (m *Model) invoke(addr actor.Address, phase string, fn func() actor.State) (st actor.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{
				Code:    ErrCodeTransitionPanic,
				Message: fmt.Sprintf("actor %d (%s) panicked on %s: %v", addr, m.actors[addr].Kind(), phase, r),
			}
		}
	}()
	return fn(), nil
}

func (m *Model) checkAddress(addr actor.Address) error {
	if int(addr) < 0 || int(addr) >= len(m.actors) {
		return newUnknownAddressError(int(addr), len(m.actors))
	}
	return nil
}

func disabled(reason string) *RuntimeError {
	return &RuntimeError{Code: ErrCodeActionDisabled, Message: reason}
}
