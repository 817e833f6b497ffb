package model

import (
	"fmt"

	"github.com/roach88/mealy/internal/actor"
	"github.com/roach88/mealy/internal/ir"
)

// ActionKind distinguishes scheduling actions.
type ActionKind int

const (
	// ActionDeliver removes one copy of an envelope and hands it to its
	// destination.
	ActionDeliver ActionKind = iota + 1
	// ActionRedeliver hands an envelope to its destination and keeps it in
	// flight. Only enabled on a duplicating network.
	ActionRedeliver
	// ActionDrop removes one copy of an envelope without delivering it.
	// Only enabled on a lossy network.
	ActionDrop
	// ActionFireTimer removes a pending timer and runs its owner's handler.
	ActionFireTimer
)

var actionKindNames = map[ActionKind]string{
	ActionDeliver:   "deliver",
	ActionRedeliver: "redeliver",
	ActionDrop:      "drop",
	ActionFireTimer: "fire_timer",
}

// String returns the wire name of the kind.
func (k ActionKind) String() string {
	if name, ok := actionKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is one enabled step from a state. Actions are comparable.
type Action struct {
	Kind  ActionKind
	Env   actor.Envelope    // Deliver, Redeliver, Drop
	Timer actor.TimerHandle // FireTimer
}

// Deliver returns the delivery action for env.
func Deliver(env actor.Envelope) Action {
	return Action{Kind: ActionDeliver, Env: env}
}

// Redeliver returns the duplicating delivery action for env.
func Redeliver(env actor.Envelope) Action {
	return Action{Kind: ActionRedeliver, Env: env}
}

// Drop returns the loss action for env.
func Drop(env actor.Envelope) Action {
	return Action{Kind: ActionDrop, Env: env}
}

// FireTimer returns the action that fires h.
func FireTimer(h actor.TimerHandle) Action {
	return Action{Kind: ActionFireTimer, Timer: h}
}

// String renders the action for traces, e.g.
// "Deliver{src: 0, dst: 1, msg: IncrementRequest(3)}".
func (a Action) String() string {
	switch a.Kind {
	case ActionDeliver:
		return fmt.Sprintf("Deliver{%s}", a.Env)
	case ActionRedeliver:
		return fmt.Sprintf("Redeliver{%s}", a.Env)
	case ActionDrop:
		return fmt.Sprintf("Drop{%s}", a.Env)
	case ActionFireTimer:
		return fmt.Sprintf("FireTimer{%s}", a.Timer)
	default:
		return fmt.Sprintf("Action(%d)", int(a.Kind))
	}
}

// Canonical returns the serialisable form of the action.
func (a Action) Canonical() ir.IRObject {
	obj := ir.IRObject{"kind": ir.IRString(a.Kind.String())}
	if a.Kind == ActionFireTimer {
		obj["owner"] = ir.IRInt(a.Timer.Owner)
		obj["timer"] = ir.IRString(a.Timer.Kind)
		return obj
	}
	obj["src"] = ir.IRInt(a.Env.Src)
	obj["dst"] = ir.IRInt(a.Env.Dst)
	obj["msg"] = actor.EncodeMessage(a.Env.Msg)
	return obj
}

// ID returns the content-addressed identifier of the action.
func (a Action) ID() (string, error) {
	return ir.ActionID(a.Canonical())
}

// DecodeAction rebuilds an action from its Canonical form.
func (m *Model) DecodeAction(obj ir.IRObject) (Action, error) {
	kindName, _ := obj.String("kind")
	var kind ActionKind
	for k, name := range actionKindNames {
		if name == kindName {
			kind = k
		}
	}
	if kind == 0 {
		return Action{}, decodeError(fmt.Errorf("unknown action kind %q", kindName))
	}

	if kind == ActionFireTimer {
		owner, ok := obj.Int("owner")
		if !ok {
			return Action{}, decodeError(fmt.Errorf("fire_timer action has no owner"))
		}
		timer, ok := obj.String("timer")
		if !ok {
			return Action{}, decodeError(fmt.Errorf("fire_timer action has no timer"))
		}
		if err := m.checkAddress(actor.Address(owner)); err != nil {
			return Action{}, decodeError(fmt.Errorf("owner: %w", err))
		}
		return FireTimer(actor.TimerHandle{Owner: actor.Address(owner), Kind: actor.TimerKind(timer)}), nil
	}

	env, err := m.decodeEnvelope(obj)
	if err != nil {
		return Action{}, decodeError(err)
	}
	return Action{Kind: kind, Env: env}, nil
}

func (m *Model) decodeEnvelope(obj ir.IRObject) (actor.Envelope, error) {
	src, ok := obj.Int("src")
	if !ok {
		return actor.Envelope{}, fmt.Errorf("envelope has no src")
	}
	dst, ok := obj.Int("dst")
	if !ok {
		return actor.Envelope{}, fmt.Errorf("envelope has no dst")
	}
	fields, ok := obj.Object("msg")
	if !ok {
		return actor.Envelope{}, fmt.Errorf("envelope has no msg")
	}
	if err := m.checkAddress(actor.Address(src)); err != nil {
		return actor.Envelope{}, fmt.Errorf("src: %w", err)
	}
	if err := m.checkAddress(actor.Address(dst)); err != nil {
		return actor.Envelope{}, fmt.Errorf("dst: %w", err)
	}
	msg, err := m.codec.DecodeMessage(fields)
	if err != nil {
		return actor.Envelope{}, err
	}
	return actor.Envelope{Src: actor.Address(src), Dst: actor.Address(dst), Msg: msg}, nil
}

func decodeError(err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeDecode,
		Message: "cannot decode",
		Err:     err,
	}
}
